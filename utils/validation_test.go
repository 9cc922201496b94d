package utils

import (
	"strings"
	"testing"
)

type signup struct {
	Fullname string   `json:"fullname" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,max=20"`
	Tags     []string `json:"tags" validate:"min=1"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   signup
		wantErr string
	}{
		{"valid", signup{"Ana", "ana@example.com", "Secret1!", []string{"go"}}, ""},
		{"missing name", signup{"", "ana@example.com", "Secret1!", []string{"go"}}, "fullname is required"},
		{"bad email", signup{"Ana", "ana", "Secret1!", []string{"go"}}, "email must be a valid email address"},
		{"short password", signup{"Ana", "ana@example.com", "short", []string{"go"}}, "password must be at least 8 characters"},
		{"no tags", signup{"Ana", "ana@example.com", "Secret1!", []string{}}, "tags must be at least 1 items"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStruct(tc.input)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
