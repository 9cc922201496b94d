package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMediaClientUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "png-bytes" || !strings.HasSuffix(header.Filename, ".png") || strings.Contains(header.Filename, "me") {
			http.Error(w, "unexpected file", http.StatusBadRequest)
			return
		}
		if r.FormValue("folder") != "avatars" {
			http.Error(w, "missing folder", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/avatars/` + header.Filename + `"}`))
	}))
	defer srv.Close()

	client := NewMediaClient(srv.URL+"/", "key-123", "avatars")
	url, err := client.Upload(context.Background(), "Me.PNG", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.example.com/avatars/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("unexpected url %q", url)
	}
}

func TestMediaClientUploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "disk full", http.StatusInternalServerError)
		}},
		{"missing url", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := NewMediaClient(srv.URL, "", "")
			if _, err := client.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x")); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	a, b := objectName("avatar.JPG"), objectName("avatar.JPG")
	if a == b {
		t.Error("object names should be unique")
	}
	if !strings.HasSuffix(a, ".jpg") {
		t.Errorf("expected lower-cased extension, got %q", a)
	}
}
