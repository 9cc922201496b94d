package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test-breaker", time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 4; i++ {
		if _, err := cb.Execute(func() (interface{}, error) { return nil, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", cb.State())
	}
	if _, err := cb.Execute(func() (interface{}, error) { return nil, nil }); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
}

func TestStateValue(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tc := range tests {
		t.Run(tc.state.String(), func(t *testing.T) {
			if got := stateValue(tc.state); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
