package breaker

import (
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/metrics"

	"github.com/sony/gobreaker"
)

// New returns a breaker that opens after more than three consecutive
// failures and lets a single probe through once timeout has passed.
func New(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	metrics.BreakerState.WithLabelValues(name).Set(stateValue(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
