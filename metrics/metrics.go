package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worknest_http_requests_total",
		Help: "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worknest_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"route", "method"})

	InvitationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worknest_invitations_sent_total",
		Help: "Total number of invitations created",
	})

	// InvitationResponses is labelled by the requested action and the outcome
	// (ok, compensated, rejected).
	InvitationResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worknest_invitation_responses_total",
		Help: "Invitation responses by action and outcome",
	}, []string{"action", "outcome"})

	MembershipAdmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worknest_membership_admissions_total",
		Help: "Membership admission attempts by source and outcome",
	}, []string{"source", "outcome"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worknest_notifications_created_total",
		Help: "Notifications created by type",
	}, []string{"type"})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worknest_notification_failures_total",
		Help: "Best-effort notifications that could not be stored",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "worknest_messages_sent_total",
		Help: "Chat messages sent",
	})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "worknest_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency labelled by the mux route
// template, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		HTTPLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
