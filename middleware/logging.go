package middleware

import (
	"net/http"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/logging"

	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestLogFormat = "Event ID: HTTP_REQUEST, Description: %s %s -> %d (%d bytes) in %s"
)

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// RequestLogger tags every request with an id (reusing a client-supplied
// X-Request-ID) and logs one line when it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := logging.Logger.WithField("requestId", requestID)
		switch {
		case rec.status >= http.StatusInternalServerError:
			entry.Errorf(requestLogFormat, r.Method, r.URL.Path, rec.status, rec.bytes, time.Since(start))
		case rec.status >= http.StatusBadRequest:
			entry.Warnf(requestLogFormat, r.Method, r.URL.Path, rec.status, rec.bytes, time.Since(start))
		default:
			entry.Infof(requestLogFormat, r.Method, r.URL.Path, rec.status, rec.bytes, time.Since(start))
		}
	})
}
