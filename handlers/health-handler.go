package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Mongo Pinger
}

func NewHealthHandler(mongo Pinger) *HealthHandler {
	return &HealthHandler{Mongo: mongo}
}

// Health reports 503 when the database does not answer within two seconds.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Mongo.Ping(ctx); err != nil {
		logging.Logger.Warnf("Event ID: HEALTH_DB_DOWN, Description: MongoDB ping failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "mongo": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mongo": "up"})
}
