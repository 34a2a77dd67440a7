package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/finance-dashboard-be/internal/http/respond"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler returns uptime and store reachability.
type HealthHandler struct {
	startedAt time.Time
	store     Pinger
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, store Pinger) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, store: store}
}

// Handle reports 200 when the store answers a ping and 503 otherwise.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{
		"status":  "ok",
		"storage": "ok",
		"uptime":  time.Since(h.startedAt).Truncate(time.Second).String(),
	}
	if err := h.store.Ping(ctx); err != nil {
		body["status"] = "degraded"
		body["storage"] = "unreachable"
		respond.JSON(w, http.StatusServiceUnavailable, "degraded", body)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", body)
}
