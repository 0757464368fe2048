package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HealthHandler reports database reachability and live session count.
type HealthHandler struct {
	*Handler
	timeout time.Duration
}

// NewHealthHandler creates a health handler. A non-positive timeout
// defaults to two seconds.
func NewHealthHandler(base *Handler, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{Handler: base, timeout: timeout}
}

// RegisterHealth registers the health route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// Health pings the report store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	active := 0
	if h.sessions != nil {
		active = h.sessions.Count()
	}

	if err := h.reports.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":          "degraded",
			"database":        "unreachable",
			"active_sessions": active,
		})
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"database":        "ok",
		"active_sessions": active,
	})
}
