package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger reports fast-tier connectivity. A nil Pinger means the cache was
// never configured and sessions live in the in-process fallback only.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusHandler handles the service status endpoint.
type StatusHandler struct {
	*Handler
	cache Pinger
}

// NewStatusHandler creates a status handler. cache may be nil.
func NewStatusHandler(base *Handler, cache Pinger) *StatusHandler {
	return &StatusHandler{Handler: base, cache: cache}
}

// RegisterRoutes registers the status route.
func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/status", h.Status)
}

// Status returns the health of the service and its tiers. Only a dead
// database makes the service unavailable; a missing cache means sessions
// are running on the fallback tier.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"status": "healthy",
		"checks": map[string]string{"api": "ok"},
	}
	statusCode := http.StatusOK
	checks := status["checks"].(map[string]string)

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("status check failed", "component", "database", "error", err)
		status["status"] = "unavailable"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	switch {
	case h.cache == nil:
		checks["cache"] = "disabled"
	case h.cache.Ping(ctx) != nil:
		if status["status"] == "healthy" {
			status["status"] = "degraded"
		}
		checks["cache"] = "unreachable"
	default:
		checks["cache"] = "ok"
	}

	status["fallback_sessions"] = h.sessions.FallbackSize()

	JSON(w, statusCode, status)
}
