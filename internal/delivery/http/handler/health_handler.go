package handler

import (
	"context"
	"time"

	"jobdash/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// Pinger is anything the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache interface{ Available() bool }
}

func NewHealthHandler(db Pinger, cache interface{ Available() bool }) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.HandleHealth)
}

// HandleHealth reports 503 when the database is unreachable. A missing cache
// only degrades the report.
func (h *HealthHandler) HandleHealth(c fiber.Ctx) error {
	status := map[string]string{"database": "ok", "cache": "bypassed"}
	if h.cache != nil && h.cache.Available() {
		status["cache"] = "ok"
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status["database"] = "unavailable"
			return response.Error(c, fiber.StatusServiceUnavailable, "database unavailable", status)
		}
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, status)
}
