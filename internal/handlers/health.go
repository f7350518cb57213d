package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"toolhost/internal/services"
	"toolhost/internal/tools"
)

// HealthCheck pings one backing store
type HealthCheck func(ctx context.Context) error

// HealthHandler handles health check requests
type HealthHandler struct {
	sessions *services.SessionService
	registry *tools.Registry
	checks   map[string]HealthCheck
}

// NewHealthHandler creates a new health handler. checks maps a dependency
// name (mysql, mongodb, redis) to its ping; nil means no dependencies.
func NewHealthHandler(sessions *services.SessionService, registry *tools.Registry, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{sessions: sessions, registry: registry, checks: checks}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"
	code := fiber.StatusOK

	dependencies := make(map[string]string, len(h.checks))
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				dependencies[name] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
				continue
			}
			dependencies[name] = "ok"
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       status,
		"sessions":     h.sessions.Count(),
		"tools":        h.registry.Count(),
		"dependencies": dependencies,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}
