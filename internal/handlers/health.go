package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	Storage string
	started time.Time
}

// NewHealthHandler creates a new health handler. storage names the
// active persistence mode (PostgreSQL or In-Memory).
func NewHealthHandler(version, storage string) *HealthHandler {
	return &HealthHandler{
		Version: version,
		Storage: storage,
		started: time.Now(),
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "OK",
		"service": "EmyFlow Backend",
		"version": h.Version,
		"storage": h.Storage,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
