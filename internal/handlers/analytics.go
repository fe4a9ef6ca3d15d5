package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/emyflow/emyflow-backend/internal/storage"
)

// AnalyticsHandler serves per-tenant funnel summaries
type AnalyticsHandler struct {
	store storage.Store
}

// NewAnalyticsHandler creates an analytics handler
func NewAnalyticsHandler(store storage.Store) *AnalyticsHandler {
	return &AnalyticsHandler{store: store}
}

// Summary returns event counts by type for one tenant
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	slug := c.Params("slug")

	if _, err := h.store.GetTenantBySlug(slug); err != nil {
		return tenantError(c, err)
	}

	summary, err := h.store.GetAnalyticsSummary(slug)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"slug":   slug,
		"events": summary,
	})
}
