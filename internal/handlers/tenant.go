package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emyflow/emyflow-backend/internal/models"
	"github.com/emyflow/emyflow-backend/internal/storage"
)

// TenantHandler serves the admin CRUD for tenant configuration
type TenantHandler struct {
	store storage.Store
}

// NewTenantHandler creates a tenant admin handler
func NewTenantHandler(store storage.Store) *TenantHandler {
	return &TenantHandler{store: store}
}

// List returns all configured tenants
func (h *TenantHandler) List(c *fiber.Ctx) error {
	tenants, err := h.store.GetAllTenants()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(tenants)
}

// Get returns one tenant by slug
func (h *TenantHandler) Get(c *fiber.Ctx) error {
	tenant, err := h.store.GetTenantBySlug(c.Params("slug"))
	if err != nil {
		return tenantError(c, err)
	}
	return c.JSON(tenant)
}

// Create registers a new tenant
func (h *TenantHandler) Create(c *fiber.Ctx) error {
	var tenant models.Tenant
	if err := c.BodyParser(&tenant); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tenant payload",
		})
	}
	if msg := validateTenant(&tenant); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	created, err := h.store.CreateTenant(&tenant)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update replaces a tenant's configuration
func (h *TenantHandler) Update(c *fiber.Ctx) error {
	var tenant models.Tenant
	if err := c.BodyParser(&tenant); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tenant payload",
		})
	}
	tenant.Slug = c.Params("slug")
	if msg := validateTenant(&tenant); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": msg,
		})
	}

	if err := h.store.UpdateTenant(&tenant); err != nil {
		return tenantError(c, err)
	}
	return c.JSON(tenant)
}

// Delete removes a tenant
func (h *TenantHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.DeleteTenant(c.Params("slug")); err != nil {
		return tenantError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func validateTenant(t *models.Tenant) string {
	if t.Slug == "" {
		return "slug is required"
	}
	if t.Timezone == "" {
		return "timezone is required"
	}
	if _, err := time.LoadLocation(t.Timezone); err != nil {
		return "invalid IANA timezone"
	}
	if t.Strategy != "" && t.Strategy != models.StrategyGlobal && t.Strategy != models.StrategyPerLocation {
		return "availability_strategy must be GLOBAL or PER_LOCATION"
	}
	return ""
}

func tenantError(c *fiber.Ctx, err error) error {
	if errors.Is(err, models.ErrTenantNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Tenant not found",
		})
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
