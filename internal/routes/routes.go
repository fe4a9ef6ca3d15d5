package routes

import (
	"os"

	"github.com/emyflow/emyflow-backend/internal/handlers"
	"github.com/emyflow/emyflow-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles everything SetupRoutes needs to mount
type Handlers struct {
	Webhook   *handlers.WebhookHandler
	Tenants   *handlers.TenantHandler
	Analytics *handlers.AnalyticsHandler
	Health    *handlers.HealthHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to EmyFlow Backend!",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":  "/health",
				"webhook": "/webhooks/whatsapp",
				"admin":   "/api/admin",
			},
		})
	})

	app.Get("/health", h.Health.Check)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhooks")

	// WhatsApp webhook - ENVIRONMENT-AWARE VALIDATION
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		// Development: Skip validation for ngrok
		webhooks.Post("/whatsapp", h.Webhook.HandleWebhook)
		app.Post("/webhook/wassenger", h.Webhook.HandleWebhook)
		if os.Getenv("ENVIRONMENT") == "development" {
			println("⚠️  WhatsApp webhook validation DISABLED for development")
		}
	} else {
		// Production: Validate shared secret header
		webhooks.Post("/whatsapp", middleware.ValidateWebhookSecret(), h.Webhook.HandleWebhook)
		// Legacy alias kept for devices configured against the old path
		app.Post("/webhook/wassenger", middleware.ValidateWebhookSecret(), h.Webhook.HandleWebhook)
	}

	// ========== ADMIN ROUTES ==========
	admin := app.Group("/api/admin")

	clients := admin.Group("/clients")
	clients.Get("/", h.Tenants.List)
	clients.Post("/", h.Tenants.Create)
	clients.Get("/:slug", h.Tenants.Get)
	clients.Put("/:slug", h.Tenants.Update)
	clients.Delete("/:slug", h.Tenants.Delete)
	clients.Get("/:slug/analytics", h.Analytics.Summary)
}
