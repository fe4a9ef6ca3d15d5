package middleware

import (
	"crypto/subtle"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// ValidateWebhookSecret checks the shared secret the messaging provider is
// configured to send with every webhook delivery
func ValidateWebhookSecret() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := os.Getenv("WEBHOOK_SECRET")
		if secret == "" {
			// Log error but don't expose to client
			log.Println("ERROR: WEBHOOK_SECRET not set")
			return c.Status(500).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		provided := c.Get("X-Webhook-Secret")
		if provided == "" {
			return c.Status(401).JSON(fiber.Map{
				"error": "Missing webhook secret",
			})
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return c.Status(401).JSON(fiber.Map{
				"error": "Invalid webhook secret",
			})
		}

		return c.Next()
	}
}
