package routes

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/handlers"
)

// Handlers groups the handler dependencies routes are wired to.
type Handlers struct {
	Health       *handlers.HealthHandler
	Webhook      *handlers.WebhookHandler
	Clients      *handlers.ClientsHandler
	FailedEvents *handlers.FailedEventsHandler
}

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, h Handlers, adminAPIKey string) {
	app.Get("/health", h.Health.HealthCheck)

	app.Post("/webhook/:accountId", h.Webhook.HandleWebhook)

	admin := app.Group("/admin", adminAuth(adminAPIKey))

	admin.Get("/clients", h.Clients.List)
	admin.Post("/clients", h.Clients.Create)
	admin.Get("/clients/:id", h.Clients.Get)
	admin.Patch("/clients/:id", h.Clients.Update)
	admin.Delete("/clients/:id", h.Clients.Delete)
	admin.Post("/clients/:id/regenerate-key", h.Clients.RegenerateKey)
	admin.Put("/clients/:id/webhook-configs", h.Clients.UpdateWebhookConfigs)

	admin.Get("/failed-events", h.FailedEvents.List)
	admin.Get("/failed-events/stats", h.FailedEvents.Stats)
	admin.Post("/failed-events/replay", h.FailedEvents.Replay)
	admin.Delete("/failed-events/:id", h.FailedEvents.Delete)
}

// adminAuth guards the admin API with a static X-API-Key header.
func adminAuth(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-API-Key")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing API key",
			})
		}
		return c.Next()
	}
}
