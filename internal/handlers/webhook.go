package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/clients"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/models"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/webhook"
)

// WebhookHandler receives inbound Grand Shooting webhooks
type WebhookHandler struct {
	Clients   *clients.Service
	Processor *webhook.Processor
	Logger    *zap.Logger
}

func NewWebhookHandler(clientsSvc *clients.Service, processor *webhook.Processor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		Clients:   clientsSvc,
		Processor: processor,
		Logger:    logger,
	}
}

// HandleWebhook handles POST /webhook/:accountId?key=...
// The response always reflects per-item success/failure counts; downstream
// unavailability never turns into a hard failure for the caller.
func (h *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	accountID, err := strconv.ParseInt(c.Params("accountId"), 10, 64)
	if err != nil || accountID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account ID",
		})
	}

	key := c.Query("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing or invalid key parameter",
		})
	}

	valid, err := h.Clients.ValidateWebhookKey(c.UserContext(), accountID, key)
	if err != nil {
		h.Logger.Error("Failed to validate webhook key",
			zap.Int64("account_id", accountID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
	if !valid {
		h.Logger.Warn("Invalid webhook secret key",
			zap.Int64("account_id", accountID),
		)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid secret key",
		})
	}

	var payload models.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		h.Logger.Warn("Invalid webhook payload",
			zap.Int64("account_id", accountID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payload",
		})
	}
	if err := payload.Validate(); err != nil {
		h.Logger.Warn("Invalid webhook payload",
			zap.Int64("account_id", accountID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payload",
		})
	}

	// The URL account id wins; a mismatch is suspicious but not fatal
	if payload.AccountID != accountID {
		h.Logger.Warn("Account ID mismatch between URL and payload",
			zap.Int64("url_account_id", accountID),
			zap.Int64("payload_account_id", payload.AccountID),
		)
	}

	result, err := h.Processor.Process(c.UserContext(), accountID, &payload)
	if err != nil {
		h.Logger.Error("Failed to process webhook",
			zap.Int64("account_id", accountID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success":   result.Success,
		"processed": result.Processed,
		"failed":    result.Failed,
	})
}
