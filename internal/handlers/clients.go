package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/clients"
)

// ClientsHandler exposes client administration: registration, per-kind
// webhook configuration and secret key rotation.
type ClientsHandler struct {
	Service *clients.Service
	Logger  *zap.Logger
}

func NewClientsHandler(service *clients.Service, logger *zap.Logger) *ClientsHandler {
	return &ClientsHandler{
		Service: service,
		Logger:  logger,
	}
}

// List handles GET /admin/clients
func (h *ClientsHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	result, err := h.Service.FindAll(c.UserContext(), page, limit)
	if err != nil {
		h.Logger.Error("Failed to list clients", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch clients",
		})
	}

	return c.JSON(result)
}

// Get handles GET /admin/clients/:id
func (h *ClientsHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client id",
		})
	}

	client, err := h.Service.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}
		h.Logger.Error("Failed to fetch client", zap.String("id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch client",
		})
	}

	return c.JSON(client)
}

// Create handles POST /admin/clients
func (h *ClientsHandler) Create(c *fiber.Ctx) error {
	var input clients.CreateClientInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.AccountID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "accountId must be a positive integer",
		})
	}
	if input.AccountName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "accountName is required",
		})
	}

	client, err := h.Service.Create(c.UserContext(), input)
	if err != nil {
		h.Logger.Error("Failed to create client",
			zap.Int64("account_id", input.AccountID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create client",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(client)
}

// Update handles PATCH /admin/clients/:id
func (h *ClientsHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client id",
		})
	}

	var input clients.UpdateClientInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	client, err := h.Service.Update(c.UserContext(), id, input)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}
		h.Logger.Error("Failed to update client", zap.String("id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update client",
		})
	}

	return c.JSON(client)
}

// Delete handles DELETE /admin/clients/:id
func (h *ClientsHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client id",
		})
	}

	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}
		h.Logger.Error("Failed to delete client", zap.String("id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete client",
		})
	}

	return c.JSON(fiber.Map{"deleted": true})
}

// RegenerateKey handles POST /admin/clients/:id/regenerate-key
func (h *ClientsHandler) RegenerateKey(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client id",
		})
	}

	client, err := h.Service.RegenerateWebhookKey(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}
		h.Logger.Error("Failed to regenerate webhook key", zap.String("id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to regenerate webhook key",
		})
	}

	return c.JSON(client)
}

// UpdateConfigsRequest carries the per-kind enable flags to upsert.
type UpdateConfigsRequest struct {
	Configs []clients.WebhookConfigInput `json:"configs"`
}

// UpdateWebhookConfigs handles PUT /admin/clients/:id/webhook-configs
func (h *ClientsHandler) UpdateWebhookConfigs(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client id",
		})
	}

	var req UpdateConfigsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Configs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "configs must not be empty",
		})
	}
	for _, config := range req.Configs {
		if !config.EventType.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown event type: " + string(config.EventType),
			})
		}
	}

	configs, err := h.Service.UpdateWebhookConfigs(c.UserContext(), id, req.Configs)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}
		h.Logger.Error("Failed to update webhook configs", zap.String("id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update webhook configs",
		})
	}

	return c.JSON(configs)
}
