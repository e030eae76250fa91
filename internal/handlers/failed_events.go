package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/failedevents"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/models"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/retry"
)

// FailedEventsHandler exposes the operator surface over the failure store
// and the on-demand replay.
type FailedEventsHandler struct {
	Store      *failedevents.Store
	Scheduler  *retry.Scheduler
	MaxRetries int
	Logger     *zap.Logger
}

func NewFailedEventsHandler(store *failedevents.Store, scheduler *retry.Scheduler, maxRetries int, logger *zap.Logger) *FailedEventsHandler {
	return &FailedEventsHandler{
		Store:      store,
		Scheduler:  scheduler,
		MaxRetries: maxRetries,
		Logger:     logger,
	}
}

// List handles GET /admin/failed-events
// Query parameters: page, limit, account_id, event_type (all optional)
func (h *FailedEventsHandler) List(c *fiber.Ctx) error {
	query := failedevents.ListQuery{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 20),
	}

	if accountIDStr := c.Query("account_id"); accountIDStr != "" {
		accountID, err := strconv.ParseInt(accountIDStr, 10, 64)
		if err != nil || accountID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "account_id must be a positive integer",
			})
		}
		query.AccountID = &accountID
	}

	if eventTypeStr := c.Query("event_type"); eventTypeStr != "" {
		kind := models.EventKind(eventTypeStr)
		if !kind.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown event_type",
			})
		}
		query.EventType = &kind
	}

	result, err := h.Store.List(c.UserContext(), query)
	if err != nil {
		h.Logger.Error("Failed to list failed events", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch failed events",
		})
	}

	return c.JSON(result)
}

// Stats handles GET /admin/failed-events/stats
func (h *FailedEventsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.Store.CountStats(c.UserContext(), h.MaxRetries)
	if err != nil {
		h.Logger.Error("Failed to compute failed event stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch stats",
		})
	}

	return c.JSON(stats)
}

// ReplayRequest selects which failed events to replay: an explicit id
// list, or every pending record when all is true.
type ReplayRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// Replay handles POST /admin/failed-events/replay
func (h *FailedEventsHandler) Replay(c *fiber.Ctx) error {
	var req ReplayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, idStr := range req.IDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid event id: " + idStr,
			})
		}
		ids = append(ids, id)
	}

	result, err := h.Scheduler.Replay(c.UserContext(), ids, req.All)
	if err != nil {
		h.Logger.Error("Failed to replay failed events", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to replay events",
		})
	}

	return c.JSON(result)
}

// Delete handles DELETE /admin/failed-events/:id
func (h *FailedEventsHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid event id",
		})
	}

	if err := h.Store.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Failed event not found",
			})
		}
		h.Logger.Error("Failed to delete failed event",
			zap.String("id", id.String()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete event",
		})
	}

	return c.JSON(fiber.Map{"deleted": true})
}
