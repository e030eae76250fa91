package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/models"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/stream"
)

// firstRetryDelay is how long after the initial failure the retry job
// first picks a record up.
const firstRetryDelay = 60 * time.Second

// ClientDirectory is the narrow view of the client service the processor
// needs: the per-kind enable gate and the client linkage lookup.
type ClientDirectory interface {
	IsEventEnabled(ctx context.Context, accountID int64, kind models.EventKind) (bool, error)
	FindIDByAccountID(ctx context.Context, accountID int64) (*uuid.UUID, error)
}

// EventPublisher publishes one envelope to the stream API.
type EventPublisher interface {
	PublishEvent(ctx context.Context, input stream.EventInput) *stream.PublishResult
}

// FailureRecorder persists failed publishes for later retry.
type FailureRecorder interface {
	Create(ctx context.Context, event *models.FailedEvent) error
}

// ProcessResult aggregates the per-item outcomes of one inbound webhook.
// Partial success is normal: some ids published, others recorded as failed.
type ProcessResult struct {
	Success   bool     `json:"success"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// Processor fans one inbound webhook payload out into one stream publish
// per referenced resource id.
type Processor struct {
	directory ClientDirectory
	publisher EventPublisher
	failures  FailureRecorder
	logger    *zap.Logger
}

func NewProcessor(directory ClientDirectory, publisher EventPublisher, failures FailureRecorder, logger *zap.Logger) *Processor {
	return &Processor{
		directory: directory,
		publisher: publisher,
		failures:  failures,
		logger:    logger,
	}
}

// itemOutcome is the result of publishing a single resource id.
type itemOutcome struct {
	resourceID string
	result     *stream.PublishResult
}

// Process relays one validated webhook payload. The returned error covers
// infrastructure failures on the enable-check only; per-item publish
// failures are folded into the result and recorded durably, never raised.
func (p *Processor) Process(ctx context.Context, accountID int64, payload *models.WebhookPayload) (*ProcessResult, error) {
	kind, ok := models.EventKindForTopic(payload.Topic)
	if !ok {
		p.logger.Warn("Unknown topic received",
			zap.String("topic", payload.Topic),
			zap.Int64("account_id", accountID),
		)
		return &ProcessResult{
			Success: false,
			Errors:  []string{fmt.Sprintf("Unknown topic: %s", payload.Topic)},
		}, nil
	}

	enabled, err := p.directory.IsEventEnabled(ctx, accountID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to check event config: %w", err)
	}
	if !enabled {
		p.logger.Info("Event type disabled for client, skipping",
			zap.Int64("account_id", accountID),
			zap.String("event_type", string(kind)),
		)
		return &ProcessResult{Success: true, Errors: []string{}}, nil
	}

	// The kind came out of the topic table, so the wire mapping is total here
	streamEventType, _ := kind.StreamEventType()

	outcomes := make([]itemOutcome, 0, len(payload.IDs))
	for _, id := range payload.IDs {
		resourceID := id.String()
		itemData := payload.ItemData(id)

		eventPayload := make(map[string]any, len(itemData)+2)
		for k, v := range itemData {
			eventPayload[k] = v
		}
		eventPayload["originalTopic"] = payload.Topic
		eventPayload["originalType"] = payload.Type

		result := p.publisher.PublishEvent(ctx, stream.EventInput{
			AccountID:    accountID,
			EventType:    streamEventType,
			ResourceType: payload.Type,
			ResourceID:   resourceID,
			Payload:      eventPayload,
		})
		outcomes = append(outcomes, itemOutcome{resourceID: resourceID, result: result})

		if !result.Success {
			p.saveFailedEvent(ctx, accountID, kind, payload, resourceID, itemData, result.Error)
		}
	}

	processResult := foldOutcomes(payload.Type, outcomes)

	p.logger.Info("Webhook processed",
		zap.Int64("account_id", accountID),
		zap.String("event_type", string(kind)),
		zap.Int("processed", processResult.Processed),
		zap.Int("failed", processResult.Failed),
		zap.Int("total", len(payload.IDs)),
	)

	return processResult, nil
}

// foldOutcomes reduces the per-item outcomes, in payload order, into one
// immutable result.
func foldOutcomes(resourceType string, outcomes []itemOutcome) *ProcessResult {
	result := &ProcessResult{Errors: []string{}}
	for _, outcome := range outcomes {
		if outcome.result.Success {
			result.Processed++
			continue
		}
		result.Failed++
		errMsg := outcome.result.Error
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		result.Errors = append(result.Errors,
			fmt.Sprintf("Failed to publish event for %s %s: %s", resourceType, outcome.resourceID, errMsg))
	}
	result.Success = result.Failed == 0
	return result
}

// saveFailedEvent captures everything needed to replay the publish later.
// Storage errors are logged and swallowed: the webhook response must
// reflect the publish outcome, not the bookkeeping.
func (p *Processor) saveFailedEvent(
	ctx context.Context,
	accountID int64,
	kind models.EventKind,
	payload *models.WebhookPayload,
	resourceID string,
	itemData map[string]any,
	errMsg string,
) {
	if errMsg == "" {
		errMsg = "Unknown error"
	}

	clientID, err := p.directory.FindIDByAccountID(ctx, accountID)
	if err != nil {
		p.logger.Warn("Failed to resolve client for failed event",
			zap.Int64("account_id", accountID),
			zap.Error(err),
		)
		clientID = nil
	}

	event := &models.FailedEvent{
		ClientID:  clientID,
		AccountID: accountID,
		EventType: kind,
		Payload: models.FailedEventPayload{
			ResourceID:    resourceID,
			ResourceType:  payload.Type,
			ItemData:      itemData,
			OriginalTopic: payload.Topic,
		},
		Error:      errMsg,
		RetryCount: 0,
		NextRetry:  time.Now().UTC().Add(firstRetryDelay),
	}

	if err := p.failures.Create(ctx, event); err != nil {
		p.logger.Error("Failed to save failed event",
			zap.Int64("account_id", accountID),
			zap.String("event_type", string(kind)),
			zap.Error(err),
		)
	}
}
