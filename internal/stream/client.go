package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/config"
)

const (
	AppName    = "gs-webhook-2-events"
	AppVersion = "1.0.0"

	// Non-2xx response bodies are captured into the failure record; keep
	// them bounded so a misbehaving downstream cannot bloat the table.
	maxErrorBodySize = 4096
)

// Event is the normalized envelope sent to gs-stream-api.
type Event struct {
	EventID   string         `json:"eventId"`
	EventType string         `json:"eventType"`
	Timestamp string         `json:"timestamp"`
	Source    EventSource    `json:"source"`
	Actor     EventActor     `json:"actor"`
	Scope     EventScope     `json:"scope"`
	Payload   map[string]any `json:"payload"`
	Metadata  map[string]any `json:"metadata"`
}

type EventSource struct {
	Application string `json:"application"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type EventActor struct {
	UserID    string `json:"userId"`
	AccountID string `json:"accountId"`
	Role      string `json:"role"`
}

type EventScope struct {
	AccountID    string `json:"accountId"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
}

// EventInput is what callers provide; the client owns envelope construction.
type EventInput struct {
	AccountID    int64
	EventType    string
	ResourceType string
	ResourceID   string
	Payload      map[string]any
}

// PublishResult classifies a single publish attempt. EventID is set even on
// failure so attempts can be correlated in logs.
type PublishResult struct {
	Success bool
	EventID string
	Error   string
}

// Client publishes events to gs-stream-api. It performs exactly one HTTP
// call per PublishEvent; retrying is the retry scheduler's responsibility.
type Client struct {
	baseURL     string
	token       string
	environment string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a stream API client with a request-level timeout.
func NewClient(cfg *config.StreamAPIConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     cfg.URL,
		token:       cfg.Token,
		environment: cfg.Environment,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// PublishEvent sends one event envelope to the stream API.
// Any non-2xx status or transport error yields Success=false; the caller
// decides whether to record the failure for retry.
func (c *Client) PublishEvent(ctx context.Context, input EventInput) *PublishResult {
	eventID := uuid.NewString()
	accountIDUUID := FormatAccountID(input.AccountID)

	event := Event{
		EventID:   eventID,
		EventType: input.EventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source: EventSource{
			Application: AppName,
			Version:     AppVersion,
			Environment: c.environment,
		},
		Actor: EventActor{
			UserID:    SystemUserID,
			AccountID: accountIDUUID,
			Role:      "system",
		},
		Scope: EventScope{
			AccountID:    accountIDUUID,
			ResourceType: input.ResourceType,
			ResourceID:   input.ResourceID,
		},
		Payload:  input.Payload,
		Metadata: map[string]any{},
	}

	body, err := json.Marshal(event)
	if err != nil {
		return &PublishResult{
			Success: false,
			EventID: eventID,
			Error:   fmt.Sprintf("failed to marshal event: %v", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/events", bytes.NewReader(body))
	if err != nil {
		return &PublishResult{
			Success: false,
			EventID: eventID,
			Error:   fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection refused, timeout, DNS failure
		c.logger.Error("Error publishing event to stream API",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return &PublishResult{
			Success: false,
			EventID: eventID,
			Error:   err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if readErr != nil {
			c.logger.Warn("Failed to read stream API error response",
				zap.String("event_id", eventID),
				zap.Error(readErr),
			)
		}
		c.logger.Error("Failed to publish event to stream API",
			zap.Int("status", resp.StatusCode),
			zap.String("event_id", eventID),
			zap.String("response", string(errorBody)),
		)
		return &PublishResult{
			Success: false,
			EventID: eventID,
			Error:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(errorBody)),
		}
	}

	c.logger.Debug("Event published successfully",
		zap.String("event_id", eventID),
		zap.String("event_type", input.EventType),
	)
	return &PublishResult{
		Success: true,
		EventID: eventID,
	}
}
