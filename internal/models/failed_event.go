package models

import (
	"time"

	"github.com/google/uuid"
)

// FailedEventPayload is the snapshot of everything needed to replay one
// failed publish. The item data is passed through untouched.
type FailedEventPayload struct {
	ResourceID    string         `json:"resourceId"`
	ResourceType  string         `json:"resourceType"`
	ItemData      map[string]any `json:"itemData"`
	OriginalTopic string         `json:"originalTopic"`
}

// FailedEvent is a durable record of a publish attempt that failed.
// Created by the webhook processor on first failure, updated by the retry
// scheduler on each failed retry, deleted on a successful retry.
type FailedEvent struct {
	ID         uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	ClientID   *uuid.UUID         `gorm:"type:uuid" json:"client_id"`
	Client     *Client            `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	AccountID  int64              `gorm:"not null;index" json:"account_id"`
	EventType  EventKind          `gorm:"not null;index" json:"event_type"`
	Payload    FailedEventPayload `gorm:"serializer:json;type:jsonb" json:"payload"`
	Error      string             `gorm:"not null" json:"error"`
	RetryCount int                `gorm:"not null;default:0" json:"retry_count"`
	NextRetry  time.Time          `gorm:"not null;index" json:"next_retry"`
	CreatedAt  time.Time          `gorm:"not null;index" json:"created_at"`
}

func (FailedEvent) TableName() string {
	return "failed_events"
}
