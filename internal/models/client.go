package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a Grand Shooting account registered to have its webhooks
// relayed to the stream API.
type Client struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AccountID        int64           `gorm:"not null;uniqueIndex" json:"account_id"`
	AccountName      string          `gorm:"not null" json:"account_name"`
	WebhookSecretKey string          `gorm:"not null" json:"webhook_secret_key"`
	Enabled          bool            `gorm:"not null;default:true" json:"enabled"`
	WebhookConfigs   []WebhookConfig `gorm:"foreignKey:ClientID" json:"webhook_configs,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

// WebhookConfig is the per-client enable flag for one event kind.
type WebhookConfig struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_webhook_configs_client_event" json:"client_id"`
	EventType EventKind `gorm:"not null;uniqueIndex:idx_webhook_configs_client_event" json:"event_type"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (WebhookConfig) TableName() string {
	return "webhook_configs"
}
