package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/models"
)

// ErrNotFound is returned when a client lookup by id misses.
var ErrNotFound = errors.New("client not found")

// Service manages registered clients and their per-event-kind webhook
// configuration. The relay core only consumes IsEventEnabled and
// FindIDByAccountID; the rest backs the admin API.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateClientInput struct {
	AccountID   int64  `json:"accountId"`
	AccountName string `json:"accountName"`
	Enabled     bool   `json:"enabled"`
}

type UpdateClientInput struct {
	AccountName *string `json:"accountName"`
	Enabled     *bool   `json:"enabled"`
}

type WebhookConfigInput struct {
	EventType models.EventKind `json:"eventType"`
	Enabled   bool             `json:"enabled"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type ListResult struct {
	Data       []models.Client `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// FindAll returns a page of clients with their webhook configs, newest first.
func (s *Service) FindAll(ctx context.Context, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Client{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}

	var list []models.Client
	err := s.db.WithContext(ctx).
		Preload("WebhookConfigs").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &ListResult{
		Data: list,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// FindByID returns one client with its webhook configs.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Preload("WebhookConfigs").
		First(&client, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return &client, nil
}

// Create registers a client and seeds one enabled webhook config per
// event kind, so new clients receive everything until configured otherwise.
func (s *Service) Create(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	secretKey, err := GenerateSecretKey()
	if err != nil {
		return nil, err
	}

	client := models.Client{
		ID:               uuid.New(),
		AccountID:        input.AccountID,
		AccountName:      input.AccountName,
		WebhookSecretKey: secretKey,
		Enabled:          input.Enabled,
	}
	for _, kind := range models.EventKinds {
		client.WebhookConfigs = append(client.WebhookConfigs, models.WebhookConfig{
			ID:        uuid.New(),
			ClientID:  client.ID,
			EventType: kind,
			Enabled:   true,
		})
	}

	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &client, nil
}

// Update changes the mutable client fields that are present in the input.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateClientInput) (*models.Client, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if input.AccountName != nil {
		updates["account_name"] = *input.AccountName
	}
	if input.Enabled != nil {
		updates["enabled"] = *input.Enabled
	}

	result := s.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update client: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.FindByID(ctx, id)
}

// Delete removes a client. Failed events keep their nullable link; the
// linkage is advisory display data only.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&models.WebhookConfig{}).Error; err != nil {
			return fmt.Errorf("failed to delete webhook configs: %w", err)
		}
		result := tx.Delete(&models.Client{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete client: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RegenerateWebhookKey replaces the client's webhook secret key.
func (s *Service) RegenerateWebhookKey(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	secretKey, err := GenerateSecretKey()
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"webhook_secret_key": secretKey,
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to regenerate webhook key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.FindByID(ctx, id)
}

// UpdateWebhookConfigs upserts the given per-kind enable flags in one
// transaction and returns the resulting config set.
func (s *Service) UpdateWebhookConfigs(ctx context.Context, clientID uuid.UUID, inputs []WebhookConfigInput) ([]models.WebhookConfig, error) {
	if _, err := s.FindByID(ctx, clientID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, input := range inputs {
			var existing models.WebhookConfig
			err := tx.Where("client_id = ? AND event_type = ?", clientID, input.EventType).
				First(&existing).Error
			switch {
			case err == nil:
				err = tx.Model(&models.WebhookConfig{}).
					Where("id = ?", existing.ID).
					Updates(map[string]interface{}{
						"enabled":    input.Enabled,
						"updated_at": time.Now().UTC(),
					}).Error
				if err != nil {
					return fmt.Errorf("failed to update webhook config: %w", err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				config := models.WebhookConfig{
					ID:        uuid.New(),
					ClientID:  clientID,
					EventType: input.EventType,
					Enabled:   input.Enabled,
				}
				if err := tx.Create(&config).Error; err != nil {
					return fmt.Errorf("failed to create webhook config: %w", err)
				}
			default:
				return fmt.Errorf("failed to load webhook config: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var configs []models.WebhookConfig
	if err := s.db.WithContext(ctx).Where("client_id = ?", clientID).Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to load webhook configs: %w", err)
	}
	return configs, nil
}

// IsEventEnabled reports whether webhooks of the given kind should be
// relayed for the account. A missing client, a disabled client or an
// unconfigured kind all mean false, never an error.
func (s *Service) IsEventEnabled(ctx context.Context, accountID int64, kind models.EventKind) (bool, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Preload("WebhookConfigs", "event_type = ?", kind).
		First(&client, "account_id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load client: %w", err)
	}

	if !client.Enabled {
		return false, nil
	}
	if len(client.WebhookConfigs) == 0 {
		return false, nil
	}
	return client.WebhookConfigs[0].Enabled, nil
}

// FindIDByAccountID returns the client record id for an account, or nil
// when the account is unknown. Used to link failed events to a client.
func (s *Service) FindIDByAccountID(ctx context.Context, accountID int64) (*uuid.UUID, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Select("id").
		First(&client, "account_id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find client by account id: %w", err)
	}
	id := client.ID
	return &id, nil
}

// ValidateWebhookKey checks the inbound webhook secret key for an account.
// Disabled and unknown accounts always fail validation.
func (s *Service) ValidateWebhookKey(ctx context.Context, accountID int64, key string) (bool, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Select("webhook_secret_key", "enabled").
		First(&client, "account_id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load client: %w", err)
	}

	if !client.Enabled {
		return false, nil
	}
	return client.WebhookSecretKey == key, nil
}
