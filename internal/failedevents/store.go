package failedevents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/models"
)

// dueBatchLimit caps how many records a single retry tick picks up.
const dueBatchLimit = 100

// Store is the durable record of publish attempts that failed. It is
// written by the webhook request path and read/updated/deleted by the
// retry scheduler; every mutation is scoped to a single row by id.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListQuery selects a page of failed events, optionally filtered.
type ListQuery struct {
	Page      int
	Limit     int
	AccountID *int64
	EventType *models.EventKind
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type ListResult struct {
	Data       []models.FailedEvent `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

// Stats are count-based statistics over the whole table. Pending counts
// records still eligible for automatic retry, MaxRetries the exhausted ones.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	MaxRetries int64 `json:"maxRetries"`
}

// Create inserts one failed event record.
func (s *Store) Create(ctx context.Context, event *models.FailedEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create failed event: %w", err)
	}
	return nil
}

// List returns a page of failed events ordered newest-first, with the
// linked client preloaded for display.
func (s *Store) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = 20
	}

	// Re-applied per query: gorm chains are not safe to reuse across finishers
	filtered := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.FailedEvent{})
		if query.AccountID != nil {
			q = q.Where("account_id = ?", *query.AccountID)
		}
		if query.EventType != nil {
			q = q.Where("event_type = ?", *query.EventType)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count failed events: %w", err)
	}

	var events []models.FailedEvent
	err := filtered().
		Preload("Client").
		Order("created_at DESC").
		Limit(query.Limit).
		Offset((query.Page - 1) * query.Limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list failed events: %w", err)
	}

	totalPages := total / int64(query.Limit)
	if total%int64(query.Limit) != 0 {
		totalPages++
	}

	return &ListResult{
		Data: events,
		Pagination: Pagination{
			Page:       query.Page,
			Limit:      query.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// DueBatch returns up to 100 records due for retry: nextRetry has passed
// and the retry budget is not exhausted. Ordered by nextRetry so the
// longest-overdue records go first.
func (s *Store) DueBatch(ctx context.Context, maxRetries int) ([]models.FailedEvent, error) {
	var events []models.FailedEvent
	err := s.db.WithContext(ctx).
		Where("next_retry <= ? AND retry_count < ?", time.Now().UTC(), maxRetries).
		Order("next_retry ASC").
		Limit(dueBatchLimit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due failed events: %w", err)
	}
	return events, nil
}

// FindByIDs returns the records matching the given ids, regardless of
// retry state. Used by on-demand replay.
func (s *Store) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.FailedEvent, error) {
	var events []models.FailedEvent
	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch failed events by ids: %w", err)
	}
	return events, nil
}

// FindPending returns every record still eligible for retry, without the
// due-time filter. Used by on-demand "replay all".
func (s *Store) FindPending(ctx context.Context, maxRetries int) ([]models.FailedEvent, error) {
	var events []models.FailedEvent
	err := s.db.WithContext(ctx).
		Where("retry_count < ?", maxRetries).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending failed events: %w", err)
	}
	return events, nil
}

// Delete removes one record by id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.FailedEvent{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete failed event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkRetryFailure records one more failed attempt in a single atomic
// row update.
func (s *Store) MarkRetryFailure(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, nextRetry time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&models.FailedEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count": retryCount,
			"error":       errMsg,
			"next_retry":  nextRetry,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update failed event: %w", err)
	}
	return nil
}

// CountStats returns total/pending/exhausted counts.
func (s *Store) CountStats(ctx context.Context, maxRetries int) (*Stats, error) {
	stats := &Stats{}
	model := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.FailedEvent{})
	}

	if err := model().Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count failed events: %w", err)
	}
	if err := model().Where("retry_count < ?", maxRetries).Count(&stats.Pending).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending failed events: %w", err)
	}
	if err := model().Where("retry_count >= ?", maxRetries).Count(&stats.MaxRetries).Error; err != nil {
		return nil, fmt.Errorf("failed to count exhausted failed events: %w", err)
	}

	return stats, nil
}
