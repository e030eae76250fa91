package retry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phumblot-gs/gs-webhook-2-events/internal/config"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/models"
	"github.com/phumblot-gs/gs-webhook-2-events/internal/stream"
)

// EventStore is the view of the failed-event store the scheduler needs.
type EventStore interface {
	DueBatch(ctx context.Context, maxRetries int) ([]models.FailedEvent, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.FailedEvent, error)
	FindPending(ctx context.Context, maxRetries int) ([]models.FailedEvent, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkRetryFailure(ctx context.Context, id uuid.UUID, retryCount int, errMsg string, nextRetry time.Time) error
}

// EventPublisher publishes one envelope to the stream API.
type EventPublisher interface {
	PublishEvent(ctx context.Context, input stream.EventInput) *stream.PublishResult
}

// ReplayResult counts the outcome of one retry pass.
type ReplayResult struct {
	Replayed int `json:"replayed"`
	Failed   int `json:"failed"`
}

// Scheduler re-publishes failed events on a fixed interval. It owns its
// ticker and cancellation handle; the process lifecycle owner starts and
// stops it. A single active instance is assumed.
type Scheduler struct {
	store      EventStore
	publisher  EventPublisher
	interval   time.Duration
	maxRetries int
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.Mutex
	started bool
}

func NewScheduler(store EventStore, publisher EventPublisher, cfg *config.RetryConfig, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:      store,
		publisher:  publisher,
		interval:   cfg.Interval,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the retry loop. The first pass runs immediately so
// failures are not left unattended for a full interval after a restart.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.logger.Warn("Retry scheduler already running")
		return
	}
	s.started = true

	s.logger.Info("Starting retry scheduler",
		zap.Duration("interval", s.interval),
		zap.Int("max_retries", s.maxRetries),
	)

	s.wg.Add(1)
	go s.run()
}

// Stop cancels the loop and waits for an in-flight pass to finish, so no
// record update is cut off mid-write.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("Retry scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	result, err := s.RunPending(s.ctx)
	if err != nil {
		s.logger.Error("Retry pass failed", zap.Error(err))
		return
	}
	if result.Replayed > 0 || result.Failed > 0 {
		s.logger.Info("Retry pass completed",
			zap.Int("replayed", result.Replayed),
			zap.Int("failed", result.Failed),
		)
	}
}

// RunPending replays the batch of records currently due for retry,
// strictly one at a time.
func (s *Scheduler) RunPending(ctx context.Context) (*ReplayResult, error) {
	events, err := s.store.DueBatch(ctx, s.maxRetries)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return &ReplayResult{}, nil
	}

	s.logger.Info("Processing pending failed events", zap.Int("count", len(events)))
	return s.replayAll(ctx, events), nil
}

// Replay is the on-demand recovery path: an explicit id list, or every
// pending record when all is set. Records selected by id are replayed
// even when exhausted or not yet due.
func (s *Scheduler) Replay(ctx context.Context, ids []uuid.UUID, all bool) (*ReplayResult, error) {
	var events []models.FailedEvent
	var err error

	switch {
	case all:
		events, err = s.store.FindPending(ctx, s.maxRetries)
	case len(ids) > 0:
		events, err = s.store.FindByIDs(ctx, ids)
	default:
		return &ReplayResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	return s.replayAll(ctx, events), nil
}

func (s *Scheduler) replayAll(ctx context.Context, events []models.FailedEvent) *ReplayResult {
	result := &ReplayResult{}
	for _, event := range events {
		if s.replayEvent(ctx, event) {
			result.Replayed++
		} else {
			result.Failed++
		}
	}
	return result
}

// replayEvent re-publishes one record from its payload snapshot. Success
// deletes the record; failure counts the attempt and reschedules it with
// exponential backoff.
func (s *Scheduler) replayEvent(ctx context.Context, event models.FailedEvent) bool {
	streamEventType, ok := event.EventType.StreamEventType()
	if !ok {
		// Schema drift: the stored kind is no longer recognized. Retrying
		// can never succeed, so drop the record instead of spinning on it.
		s.logger.Error("Unknown event type for replay, deleting record",
			zap.String("id", event.ID.String()),
			zap.String("event_type", string(event.EventType)),
		)
		if err := s.store.Delete(ctx, event.ID); err != nil {
			s.logger.Error("Failed to delete drifted failed event",
				zap.String("id", event.ID.String()),
				zap.Error(err),
			)
		}
		return false
	}

	snapshot := event.Payload
	eventPayload := make(map[string]any, len(snapshot.ItemData)+3)
	for k, v := range snapshot.ItemData {
		eventPayload[k] = v
	}
	eventPayload["originalTopic"] = snapshot.OriginalTopic
	eventPayload["originalType"] = snapshot.ResourceType
	eventPayload["isReplay"] = true

	result := s.publisher.PublishEvent(ctx, stream.EventInput{
		AccountID:    event.AccountID,
		EventType:    streamEventType,
		ResourceType: snapshot.ResourceType,
		ResourceID:   snapshot.ResourceID,
		Payload:      eventPayload,
	})

	if result.Success {
		if err := s.store.Delete(ctx, event.ID); err != nil {
			// The publish went through; the stale record will be retried
			// and deduplicated downstream
			s.logger.Error("Failed to delete replayed event",
				zap.String("id", event.ID.String()),
				zap.Error(err),
			)
		}
		s.logger.Debug("Failed event replayed successfully",
			zap.String("id", event.ID.String()),
		)
		return true
	}

	newRetryCount := event.RetryCount + 1
	errMsg := result.Error
	if errMsg == "" {
		errMsg = "Unknown error"
	}
	nextRetry := time.Now().UTC().Add(RetryDelay(newRetryCount))

	if err := s.store.MarkRetryFailure(ctx, event.ID, newRetryCount, errMsg, nextRetry); err != nil {
		s.logger.Error("Failed to reschedule failed event",
			zap.String("id", event.ID.String()),
			zap.Error(err),
		)
		return false
	}

	s.logger.Warn("Failed to replay event, scheduled for retry",
		zap.String("id", event.ID.String()),
		zap.Int("retry_count", newRetryCount),
		zap.Time("next_retry", nextRetry),
	)
	return false
}
