// Package service contains the counter business logic. It sits between the
// HTTP handlers and the repository, translating store failures into
// ErrStoreUnavailable and fanning out increment events.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/counter-service/internal/events"
	"github.com/fleveque/counter-service/internal/metrics"
	"github.com/fleveque/counter-service/internal/model"
	"github.com/fleveque/counter-service/internal/storage"
)

// ErrStoreUnavailable covers every failure of the underlying store: connection
// loss, query errors, constraint violations. Callers match it with errors.Is.
var ErrStoreUnavailable = errors.New("store unavailable")

// publishTimeout caps how long an increment waits on the event publisher. The
// row is already committed by then, so a slow broker only costs the event.
const publishTimeout = 2 * time.Second

// CounterService exposes the three counter operations.
type CounterService struct {
	repo           storage.CounterRepository
	publisher      events.Publisher
	publishTimeout time.Duration
	logger         *zap.Logger
}

// NewCounterService wires the service. publisher may be nil, in which case
// increments are not published anywhere.
func NewCounterService(repo storage.CounterRepository, publisher events.Publisher, logger *zap.Logger) *CounterService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &CounterService{
		repo:           repo,
		publisher:      publisher,
		publishTimeout: publishTimeout,
		logger:         logger,
	}
}

// GetCount returns the current count, 0 when nothing has been recorded yet.
func (s *CounterService) GetCount(ctx context.Context) (int64, error) {
	count, err := s.repo.Current(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get_count").Inc()
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	metrics.CounterValue.Set(float64(count))
	return count, nil
}

// Increment appends current+1 to the history and reports the new value with
// its store-assigned timestamp.
func (s *CounterService) Increment(ctx context.Context) (*model.IncrementResult, error) {
	rec, err := s.repo.Increment(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("increment").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	metrics.CounterIncrements.Inc()
	metrics.CounterValue.Set(float64(rec.Count))

	pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.publisher.PublishIncremented(pubCtx, events.NewIncrementedEvent(*rec)); err != nil {
		s.logger.Warn("publishing increment event",
			zap.Int64("count", rec.Count),
			zap.Error(err),
		)
	}

	return &model.IncrementResult{Count: rec.Count, Timestamp: rec.Timestamp}, nil
}

// History returns the most recent records, newest first, at most model.HistoryLimit.
func (s *CounterService) History(ctx context.Context) ([]model.CounterRecord, error) {
	records, err := s.repo.History(ctx, model.HistoryLimit)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("history").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return records, nil
}

// Ready reports whether the store answers.
func (s *CounterService) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
