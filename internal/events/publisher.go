// Package events fans out counter increments to a message broker.
// Publishing is best effort: the increment is already committed when an event
// is sent, so callers log publish failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fleveque/counter-service/internal/config"
	"github.com/fleveque/counter-service/internal/model"
)

// IncrementedEvent is the payload published after every successful increment.
type IncrementedEvent struct {
	ID          int64     `json:"id"`
	Count       int64     `json:"count"`
	Timestamp   time.Time `json:"timestamp"`
	PublishedAt time.Time `json:"published_at"`
}

// NewIncrementedEvent builds the event for a freshly inserted record.
func NewIncrementedEvent(rec model.CounterRecord) IncrementedEvent {
	return IncrementedEvent{
		ID:          rec.ID,
		Count:       rec.Count,
		Timestamp:   rec.Timestamp,
		PublishedAt: time.Now().UTC(),
	}
}

func (e IncrementedEvent) encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling event: %w", err)
	}
	return body, nil
}

// Publisher sends increment events somewhere. Implementations must be safe
// for concurrent use.
type Publisher interface {
	PublishIncremented(ctx context.Context, event IncrementedEvent) error
	Close() error
}

// New builds the publisher selected by cfg.Driver. An empty driver or "none"
// returns a publisher that drops every event.
func New(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return Noop{}, nil
	case "amqp", "rabbitmq":
		return NewAMQPPublisher(cfg.URL, cfg.Topic)
	case "redis":
		return NewRedisPublisher(cfg.URL, cfg.Topic)
	default:
		return nil, fmt.Errorf("unknown events driver: %s", cfg.Driver)
	}
}

// Noop discards events.
type Noop struct{}

func (Noop) PublishIncremented(context.Context, IncrementedEvent) error { return nil }
func (Noop) Close() error { return nil }
