package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleveque/counter-service/internal/config"
	"github.com/fleveque/counter-service/internal/model"
)

func TestNew_SelectsDriver(t *testing.T) {
	p, err := New(config.EventsConfig{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	p, err = New(config.EventsConfig{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	p, err = New(config.EventsConfig{Driver: "amqp", Topic: "counter.incremented"})
	require.NoError(t, err)
	assert.IsType(t, &AMQPPublisher{}, p)
	assert.NoError(t, p.Close(), "closing a never-dialed publisher")

	p, err = New(config.EventsConfig{Driver: "redis", URL: "redis://localhost:6379/0", Topic: "counter.incremented"})
	require.NoError(t, err)
	assert.IsType(t, &RedisPublisher{}, p)
	assert.NoError(t, p.Close())

	_, err = New(config.EventsConfig{Driver: "kafka"})
	assert.Error(t, err)
}

func TestNew_RejectsBadSettings(t *testing.T) {
	_, err := New(config.EventsConfig{Driver: "amqp"})
	assert.Error(t, err, "empty queue name")

	_, err = New(config.EventsConfig{Driver: "redis", URL: "not a url", Topic: "t"})
	assert.Error(t, err)
}

func TestIncrementedEvent_Encode(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	event := NewIncrementedEvent(model.CounterRecord{ID: 7, Count: 42, Timestamp: ts})

	body, err := event.encode()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.EqualValues(t, 7, decoded["id"])
	assert.EqualValues(t, 42, decoded["count"])
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["timestamp"])
	assert.Contains(t, decoded, "published_at")
}

func TestRedisPublisher_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	p := NewRedisPublisherWithClient(client, "counter.incremented")
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := p.PublishIncremented(ctx, IncrementedEvent{Count: 1})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishIncremented(context.Background(), IncrementedEvent{}))
	assert.NoError(t, p.Close())
}
