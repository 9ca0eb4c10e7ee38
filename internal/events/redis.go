package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisURL = "redis://localhost:6379/0"

// RedisPublisher publishes events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher parses a redis:// or rediss:// URL. go-redis connects
// lazily, so an unreachable server only shows up as publish errors.
func NewRedisPublisher(url, channel string) (*RedisPublisher, error) {
	if url == "" {
		url = defaultRedisURL
	}
	if channel == "" {
		return nil, fmt.Errorf("redis publisher: empty channel name")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisPublisherWithClient(redis.NewClient(opt), channel), nil
}

// NewRedisPublisherWithClient wraps an existing client.
func NewRedisPublisherWithClient(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) PublishIncremented(ctx context.Context, event IncrementedEvent) error {
	body, err := event.encode()
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.channel, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
