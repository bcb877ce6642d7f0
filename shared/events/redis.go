package events

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/redis/go-redis/v9"
)

const defaultStream = "posts"

type RedisConfig struct {
	Addr   string
	Stream string
}

// NewRedisConfig reads REDIS_ADDR and POSTS_STREAM. An empty Addr disables publishing.
func NewRedisConfig() *RedisConfig {
	stream := os.Getenv("POSTS_STREAM")
	if stream == "" {
		stream = defaultStream
	}
	return &RedisConfig{
		Addr:   os.Getenv("REDIS_ADDR"),
		Stream: stream,
	}
}

// streamAdder is the part of the redis client the publisher needs.
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisPublisher appends post events to a Redis stream.
type RedisPublisher struct {
	client streamAdder
	stream string
	now    func() time.Time
}

var _ domain.EventPublisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		stream: stream,
		now:    time.Now,
	}
}

// Connect builds a client for cfg and verifies it with PING.
func Connect(ctx context.Context, cfg *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, evt domain.PostEvent) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":   string(evt.Type),
			"postId": evt.PostID,
			"at":     p.now().UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s for post %s: %w", evt.Type, evt.PostID, err)
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

var _ domain.EventPublisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, domain.PostEvent) error {
	return nil
}
