package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ensure that RedisCounter satisfies the Counter interface
var _ Counter = (*RedisCounter)(nil)

const connectTimeout = 5 * time.Second

// RedisCounter keeps counters in a shared Redis instance so rate limits stay
// consistent across concurrent server instances.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter connects to the Redis instance at url (redis://host:port)
// and verifies the connection with a bounded ping. Construction fails rather
// than degrades; the factory in this package decides the fallback policy.
func NewRedisCounter(url string) (*RedisCounter, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCounter{client: client}, nil
}

func (c *RedisCounter) Close() error {
	return c.client.Close()
}

func (c *RedisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

func (c *RedisCounter) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.Expire(ctx, key, ttl).Result()
}

func (c *RedisCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	// go-redis returns -1 for a key without expiry and -2 for a missing
	// key as raw durations, matching the TTLNone/TTLMissing sentinels.
	return c.client.TTL(ctx, key).Result()
}
