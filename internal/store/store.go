// Package store provides the counter storage used by the rate limiter: an
// abstract Counter backed either by a shared Redis instance or by an
// in-process map when Redis cannot be reached.
package store

import (
	"context"
	"time"
)

// TTL sentinels follow the Redis convention so callers never need to know
// which implementation they are talking to.
const (
	// TTLNone means the key exists but carries no expiry.
	TTLNone = time.Duration(-1)
	// TTLMissing means the key does not exist.
	TTLMissing = time.Duration(-2)
)

// Counter is an atomic counter with TTL-based expiry.
type Counter interface {
	// Incr creates key at 1 if absent, otherwise adds 1, and returns the
	// post-increment value. Atomic under concurrent callers.
	Incr(ctx context.Context, key string) (int64, error)

	// Expire sets an expiry ttl in the future on an existing key,
	// overwriting any previous expiry. Reports whether the key existed.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// TTL returns the remaining time before key expires, TTLNone when the
	// key has no expiry, or TTLMissing when the key does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
