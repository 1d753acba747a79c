package store

import (
	"context"
	"sync"
	"time"
)

var _ Counter = (*MemoryCounter)(nil)

type entry struct {
	count  int64
	expiry time.Time // zero means no expiry set
}

// MemoryCounter is the in-process fallback used when Redis cannot be
// constructed. It honors the same contract as RedisCounter, including the
// TTL sentinels, but is only consistent within a single process.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewMemoryCounter(now func() time.Time) *MemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounter{
		entries: make(map[string]*entry),
		now:     now,
	}
}

func (c *MemoryCounter) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.live(key)
	if e == nil {
		e = &entry{}
		c.entries[key] = e
	}
	e.count++
	return e.count, nil
}

func (c *MemoryCounter) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.live(key)
	if e == nil {
		return false, nil
	}
	e.expiry = c.now().Add(ttl)
	return true, nil
}

func (c *MemoryCounter) TTL(_ context.Context, key string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.live(key)
	if e == nil {
		return TTLMissing, nil
	}
	if e.expiry.IsZero() {
		return TTLNone, nil
	}
	return e.expiry.Sub(c.now()), nil
}

// live returns the entry for key, lazily evicting it when its expiry has
// passed. Callers must hold mu.
func (c *MemoryCounter) live(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if !e.expiry.IsZero() && !e.expiry.After(c.now()) {
		delete(c.entries, key)
		return nil
	}
	return e
}
