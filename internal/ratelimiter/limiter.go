// Package ratelimiter implements the fixed-window request limiter that gates
// calls to the externally billed model endpoint.
package ratelimiter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agentdemo/llm-gateway/internal/log"
	"github.com/agentdemo/llm-gateway/internal/store"
)

const keyPrefix = "ratelimit:"

// Decision is the per-request result of a limiter check. It is derived, not
// persisted, and recomputed on every call.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// FixedWindow counts requests per identity within fixed, non-overlapping
// windows. Limit and window length are constants for the deployment.
//
// When the counter store itself fails the limiter fails OPEN: blocking all
// traffic because Redis is unreachable would be worse than letting a few
// extra requests through a demo endpoint.
type FixedWindow struct {
	counter store.Counter
	limit   int64
	window  time.Duration
	timeNow func() time.Time
}

func NewFixedWindow(counter store.Counter, limit int64, window time.Duration, now func() time.Time) *FixedWindow {
	if now == nil {
		now = time.Now
	}
	return &FixedWindow{
		counter: counter,
		limit:   limit,
		window:  window,
		timeNow: now,
	}
}

// Check records one request for identity and decides whether it may proceed.
func (l *FixedWindow) Check(ctx context.Context, identity string) Decision {
	key := keyPrefix + identity

	count, err := l.counter.Incr(ctx, key)
	if err != nil {
		log.Logger().Error("failed to increment request counter, failing open",
			zap.String("identity", identity), zap.Error(err))
		return l.openDecision()
	}

	ttl := l.window
	if count == 1 {
		// new window: bound it so the key cannot persist forever
		if _, err := l.counter.Expire(ctx, key, l.window); err != nil {
			log.Logger().Error("failed to set window expiry, failing open",
				zap.String("identity", identity), zap.Error(err))
			return l.openDecision()
		}
	} else {
		remaining, err := l.counter.TTL(ctx, key)
		switch {
		case err != nil:
			log.Logger().Error("failed to read window expiry, failing open",
				zap.String("identity", identity), zap.Error(err))
			return l.openDecision()
		case remaining == store.TTLNone || remaining == store.TTLMissing:
			// a failed or raced expire left the key unbounded; cap it now
			if _, err := l.counter.Expire(ctx, key, l.window); err != nil {
				log.Logger().Error("failed to set window expiry, failing open",
					zap.String("identity", identity), zap.Error(err))
				return l.openDecision()
			}
		default:
			ttl = remaining
		}
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   l.timeNow().Add(ttl),
	}
}

// openDecision pretends the failed request opened a fresh window.
func (l *FixedWindow) openDecision() Decision {
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - 1,
		ResetAt:   l.timeNow().Add(l.window),
	}
}
