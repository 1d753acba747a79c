package store

import (
	"time"

	"go.uber.org/zap"

	"github.com/agentdemo/llm-gateway/internal/log"
)

// New builds the counter store for the process: Redis when reachable, the
// in-memory fallback otherwise. The choice is made once at startup; callers
// only ever see the Counter interface. Falling back trades cross-instance
// consistency for availability, which is acceptable for this demo limiter.
func New(redisURL string) Counter {
	counter, err := NewRedisCounter(redisURL)
	if err != nil {
		log.Logger().Warn("redis unavailable, using in-memory counters",
			zap.String("url", redisURL),
			zap.Error(err))
		return NewMemoryCounter(time.Now)
	}
	return counter
}
