package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.Nil(t, err)

	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, int64(10), cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 3*time.Second, cfg.HealthProbeTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "25")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("REDIS_URL", "redis://redis.internal:6379")

	cfg, err := Load()
	assert.Nil(t, err)

	assert.Equal(t, int64(25), cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, "redis://redis.internal:6379", cfg.RedisURL)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "0")

	_, err := Load()
	assert.NotNil(t, err)
}

func TestLoad_RejectsMalformedDuration(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "sixty seconds")

	_, err := Load()
	assert.NotNil(t, err)
}
