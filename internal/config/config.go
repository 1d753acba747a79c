// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the gateway. All values are fixed at process
// start; there is no runtime reconfiguration.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// RedisURL points at the shared counter store. When Redis cannot be
	// reached the store falls back to in-process counters, so a missing
	// value is never fatal.
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	RateLimitRequests int64         `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`

	HealthURL          string        `env:"BACKEND_HEALTH_URL" envDefault:"http://localhost:3001/health"`
	HealthBaseInterval time.Duration `env:"HEALTH_BASE_INTERVAL" envDefault:"30s"`
	HealthMaxInterval  time.Duration `env:"HEALTH_MAX_INTERVAL" envDefault:"5m"`
	HealthProbeTimeout time.Duration `env:"HEALTH_PROBE_TIMEOUT" envDefault:"3s"`

	LLMEndpoint     string        `env:"LLM_API_URL" envDefault:"http://localhost:3001/api/llm"`
	LLMAPIKey       string        `env:"LLM_API_KEY"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"60s"`
	MaxRetries      int           `env:"UPSTREAM_MAX_RETRIES" envDefault:"2"`
	RetryBaseDelay  time.Duration `env:"UPSTREAM_RETRY_BASE" envDefault:"500ms"`
	RetryMaxDelay   time.Duration `env:"UPSTREAM_RETRY_MAX" envDefault:"8s"`
}

// Load reads .env when present, then the environment. Malformed values are
// fatal; missing ones fall back to the defaults above.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.RateLimitRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", cfg.RateLimitRequests)
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.RateLimitWindow)
	}

	return cfg, nil
}
