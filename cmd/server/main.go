package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/agentdemo/llm-gateway/internal/config"
	"github.com/agentdemo/llm-gateway/internal/health"
	"github.com/agentdemo/llm-gateway/internal/httpserver"
	"github.com/agentdemo/llm-gateway/internal/log"
	"github.com/agentdemo/llm-gateway/internal/ratelimiter"
	"github.com/agentdemo/llm-gateway/internal/store"
	"github.com/agentdemo/llm-gateway/internal/upstream"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	defer func() { _ = log.Logger().Sync() }()

	// counter store is chosen once: Redis when reachable, in-process
	// fallback otherwise
	counter := store.New(cfg.RedisURL)
	if redisCounter, ok := counter.(*store.RedisCounter); ok {
		defer func() { _ = redisCounter.Close() }()
	}

	limiter := ratelimiter.NewFixedWindow(counter, cfg.RateLimitRequests, cfg.RateLimitWindow, time.Now)

	monitor := health.NewMonitor(health.Config{
		URL:          cfg.HealthURL,
		BaseInterval: cfg.HealthBaseInterval,
		MaxInterval:  cfg.HealthMaxInterval,
		ProbeTimeout: cfg.HealthProbeTimeout,
	})

	executor := upstream.NewExecutor(
		&http.Client{Timeout: cfg.UpstreamTimeout},
		cfg.MaxRetries,
		cfg.RetryBaseDelay,
		cfg.RetryMaxDelay,
	)
	llmClient := upstream.NewClient(cfg.LLMEndpoint, cfg.LLMAPIKey, executor)

	router := httpserver.NewRouter(limiter, httpserver.NewClientIPExtractor(), monitor, llmClient)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Logger().Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Logger().Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Logger().Fatal("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Logger().Error("graceful shutdown failed", zap.Error(err))
	}
}
