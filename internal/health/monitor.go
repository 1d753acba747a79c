// Package health watches the dependent backend service and keeps a
// process-wide availability flag that widens its own polling interval while
// the backend stays down.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agentdemo/llm-gateway/internal/backoff"
	"github.com/agentdemo/llm-gateway/internal/log"
)

const defaultProbeTimeout = 3 * time.Second

// Snapshot is a point-in-time copy of the monitor state, safe to serialize.
type Snapshot struct {
	Available           bool          `json:"available"`
	LastCheckedAt       time.Time     `json:"last_checked_at"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	PollInterval        time.Duration `json:"-"`
}

type Config struct {
	// URL of the backend's health endpoint; a 2xx response means healthy.
	URL string
	// BaseInterval is the poll interval while the backend is healthy.
	BaseInterval time.Duration
	// MaxInterval caps the widened interval during sustained failure.
	MaxInterval time.Duration
	// ProbeTimeout bounds each probe so a stuck backend cannot wedge the loop.
	ProbeTimeout time.Duration
}

// Monitor probes the backend on its own schedule. State starts pessimistic
// (unavailable) and is mutated only by the probe loop; everything else reads
// snapshots. Only one probe is ever in flight.
type Monitor struct {
	cfg    Config
	client *http.Client

	mu    sync.Mutex
	state Snapshot

	// trigger carries manual re-check requests; capacity 1 so triggers
	// received while a probe is running coalesce instead of stacking up.
	trigger chan struct{}
}

func NewMonitor(cfg Config) *Monitor {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	return &Monitor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.ProbeTimeout},
		state: Snapshot{
			Available:    false,
			PollInterval: cfg.BaseInterval,
		},
		trigger: make(chan struct{}, 1),
	}
}

// Start launches the probe loop. The first probe runs immediately; the loop
// stops when ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	go m.loop(ctx)
}

// Snapshot returns a copy of the current state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CheckNow asks the loop to probe immediately. If a probe is already running
// or pending the request is coalesced; CheckNow never blocks.
func (m *Monitor) CheckNow() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

func (m *Monitor) loop(ctx context.Context) {
	m.check(ctx)
	for {
		timer := time.NewTimer(m.Snapshot().PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.trigger:
			timer.Stop()
		case <-timer.C:
		}
		m.check(ctx)
	}
}

// check runs a single bounded probe and folds the outcome into the state.
func (m *Monitor) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	err := m.probe(probeCtx)
	checkedAt := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastCheckedAt = checkedAt
	if err != nil {
		m.state.Available = false
		m.state.LastError = err.Error()
		m.state.ConsecutiveFailures++
		m.state.PollInterval = backoff.Next(m.state.ConsecutiveFailures, m.cfg.BaseInterval, m.cfg.MaxInterval)
		log.Logger().Warn("backend health check failed",
			zap.Int("consecutive_failures", m.state.ConsecutiveFailures),
			zap.Duration("next_check_in", m.state.PollInterval),
			zap.Error(err))
		return
	}

	if !m.state.Available {
		log.Logger().Info("backend is available")
	}
	m.state.Available = true
	m.state.LastError = ""
	m.state.ConsecutiveFailures = 0
	m.state.PollInterval = m.cfg.BaseInterval
}

func (m *Monitor) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.URL, nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
