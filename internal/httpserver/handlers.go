package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agentdemo/llm-gateway/internal/health"
	"github.com/agentdemo/llm-gateway/internal/log"
	"github.com/agentdemo/llm-gateway/internal/upstream"
)

const unavailableMessage = "the model service is currently unavailable"

// StatusReporter is what the status handlers need from the monitor.
type StatusReporter interface {
	Snapshot() health.Snapshot
	CheckNow()
}

// Generator is what the generate handler needs from the model client.
type Generator interface {
	Complete(ctx context.Context, req upstream.CompletionRequest) (*upstream.Completion, error)
	Stream(ctx context.Context, req upstream.CompletionRequest, fn func(chunk []byte) error) error
}

type statusResponse struct {
	Available           bool      `json:"available"`
	LastCheckedAt       time.Time `json:"last_checked_at"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	PollIntervalSeconds int64     `json:"poll_interval_seconds"`
}

// NewStatusHandler reports the backend availability snapshot.
func NewStatusHandler(monitor StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := monitor.Snapshot()
		writeJSON(w, http.StatusOK, statusResponse{
			Available:           snapshot.Available,
			LastCheckedAt:       snapshot.LastCheckedAt.UTC(),
			LastError:           snapshot.LastError,
			ConsecutiveFailures: snapshot.ConsecutiveFailures,
			PollIntervalSeconds: int64(snapshot.PollInterval.Seconds()),
		})
	}
}

// NewRefreshHandler schedules an immediate backend re-check.
func NewRefreshHandler(monitor StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		monitor.CheckNow()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "check scheduled"})
	}
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

// NewGenerateHandler proxies a prompt to the model provider. Upstream
// failures surface as a generic 502; details stay in the logs.
func NewGenerateHandler(generator Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Prompt == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt is required"})
			return
		}

		completionReq := upstream.CompletionRequest{
			Prompt:      req.Prompt,
			Model:       req.Model,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		}

		if req.Stream {
			streamCompletion(w, r, generator, completionReq)
			return
		}

		completion, err := generator.Complete(r.Context(), completionReq)
		if err != nil {
			log.Logger().Error("completion request failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": unavailableMessage})
			return
		}
		writeJSON(w, http.StatusOK, completion)
	}
}

func streamCompletion(w http.ResponseWriter, r *http.Request, generator Generator, req upstream.CompletionRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": unavailableMessage})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	wroteChunk := false
	err := generator.Stream(r.Context(), req, func(chunk []byte) error {
		if _, err := w.Write(append(chunk, '\n')); err != nil {
			return err
		}
		flusher.Flush()
		wroteChunk = true
		return nil
	})
	if err != nil {
		log.Logger().Error("streaming completion failed", zap.Error(err))
		if !wroteChunk {
			// headers are not committed yet, so the client can still
			// get a proper status
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": unavailableMessage})
		}
		return
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Logger().Error("failed to write response body", zap.Error(err))
	}
}
