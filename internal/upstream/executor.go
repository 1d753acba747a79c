// Package upstream issues outbound HTTP calls to the model provider with
// bounded retries on transient failures.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentdemo/llm-gateway/internal/backoff"
	"github.com/agentdemo/llm-gateway/internal/log"
)

const (
	headerRequestID = "X-Request-Id"

	// maxErrorBodyBytes bounds how much of a failed response is read while
	// looking for a server-provided error message.
	maxErrorBodyBytes = 8 << 10

	genericErrorMessage = "upstream request failed"
)

// Request describes one outbound call. The body is held as bytes so failed
// attempts can be replayed.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Error is what callers see when the upstream ultimately fails. Message is
// normalized (server-provided message, then transport error, then a generic
// fallback) so low-level internals never leak to the end caller.
type Error struct {
	StatusCode int // zero when no response was ever received
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Executor sends requests with up to maxRetries retries on transient
// failures: transport errors, 429 and 5xx responses. Other 4xx responses
// fail immediately. Each attempt is bounded by the client's own timeout,
// which is independent of the retry cap.
type Executor struct {
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewExecutor(client *http.Client, maxRetries int, baseDelay, maxDelay time.Duration) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Executor{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// Do executes r, retrying transient failures, and returns the successful
// response with its body still open. The caller owns closing the body.
func (e *Executor) Do(ctx context.Context, r *Request) (*http.Response, error) {
	requestID := uuid.NewString()

	var lastErr *Error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff.Next(attempt-1, e.baseDelay, e.maxDelay)
			log.Logger().Info("retrying upstream request",
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			if err := sleep(ctx, delay); err != nil {
				return nil, &Error{Message: genericErrorMessage}
			}
		}

		resp, err := e.attempt(ctx, r, requestID)
		if err != nil {
			// transport-level failure with no response: retryable
			lastErr = &Error{Message: normalizeMessage(nil, err)}
			log.Logger().Warn("upstream request failed",
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			body := readErrorBody(resp)
			lastErr = &Error{StatusCode: resp.StatusCode, Message: normalizeMessage(body, nil)}
			log.Logger().Warn("upstream returned retryable status",
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt+1),
				zap.Int("status", resp.StatusCode))
			continue
		}

		if resp.StatusCode >= 400 {
			// non-retryable rejection, surface immediately
			body := readErrorBody(resp)
			return nil, &Error{StatusCode: resp.StatusCode, Message: normalizeMessage(body, nil)}
		}

		return resp, nil
	}

	if lastErr == nil {
		lastErr = &Error{Message: genericErrorMessage}
	}
	return nil, lastErr
}

func (e *Executor) attempt(ctx context.Context, r *Request, requestID string) (*http.Response, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}
	for key, values := range r.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set(headerRequestID, requestID)

	return e.client.Do(req)
}

// readErrorBody drains and closes a failed response so the connection can be
// reused, keeping at most maxErrorBodyBytes for message extraction.
func readErrorBody(resp *http.Response) []byte {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return body
}

// normalizeMessage picks the most useful human-readable message: the
// server-provided one when the body carries it, then the transport error,
// then a generic fallback.
func normalizeMessage(body []byte, transportErr error) string {
	if msg := messageFromBody(body); msg != "" {
		return msg
	}
	if transportErr != nil {
		return transportErr.Error()
	}
	return genericErrorMessage
}

func messageFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Error) > 0 {
		var errString string
		if json.Unmarshal(payload.Error, &errString) == nil && errString != "" {
			return errString
		}
		var errObject struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &errObject) == nil && errObject.Message != "" {
			return errObject.Message
		}
	}

	return payload.Message
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("wait for retry: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
