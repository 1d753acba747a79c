package upstream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// CompletionRequest is the payload sent to the model provider. The provider
// is treated as opaque JSON over HTTP.
type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Stream      bool    `json:"stream,omitempty"`
}

type Completion struct {
	Text string `json:"text"`
}

// Client calls the model provider through the retrying executor. It is
// constructed once at startup and shared.
type Client struct {
	endpoint string
	apiKey   string
	exec     *Executor
}

func NewClient(endpoint, apiKey string, exec *Executor) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		exec:     exec,
	}
}

// Complete sends a non-streaming completion request.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	req.Stream = false
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var completion Completion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	return &completion, nil
}

// Stream sends a streaming completion request and calls fn once per chunk
// (one chunk per response line). Returning an error from fn stops the stream.
func (c *Client) Stream(ctx context.Context, req CompletionRequest, fn func(chunk []byte) error) error {
	req.Stream = true
	resp, err := c.post(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read completion stream: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, req CompletionRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return c.exec.Do(ctx, &Request{
		Method: http.MethodPost,
		URL:    c.endpoint,
		Header: header,
		Body:   body,
	})
}
