package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(serverURL string) *Client {
	exec := NewExecutor(&http.Client{Timeout: time.Second}, 0, time.Millisecond, time.Millisecond)
	return NewClient(serverURL, "test-key", exec)
}

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var req CompletionRequest
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Prompt)
		assert.False(t, req.Stream)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Completion{Text: "hi there"})
	}))
	defer server.Close()

	completion, err := newTestClient(server.URL).Complete(context.Background(), CompletionRequest{
		Prompt:    "hello",
		Model:     "demo-model",
		MaxTokens: 64,
	})
	assert.Nil(t, err)
	assert.Equal(t, "hi there", completion.Text)
}

func TestClient_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CompletionRequest
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		_, _ = w.Write([]byte("first chunk\nsecond chunk\n\nthird chunk\n"))
	}))
	defer server.Close()

	var chunks []string
	err := newTestClient(server.URL).Stream(context.Background(), CompletionRequest{Prompt: "hello"}, func(chunk []byte) error {
		chunks = append(chunks, string(chunk))
		return nil
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"first chunk", "second chunk", "third chunk"}, chunks)
}

func TestClient_StreamCallbackStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("one\ntwo\nthree\n"))
	}))
	defer server.Close()

	stop := errors.New("enough")
	var seen int
	err := newTestClient(server.URL).Stream(context.Background(), CompletionRequest{Prompt: "hello"}, func(chunk []byte) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	assert.True(t, errors.Is(err, stop))
	assert.Equal(t, 2, seen)
}

func TestClient_UpstreamRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), CompletionRequest{Prompt: "hello"})

	var upstreamErr *Error
	assert.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
	assert.Equal(t, "invalid api key", upstreamErr.Message)
}
