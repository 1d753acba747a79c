package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/agentdemo/llm-gateway/internal/ratelimiter"
)

const (
	headerLimit     = "X-Ratelimit-Limit"
	headerRemaining = "X-Ratelimit-Remaining"
	headerReset     = "X-Ratelimit-Reset"

	rateLimitExceededMessage = "you have sent too many requests to this service, slow down please"
)

// Limiter is the decision interface the middleware depends on.
type Limiter interface {
	Check(ctx context.Context, identity string) ratelimiter.Decision
}

// NewRateLimitMiddleware wraps a handler with rate limiting. Quota headers
// are set on allow and deny alike so clients always know where they stand;
// on deny the wrapped handler is never called.
func NewRateLimitMiddleware(limiter Limiter, extractor Extractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := extractor.Extract(r)
			if err != nil {
				http.Error(w, "unable to identify client for rate limiting", http.StatusBadRequest)
				return
			}

			decision := limiter.Check(r.Context(), identity)

			w.Header().Set(headerLimit, strconv.FormatInt(decision.Limit, 10))
			w.Header().Set(headerRemaining, strconv.FormatInt(decision.Remaining, 10))
			w.Header().Set(headerReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))

			if !decision.Allowed {
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(rateLimitExceededMessage))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
