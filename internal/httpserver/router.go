package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter assembles the gateway routes. Status endpoints stay outside the
// limiter so a throttled client can still see why the backend looks down.
func NewRouter(limiter Limiter, extractor Extractor, monitor StatusReporter, generator Generator) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/status", NewStatusHandler(monitor))
	r.Post("/api/status/refresh", NewRefreshHandler(monitor))

	r.Group(func(gr chi.Router) {
		gr.Use(NewRateLimitMiddleware(limiter, extractor))
		gr.Post("/api/generate", NewGenerateHandler(generator))
	})

	return r
}
