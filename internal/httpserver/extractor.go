// Package httpserver wires the limiter, monitor and model client into an
// HTTP surface.
package httpserver

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Extractor derives the rate-limiting identity from an HTTP request. It must
// not cause side effects (in particular it must not read the body).
type Extractor interface {
	Extract(r *http.Request) (string, error)
}

type clientIPExtractor struct{}

// NewClientIPExtractor identifies clients by IP, honoring proxy headers
// before falling back to the connection's remote address.
func NewClientIPExtractor() Extractor {
	return clientIPExtractor{}
}

func (clientIPExtractor) Extract(r *http.Request) (string, error) {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		// first hop is the original client
		return strings.TrimSpace(strings.Split(forwarded, ",")[0]), nil
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP, nil
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
			return addr, nil
		}
		return "", fmt.Errorf("unable to determine client address")
	}
	return host, nil
}
