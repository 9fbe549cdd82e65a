package api

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"backoffice/internal/config"
)

const (
	apiKeyHeader     = "X-API-Key"
	clientKeyUnknown = "unknown"
)

// HTTPAuth provides API-key auth and per-key rate limiting for the bookings API.
type HTTPAuth struct {
	keys    [][]byte
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return &HTTPAuth{keys: keys, limiter: newRateLimiter(cfg.RateLimit)}
}

// Enabled reports whether any API key is configured.
func (a *HTTPAuth) Enabled() bool {
	return len(a.keys) > 0
}

// Middleware rejects requests without a known key and throttles each key separately.
func (a *HTTPAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(apiKeyHeader))
		if key == "" {
			writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}
		if !a.known(key) {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		if !a.limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) known(key string) bool {
	found := false
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
			found = true
		}
	}
	return found
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}
