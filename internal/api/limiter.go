package api

import (
	"sync"

	"backoffice/internal/config"

	"golang.org/x/time/rate"
)

// rateLimiter hands out one token bucket per client key.
type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rps      float64
	burst    int
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &rateLimiter{rps: cfg.RPS, burst: burst}
}

// allow reports whether key may make another request now. A non-positive rate disables limiting.
func (l *rateLimiter) allow(key string) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	return l.getLimiter(key).Allow()
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, _ := l.limiters.LoadOrStore(key, lim)
	return actual.(*rate.Limiter)
}
