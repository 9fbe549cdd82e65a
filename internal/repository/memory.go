package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type chatLimiter struct {
	limiter *rate.Limiter
	limit   int
	window  time.Duration
}

// MemoryRateLimiter keeps one token bucket per chat in process memory.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*chatLimiter
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{limiters: make(map[int64]*chatLimiter)}
}

// CheckRateLimit allows up to limit events per window, refilled evenly.
func (r *MemoryRateLimiter) CheckRateLimit(_ context.Context, chatID int64, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}

	r.mu.Lock()
	entry, ok := r.limiters[chatID]
	if !ok || entry.limit != limit || entry.window != window {
		entry = &chatLimiter{
			limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
			limit:   limit,
			window:  window,
		}
		r.limiters[chatID] = entry
	}
	r.mu.Unlock()

	return entry.limiter.Allow(), nil
}
