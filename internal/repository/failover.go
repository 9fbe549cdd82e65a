package repository

import (
	"context"
	"sync"
	"time"

	"backoffice/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverRateLimiter uses primary until it errors, then fallback, probing the
// primary again once per recoveryInterval.
type FailoverRateLimiter struct {
	primary  domain.RateLimiter
	fallback domain.RateLimiter
	logger   *zerolog.Logger

	mu        sync.Mutex
	isDown    bool
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverRateLimiter) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isDown {
		return true
	}
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverRateLimiter) markDown() {
	r.mu.Lock()
	r.isDown = true
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverRateLimiter) markUp() {
	r.mu.Lock()
	wasDown := r.isDown
	r.isDown = false
	r.mu.Unlock()
	if wasDown {
		r.logger.Info().Msg("Primary rate limiter recovered")
	}
}

// Degraded reports whether calls currently go to the fallback.
func (r *FailoverRateLimiter) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDown
}

func (r *FailoverRateLimiter) CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error) {
	if r.primary != nil && r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, chatID, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("Primary rate limiter failed, falling back to memory")
		r.markDown()
	}

	return r.fallback.CheckRateLimit(ctx, chatID, limit, window)
}
