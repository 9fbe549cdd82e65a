package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how failed ledger tasks are rescheduled.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy is used for every field left at zero.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:    5,
	InitialDelay:  2 * time.Second,
	MaxDelay:      time.Minute,
	BackoffFactor: 2,
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = DefaultRetryPolicy.MaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = DefaultRetryPolicy.InitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = DefaultRetryPolicy.BackoffFactor
	}
	return r
}

// Exhausted reports whether a task that failed on the given attempt (1-based)
// should be dead-lettered instead of retried.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.withDefaults().MaxRetries
}

// NextDelay returns the wait before the given attempt (1-based), capped at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	r = r.withDefaults()

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	if delay <= 0 || delay > float64(r.MaxDelay) {
		return r.MaxDelay
	}
	return time.Duration(delay)
}
