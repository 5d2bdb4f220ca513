// File: internal/scheduler/backoff.go
package scheduler

import (
	"math"
	"time"
)

// DefaultMaxBackoff caps the retry delay for a failing monitor.
const DefaultMaxBackoff = 300 * time.Second

// BackoffManager escalates retry delay for monitors with consecutive
// failures. The error state it produces is informational: a monitor keeps
// being scheduled, just at the backed-off cadence.
type BackoffManager struct {
	maxDelay time.Duration
}

// NewBackoffManager creates a backoff manager with the given cap
func NewBackoffManager(maxDelay time.Duration) *BackoffManager {
	if maxDelay <= 0 {
		maxDelay = DefaultMaxBackoff
	}
	return &BackoffManager{maxDelay: maxDelay}
}

// Delay returns the retry delay for the given consecutive failure count:
// 2^n seconds, capped at the configured maximum.
func (b *BackoffManager) Delay(consecutiveFailures int) time.Duration {
	if consecutiveFailures <= 0 {
		return 0
	}

	// Guard the shift: past the cap exponent the result saturates anyway
	if consecutiveFailures > 30 {
		return b.maxDelay
	}

	delay := time.Duration(math.Pow(2, float64(consecutiveFailures))) * time.Second
	if delay > b.maxDelay {
		return b.maxDelay
	}
	return delay
}
