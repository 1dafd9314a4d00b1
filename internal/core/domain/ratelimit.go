package domain

import "time"

// RateDecision is the outcome of one rate-limit check for one key.
type RateDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the current window closes (fixed window) or when the
	// next token becomes available (token bucket).
	ResetAt time.Time
	// RetryAfter is zero when Allowed.
	RetryAfter time.Duration
}
