// Package ratelimit holds the in-process rate limiter implementations.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/expensehub/gateway/internal/core/domain"
)

type Option func(*clock)

type clock struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *clock) { c.now = now }
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// FixedWindow counts requests per key in windows that open on a key's first
// request. A client may pass up to 2×limit requests across a window boundary.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clock   clock
	windows map[string]*windowState
}

type windowState struct {
	start time.Time
	count int
}

func NewFixedWindow(limit int, window time.Duration, opts ...Option) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		window:  window,
		clock:   newClock(opts),
		windows: make(map[string]*windowState),
	}
}

func (f *FixedWindow) Allow(_ context.Context, key string) (domain.RateDecision, error) {
	now := f.clock.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.windows[key]
	if st == nil || !now.Before(st.start.Add(f.window)) {
		st = &windowState{start: now}
		f.windows[key] = st
	}

	resetAt := st.start.Add(f.window)
	if st.count >= f.limit {
		return domain.RateDecision{
			Allowed:    false,
			Limit:      f.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	st.count++
	return domain.RateDecision{
		Allowed:   true,
		Limit:     f.limit,
		Remaining: f.limit - st.count,
		ResetAt:   resetAt,
	}, nil
}

// Run evicts expired windows every interval until ctx is cancelled.
// A non-positive interval defaults to the window length.
func (f *FixedWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = f.window
	}
	runJanitor(ctx, interval, f.evictExpired)
}

func (f *FixedWindow) evictExpired() int {
	now := f.clock.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	evicted := 0
	for key, st := range f.windows {
		if !now.Before(st.start.Add(f.window)) {
			delete(f.windows, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked keys.
func (f *FixedWindow) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

func runJanitor(ctx context.Context, interval time.Duration, sweep func() int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
