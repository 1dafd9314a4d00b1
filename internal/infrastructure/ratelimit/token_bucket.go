package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/expensehub/gateway/internal/core/domain"
)

// TokenBucket gives every key a bucket of limit tokens refilled evenly over
// window. Unlike FixedWindow it has no boundary burst.
type TokenBucket struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	every   rate.Limit
	idleTTL time.Duration
	clock   clock
	buckets map[string]*bucket
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewTokenBucket(limit int, window time.Duration, opts ...Option) *TokenBucket {
	return &TokenBucket{
		limit:   limit,
		window:  window,
		every:   rate.Every(window / time.Duration(limit)),
		idleTTL: window,
		clock:   newClock(opts),
		buckets: make(map[string]*bucket),
	}
}

func (t *TokenBucket) Allow(_ context.Context, key string) (domain.RateDecision, error) {
	now := t.clock.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.buckets[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(t.every, t.limit)}
		t.buckets[key] = b
	}
	b.lastSeen = now

	res := b.lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return domain.RateDecision{
			Allowed:    false,
			Limit:      t.limit,
			Remaining:  0,
			ResetAt:    now.Add(delay),
			RetryAfter: delay,
		}, nil
	}

	tokens := b.lim.TokensAt(now)
	return domain.RateDecision{
		Allowed:   true,
		Limit:     t.limit,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now.Add(t.refillTime(tokens)),
	}, nil
}

// refillTime is how long until the bucket is full again.
func (t *TokenBucket) refillTime(tokens float64) time.Duration {
	missing := float64(t.limit) - tokens
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / float64(t.every) * float64(time.Second))
}

// Run evicts buckets idle for a full window until ctx is cancelled.
func (t *TokenBucket) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = t.window
	}
	runJanitor(ctx, interval, t.evictIdle)
}

func (t *TokenBucket) evictIdle() int {
	now := t.clock.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for key, b := range t.buckets {
		if now.Sub(b.lastSeen) >= t.idleTTL {
			delete(t.buckets, key)
			evicted++
		}
	}
	return evicted
}

func (t *TokenBucket) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}
