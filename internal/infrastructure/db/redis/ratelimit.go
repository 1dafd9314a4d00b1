package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/expensehub/gateway/internal/core/domain"
)

const rateLimitPrefix = "ratelimit"

// FixedWindowLimiter counts requests per key in Redis so that several gateway
// replicas share one budget. Windows are aligned to multiples of the window
// length since the Unix epoch.
// Key format: ratelimit:<key>:<window_index>
type FixedWindowLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	now    func() time.Time
}

type LimiterOption func(*FixedWindowLimiter)

func WithClock(now func() time.Time) LimiterOption {
	return func(l *FixedWindowLimiter) { l.now = now }
}

func NewFixedWindowLimiter(client redis.Cmdable, limit int, window time.Duration, opts ...LimiterOption) *FixedWindowLimiter {
	l := &FixedWindowLimiter{client: client, limit: limit, window: window, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow increments the key's counter and sets its TTL in one MULTI/EXEC.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (domain.RateDecision, error) {
	now := l.now()
	idx := now.UnixNano() / int64(l.window)
	resetAt := time.Unix(0, (idx+1)*int64(l.window))

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, l.key(key, idx))
		pipe.Expire(ctx, l.key(key, idx), l.window)
		return nil
	})
	if err != nil {
		return domain.RateDecision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := int(incr.Val())
	d := domain.RateDecision{
		Limit:   l.limit,
		ResetAt: resetAt,
	}
	if count > l.limit {
		d.RetryAfter = resetAt.Sub(now)
		return d, nil
	}
	d.Allowed = true
	d.Remaining = l.limit - count
	return d, nil
}

func (l *FixedWindowLimiter) key(key string, idx int64) string {
	return fmt.Sprintf("%s:%s:%d", rateLimitPrefix, key, idx)
}
