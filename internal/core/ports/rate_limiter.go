package ports

import (
	"context"

	"github.com/expensehub/gateway/internal/core/domain"
)

// RateLimiter counts one request against key and decides whether it may pass.
// A non-nil error means the decision could not be made.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (domain.RateDecision, error)
}
