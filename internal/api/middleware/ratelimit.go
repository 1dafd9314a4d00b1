package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/expensehub/gateway/internal/api/metrics"
	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/internal/core/ports"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimit counts each request against its client key: the client IP, scoped
// by a hash of the API key when one was sent. A limiter failure rejects the
// request.
func RateLimit(limiter ports.RateLimiter, apiKeyHeader string, skipper echomiddleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			ctx := c.Request().Context()
			key := clientKey(c, apiKeyHeader)

			d, err := limiter.Allow(ctx, key)
			if err != nil {
				metrics.RateLimitDecisionsTotal.WithLabelValues("error").Inc()
				zerolog.Ctx(ctx).Error().Err(err).Msg("rate limiter unavailable")
				return fmt.Errorf("rate limit: %w", err)
			}

			h := c.Response().Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
			h.Set(HeaderRateLimitReset, strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				metrics.RateLimitDecisionsTotal.WithLabelValues("limited").Inc()
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(d)))
				return domain.ErrRateLimited
			}

			metrics.RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()
			advance(c, StageRateChecked)
			return next(c)
		}
	}
}

// clientKey is "ip:<addr>" or "ip:<addr>|key:<hash>". Every admitted request
// carries the same API key, so the IP is what separates clients.
func clientKey(c echo.Context, apiKeyHeader string) string {
	key := "ip:" + c.RealIP()
	if k := c.Request().Header.Get(apiKeyHeader); k != "" {
		sum := sha256.Sum256([]byte(k))
		key += "|key:" + hex.EncodeToString(sum[:8])
	}
	return key
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d domain.RateDecision) int {
	s := int(math.Ceil(d.RetryAfter.Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}
