package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/expensehub/gateway/internal/core/domain"
)

// APIKey rejects requests whose header does not carry the configured key.
// The comparison runs in constant time.
func APIKey(header, key string, skipper echomiddleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomiddleware.DefaultSkipper
	}
	want := []byte(key)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			got := c.Request().Header.Get(header)
			if got == "" {
				return domain.ErrMissingAPIKey
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				return domain.ErrInvalidAPIKey
			}

			advance(c, StageKeyChecked)
			return next(c)
		}
	}
}

// ProbeSkipper exempts health and metrics endpoints from the gate.
func ProbeSkipper(paths ...string) echomiddleware.Skipper {
	skip := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		skip[p] = struct{}{}
	}
	return func(c echo.Context) bool {
		_, ok := skip[c.Request().URL.Path]
		return ok
	}
}
