package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/expensehub/gateway/internal/api/metrics"
	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/internal/core/ports"
)

// Auth verifies the bearer token and stores the decoded claims on the
// request context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return domain.ErrMissingToken
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return domain.ErrInvalidToken
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				result := "invalid"
				if errors.Is(err, domain.ErrTokenExpired) {
					result = "expired"
				}
				metrics.TokenVerificationsTotal.WithLabelValues(result).Inc()
				return err
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

			if rc := RequestContextFrom(c); rc != nil {
				rc.Claims = claims
			}
			advance(c, StageTokenVerified)

			req := c.Request()
			l := zerolog.Ctx(req.Context()).With().Str("user_id", claims.UserID).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			return next(c)
		}
	}
}

// Public marks the route as not needing a token.
func Public() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			advance(c, StagePublicRoute)
			return forward(next, c)
		}
	}
}

func forward(next echo.HandlerFunc, c echo.Context) error {
	advance(c, StageForwarded)
	return next(c)
}
