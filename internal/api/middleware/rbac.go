package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/expensehub/gateway/internal/core/domain"
)

// RequireRoles admits only requests whose token role is one of allowedRoles.
// Comparison ignores case. Must run after Auth.
func RequireRoles(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[normalizeRole(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsOf(c)
			if claims == nil {
				return domain.ErrMissingToken
			}
			if _, ok := allowed[normalizeRole(claims.Role)]; !ok {
				zerolog.Ctx(c.Request().Context()).Warn().
					Str("role", claims.Role).
					Str("path", c.Path()).
					Msg("role not permitted")
				return domain.ErrInsufficientRole
			}

			advance(c, StageRoleChecked)
			return forward(next, c)
		}
	}
}

func normalizeRole(r string) string {
	return strings.ToLower(strings.TrimSpace(r))
}
