package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/pkg/logger"
)

// Correlator assigns every request a fresh UUIDv4, echoes it in X-Request-ID
// and attaches a request-scoped logger to the request context. Inbound
// X-Request-ID headers are ignored.
func Correlator(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := uuid.NewString()
			SetRequestContext(c, &RequestContext{
				RequestID: id,
				StartTime: time.Now(),
				Stage:     StageCorrelated,
			})
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			req := c.Request()
			ctx := domain.WithRequestID(req.Context(), id)
			ctx, _ = logger.WithRequestID(ctx, base, id)
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("request.id", id))
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
