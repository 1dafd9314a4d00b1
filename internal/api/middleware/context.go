package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/gateway/internal/core/domain"
)

// Stage is the furthest point a request has reached in the gate.
type Stage string

const (
	StageStart         Stage = "start"
	StageCorrelated    Stage = "correlated"
	StageKeyChecked    Stage = "key_checked"
	StageRateChecked   Stage = "rate_checked"
	StagePublicRoute   Stage = "public_route"
	StageTokenVerified Stage = "token_verified"
	StageRoleChecked   Stage = "role_checked"
	StageForwarded     Stage = "forwarded"
)

const requestContextKey = "gateway.request"

// RequestContext is the per-request state the gate accumulates.
type RequestContext struct {
	RequestID string
	StartTime time.Time
	Claims    *domain.TokenClaims
	Stage     Stage
}

// RequestContextFrom returns the request's gate state, or nil when the
// correlator has not run.
func RequestContextFrom(c echo.Context) *RequestContext {
	rc, _ := c.Get(requestContextKey).(*RequestContext)
	return rc
}

// SetRequestContext attaches rc to c, replacing any earlier state.
func SetRequestContext(c echo.Context, rc *RequestContext) {
	c.Set(requestContextKey, rc)
}

// StageOf reports the stage reached so far, StageStart if none.
func StageOf(c echo.Context) Stage {
	if rc := RequestContextFrom(c); rc != nil {
		return rc.Stage
	}
	return StageStart
}

// RequestIDOf returns the correlation id, or "" before the correlator ran.
func RequestIDOf(c echo.Context) string {
	if rc := RequestContextFrom(c); rc != nil {
		return rc.RequestID
	}
	return ""
}

// ClaimsOf returns the verified token claims, or nil on public routes.
func ClaimsOf(c echo.Context) *domain.TokenClaims {
	if rc := RequestContextFrom(c); rc != nil {
		return rc.Claims
	}
	return nil
}

func advance(c echo.Context, s Stage) {
	if rc := RequestContextFrom(c); rc != nil {
		rc.Stage = s
	}
}
