package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/expensehub/gateway/internal/api/metrics"
	"github.com/expensehub/gateway/internal/api/middleware"
	"github.com/expensehub/gateway/internal/core/domain"
	"github.com/expensehub/gateway/internal/core/ports"
)

const handledErrorKey = "gateway.handled_error"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps error kinds
// to status codes, logs every error with its request id and renders
// {"error": "<message>", "request_id": "<id>"}. Rejections raised by the gate
// itself are also counted and, when audit is non-nil, recorded.
func NewHTTPErrorHandler(log zerolog.Logger, audit ports.AuditRecorder) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		stage := middleware.StageOf(c)
		requestID := middleware.RequestIDOf(c)

		reqLog := zerolog.Ctx(c.Request().Context())
		if reqLog.GetLevel() == zerolog.Disabled {
			reqLog = &log
		}

		if c.Response().Committed {
			// The request logger hands errors here and then returns them up
			// the chain; those were logged on the first pass.
			if prev, ok := c.Get(handledErrorKey).(error); ok && errors.Is(err, prev) {
				return
			}
			reqLog.Warn().Err(err).
				Str("request_id", requestID).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Str("gate_stage", string(stage)).
				Msg("error after response committed")
			return
		}

		c.Set(handledErrorKey, err)
		code, msg := resolveError(err)
		ev := reqLog.Warn()
		if code >= http.StatusInternalServerError {
			ev = reqLog.Error()
		}
		ev.Err(err).
			Str("request_id", requestID).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", code).
			Str("gate_stage", string(stage)).
			Msg("request rejected")

		metrics.GateRejectionsTotal.WithLabelValues(string(stage), reasonLabel(code)).Inc()
		if audit != nil && isGateStage(stage) && isAccessDenial(code) {
			ev := domain.AuditEvent{
				Action:    domain.AuditGateRejection,
				RequestID: requestID,
				Reason:    msg,
				At:        time.Now().UTC(),
			}
			if claims := middleware.ClaimsOf(c); claims != nil {
				ev.UserName = claims.UserName
			}
			audit.Record(ev)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg, RequestID: requestID})
	}
}

func resolveError(err error) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, domain.ErrUserExists.Error()
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrRateLimitExceeded):
		return http.StatusTooManyRequests, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

// statusFor is resolveError without the message, for metric labelling.
func statusFor(err error) int {
	code, _ := resolveError(err)
	return code
}

func reasonLabel(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	}
	if code >= http.StatusInternalServerError {
		return "internal"
	}
	return "other"
}

func isAccessDenial(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusTooManyRequests
}

// isGateStage reports whether a request rejected at stage never reached a handler.
func isGateStage(stage middleware.Stage) bool {
	return stage != middleware.StageForwarded && stage != middleware.StagePublicRoute
}
