package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/expensehub/gateway/internal/api/middleware"
	"github.com/expensehub/gateway/internal/core/domain"
)

func newErrorContext(method string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/api/user/me", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "validation", err: domain.NewValidationError("userName is required"), code: http.StatusBadRequest, message: "userName is required"},
		{name: "user exists", err: fmt.Errorf("insert: %w", domain.ErrUserExists), code: http.StatusBadRequest, message: "user already exists"},
		{name: "bad credentials", err: domain.ErrInvalidCredentials, code: http.StatusUnauthorized, message: "invalid credentials"},
		{name: "expired token", err: domain.ErrTokenExpired, code: http.StatusUnauthorized, message: "token expired"},
		{name: "role mismatch", err: domain.ErrInsufficientRole, code: http.StatusForbidden, message: "insufficient role"},
		{name: "rate limited", err: domain.ErrRateLimited, code: http.StatusTooManyRequests, message: "rate limit exceeded"},
		{name: "echo error", err: echo.ErrNotFound, code: http.StatusNotFound, message: "Not Found"},
		{name: "unknown", err: errors.New("dial tcp: connection refused"), code: http.StatusInternalServerError, message: "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newErrorContext(http.MethodGet)
			h(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tt.message {
				t.Fatalf("expected %q, got %q", tt.message, resp.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_IncludesRequestID(t *testing.T) {
	c, rec := newErrorContext(http.MethodGet)
	middleware.SetRequestContext(c, &middleware.RequestContext{RequestID: "req-42", Stage: middleware.StageKeyChecked})

	NewHTTPErrorHandler(zerolog.Nop(), nil)(domain.ErrMissingToken, c)

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.RequestID != "req-42" {
		t.Fatalf("expected request id req-42, got %q", resp.RequestID)
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	var buf bytes.Buffer
	c, rec := newErrorContext(http.MethodGet)
	middleware.SetRequestContext(c, &middleware.RequestContext{RequestID: "req-7", Stage: middleware.StageForwarded})
	if err := c.String(http.StatusOK, "done"); err != nil {
		t.Fatalf("write: %v", err)
	}

	NewHTTPErrorHandler(zerolog.New(&buf), nil)(errors.New("stream closed"), c)

	if rec.Code != http.StatusOK || rec.Body.String() != "done" {
		t.Fatalf("committed response was overwritten: %d %q", rec.Code, rec.Body.String())
	}
	out := buf.String()
	for _, want := range []string{"error after response committed", `"request_id":"req-7"`, "stream closed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log, got %q", want, out)
		}
	}
}

func TestHTTPErrorHandler_LogsHandledErrorOnce(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newErrorContext(http.MethodGet)
	h := NewHTTPErrorHandler(zerolog.New(&buf), nil)

	// Echo calls the handler again when the request logger returns the
	// error it already handed over.
	h(domain.ErrInvalidToken, c)
	h(domain.ErrInvalidToken, c)

	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Fatalf("expected one log line, got %d: %q", n, buf.String())
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	c, rec := newErrorContext(http.MethodHead)
	NewHTTPErrorHandler(zerolog.Nop(), nil)(domain.ErrMissingAPIKey, c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}

func TestHTTPErrorHandler_AuditsGateRejections(t *testing.T) {
	tests := []struct {
		name  string
		stage middleware.Stage
		err   error
		want  int
	}{
		{name: "key rejected", stage: middleware.StageCorrelated, err: domain.ErrInvalidAPIKey, want: 1},
		{name: "rate limited", stage: middleware.StageKeyChecked, err: domain.ErrRateLimited, want: 1},
		{name: "role denied", stage: middleware.StageTokenVerified, err: domain.ErrInsufficientRole, want: 1},
		{name: "handler failure", stage: middleware.StagePublicRoute, err: domain.ErrInvalidCredentials, want: 0},
		{name: "bad payload", stage: middleware.StageRateChecked, err: domain.NewValidationError("invalid payload"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &captureAudit{}
			c, _ := newErrorContext(http.MethodGet)
			middleware.SetRequestContext(c, &middleware.RequestContext{
				RequestID: "req-1",
				Stage:     tt.stage,
				Claims:    &domain.TokenClaims{UserName: "v@b.com"},
			})

			NewHTTPErrorHandler(zerolog.Nop(), audit)(tt.err, c)

			if got := audit.count(domain.AuditGateRejection); got != tt.want {
				t.Fatalf("expected %d audit events, got %d", tt.want, got)
			}
			if tt.want == 1 {
				ev := audit.events[0]
				if ev.RequestID != "req-1" || ev.UserName != "v@b.com" || ev.Success {
					t.Fatalf("unexpected audit event: %+v", ev)
				}
			}
		})
	}
}
