package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/gateway/internal/core/domain"
)

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []string
		wantErr error
	}{
		{name: "exact match", role: "admin", allowed: []string{"admin"}},
		{name: "case insensitive", role: "Admin", allowed: []string{"admin", "owner"}},
		{name: "allowed set", role: "viewer", allowed: domain.Roles},
		{name: "not allowed", role: "viewer", allowed: []string{"admin"}, wantErr: domain.ErrInsufficientRole},
		{name: "empty role", role: "", allowed: domain.Roles, wantErr: domain.ErrInsufficientRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/api/user/me")
			rc := withRequestContext(c)
			rc.Claims = &domain.TokenClaims{UserName: "alice", Role: tt.role}

			called := false
			err := RequireRoles(tt.allowed...)(func(c echo.Context) error {
				called = true
				return nil
			})(c)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, domain.ErrAuthorization) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if called {
					t.Fatalf("next must not run")
				}
				return
			}
			if err != nil || !called {
				t.Fatalf("expected pass-through, err=%v called=%v", err, called)
			}
			if rc.Stage != StageForwarded {
				t.Fatalf("expected forwarded stage, got %s", rc.Stage)
			}
		})
	}
}

func TestRequireRoles_WithoutClaims(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/user/me")
	withRequestContext(c)

	err := RequireRoles("admin")(func(c echo.Context) error {
		t.Fatalf("next must not run")
		return nil
	})(c)
	if !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
