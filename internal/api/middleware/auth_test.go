package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/expensehub/gateway/internal/core/domain"
)

type stubVerifier struct {
	claims *domain.TokenClaims
	err    error
	got    string
}

func (s *stubVerifier) Verify(token string) (*domain.TokenClaims, error) {
	s.got = token
	return s.claims, s.err
}

func TestAuth_ValidToken(t *testing.T) {
	v := &stubVerifier{claims: &domain.TokenClaims{UserName: "alice", UserID: "u1", Role: "viewer"}}
	c, _ := newContext(http.MethodGet, "/api/user/me")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer abc.def.ghi")
	rc := withRequestContext(c)

	called := false
	err := Auth(v)(func(c echo.Context) error {
		called = true
		if ClaimsOf(c).UserName != "alice" {
			t.Fatalf("claims not stored")
		}
		return nil
	})(c)

	if err != nil || !called {
		t.Fatalf("expected pass-through, err=%v called=%v", err, called)
	}
	if v.got != "abc.def.ghi" {
		t.Fatalf("verifier got %q", v.got)
	}
	if rc.Stage != StageTokenVerified {
		t.Fatalf("expected token_verified stage, got %s", rc.Stage)
	}
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		verr    error
		wantErr error
	}{
		{name: "missing header", header: "", wantErr: domain.ErrMissingToken},
		{name: "wrong scheme", header: "Token abc", wantErr: domain.ErrInvalidToken},
		{name: "empty bearer", header: "Bearer ", wantErr: domain.ErrInvalidToken},
		{name: "expired", header: "Bearer x", verr: domain.ErrTokenExpired, wantErr: domain.ErrTokenExpired},
		{name: "tampered", header: "Bearer x", verr: domain.ErrInvalidToken, wantErr: domain.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(http.MethodGet, "/api/user/me")
			if tt.header != "" {
				c.Request().Header.Set(echo.HeaderAuthorization, tt.header)
			}
			withRequestContext(c)

			err := Auth(&stubVerifier{err: tt.verr})(func(c echo.Context) error {
				t.Fatalf("next must not run")
				return nil
			})(c)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, domain.ErrAuthentication) {
				t.Fatalf("expected authentication kind, got %v", err)
			}
		})
	}
}

func TestPublic_Forwards(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/auth/login")
	rc := withRequestContext(c)

	if err := Public()(func(c echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.Stage != StageForwarded {
		t.Fatalf("expected forwarded stage, got %s", rc.Stage)
	}
}
