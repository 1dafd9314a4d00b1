package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/expensehub/gateway/internal/core/domain"
)

const DefaultTokenTTL = 5 * time.Hour

// tokenClaims is the wire form of domain.TokenClaims.
type tokenClaims struct {
	UserName string `json:"userName"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock overrides the time source used for iat/exp and verification.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) { s.issuer = issuer }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenService) Issue(cred *domain.Credential, role string) (string, *domain.TokenClaims, error) {
	if cred == nil {
		return "", nil, errors.New("issue token: nil credential")
	}
	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.ttl)

	claims := tokenClaims{
		UserName: cred.UserName,
		UserID:   cred.ID,
		Role:     role,
		IsAdmin:  domain.IsAdminRole(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   cred.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.toDomain(), nil
}

func (s *TokenService) Verify(raw string) (*domain.TokenClaims, error) {
	if raw == "" {
		return nil, domain.ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims.toDomain(), nil
}

func (c tokenClaims) toDomain() *domain.TokenClaims {
	out := &domain.TokenClaims{
		UserName: c.UserName,
		UserID:   c.UserID,
		Role:     c.Role,
		IsAdmin:  c.IsAdmin,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return out
}
