package ports

import "github.com/expensehub/gateway/internal/core/domain"

// TokenIssuer mints a signed, time-limited token for a verified credential.
type TokenIssuer interface {
	Issue(cred *domain.Credential, role string) (string, *domain.TokenClaims, error)
}

// TokenVerifier checks signature and expiry and returns the decoded claims.
// Every failure wraps domain.ErrAuthentication.
type TokenVerifier interface {
	Verify(token string) (*domain.TokenClaims, error)
}
