package ports

import (
	"context"

	"github.com/expensehub/gateway/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to the Registrar.
type RegisterInput struct {
	UserName string
	Password string
	Age      int
	Phone    string
}

// LoginResult is returned on successful credential verification.
type LoginResult struct {
	Token  string
	Claims *domain.TokenClaims
}

type AuthService interface {
	Login(ctx context.Context, userName, password string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*domain.Credential, error)
	ForgotPassword(ctx context.Context, userName string) error
	Clean(ctx context.Context) error
}
