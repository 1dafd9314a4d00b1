package ports

import (
	"context"

	"github.com/expensehub/gateway/internal/core/domain"
)

// IdentityStore holds registered credentials.
//
// InsertIfAbsent must enforce userName uniqueness itself: two concurrent
// inserts of the same name yield exactly one success and one
// domain.ErrUserExists.
type IdentityStore interface {
	// FindByUserName returns domain.ErrUserNotFound when no record matches.
	FindByUserName(ctx context.Context, userName string) (*domain.Credential, error)
	InsertIfAbsent(ctx context.Context, cred *domain.Credential) (*domain.Credential, error)
	// Clear removes every credential. Maintenance and tests only.
	Clear(ctx context.Context) error
}
