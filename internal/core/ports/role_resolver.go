package ports

import "context"

// RoleResolver maps a user id to its role. A user with no role on record
// resolves to "" and a nil error.
type RoleResolver interface {
	RoleFor(ctx context.Context, userID string) (string, error)
}

// RoleAssigner records a role for a user. Used for seeding at startup.
type RoleAssigner interface {
	Assign(ctx context.Context, userID, role string) error
}
