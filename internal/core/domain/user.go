package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin        = "admin"
	RoleConfigurator = "configurator"
	RoleOwner        = "owner"
	RoleViewer       = "viewer"
)

// Roles lists every role the gateway knows how to authorize.
var Roles = []string{RoleAdmin, RoleConfigurator, RoleOwner, RoleViewer}

// Credential is a registered login. The plaintext password never leaves the
// registration call; only its bcrypt hash is kept.
type Credential struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	Age          int       `json:"age"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdminRole reports whether role grants administrator rights.
func IsAdminRole(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}
