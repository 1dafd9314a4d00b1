package domain

import "time"

// TokenClaims is the decoded payload of a verified access token.
type TokenClaims struct {
	UserName  string    `json:"userName"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"isAdmin"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
