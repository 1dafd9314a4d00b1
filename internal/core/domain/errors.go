package domain

import "errors"

// Error kinds. Every error the gateway produces on purpose wraps exactly one of
// these, and the HTTP layer maps the kind to a status code.
var (
	ErrValidation        = errors.New("bad request")
	ErrAuthentication    = errors.New("unauthorized")
	ErrAuthorization     = errors.New("forbidden")
	ErrRateLimitExceeded = errors.New("too many requests")
	ErrUserExists        = errors.New("user already exists")
)

var (
	ErrInvalidCredentials = newError(ErrAuthentication, "invalid credentials")
	ErrUserNotFound       = newError(ErrAuthentication, "user not found")
	ErrMissingUserName    = newError(ErrAuthentication, "userName is required")
	ErrMissingAPIKey      = newError(ErrAuthentication, "missing api key")
	ErrInvalidAPIKey      = newError(ErrAuthentication, "invalid api key")
	ErrMissingToken       = newError(ErrAuthentication, "missing authorization token")
	ErrInvalidToken       = newError(ErrAuthentication, "invalid token")
	ErrTokenExpired       = newError(ErrAuthentication, "token expired")
	ErrInsufficientRole   = newError(ErrAuthorization, "insufficient role")
	ErrRateLimited        = newError(ErrRateLimitExceeded, "rate limit exceeded")
)

// Error is a domain error carrying a caller-safe message and the kind it
// belongs to. errors.Is matches both the error itself and its kind.
type Error struct {
	Kind error
	Msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NewValidationError builds a 400-class error with a field-level message.
func NewValidationError(msg string) error {
	return newError(ErrValidation, msg)
}
