// Package auth is responsible for identity and authorization:
// password hashing, JWT issue and verification, registration and login
// flows, the bearer-token middleware, and the request-scoped identity that
// downstream handlers use for ownership checks.
package auth

import "errors"

// Authentication failure kinds. They travel inside apperror.AppError.Err so
// logs, metrics, and tests can tell them apart, while the client only ever
// sees the generic AppError message.
var (
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Token verification failure kinds returned by TokenService.Verify.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
)

// Credential store failure kinds.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// Client-facing messages. They never say whether an email exists or why a
// token was rejected.
const (
	msgAuthRequired       = "authentication required"
	msgInvalidToken       = "invalid token"
	msgInvalidCredentials = "invalid credentials"
)

// tokenReason maps a verification error to the label used in logs and metrics.
func tokenReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrMissingToken):
		return "missing"
	default:
		return "invalid"
	}
}
