package auth

import (
	"context"
	"time"
)

// Identity is the authenticated caller resolved from a verified token.
// It is immutable once the middleware has placed it in the context.
type Identity struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// `contextKey` is a custom type for context keys so they cannot collide
// with keys defined in other packages.
type contextKey string

const identityContextKey contextKey = "auth_identity"

// NewContextWithIdentity returns a child context carrying id.
func NewContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext extracts the Identity stored by the middleware.
// The boolean is false when the request did not pass through it.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	return id, ok && id != nil
}
