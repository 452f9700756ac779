package domain

import (
	"context"
	"net/http"
)

//go:generate mockgen -destination mocks/mock_identity_resolver.go -package mocks github.com/encanta/encanta/internal/domain IdentityResolver

type contextKey string

const (
	// IdentityKey is the context key holding the resolved *Identity
	IdentityKey contextKey = "identity"
)

// Identity is the authenticated caller as asserted by the auth provider
type Identity struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Email     string `json:"email,omitempty"`
}

// IdentityResolver extracts the caller identity from an inbound request.
// Implementations return ErrUnauthenticated when no valid identity is present.
type IdentityResolver interface {
	ResolveIdentity(r *http.Request) (*Identity, error)
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFromContext returns the identity stored in ctx, if any
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*Identity)
	if !ok || identity == nil || identity.UserID == "" {
		return nil, false
	}
	return identity, true
}
