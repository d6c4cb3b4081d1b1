package auth

import (
	"context"

	"github.com/spec-kit/college-marketplace/internal/domain"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the identity established for the request, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(domain.Identity)
	if !ok || !identity.IsAuthenticated() {
		return domain.Anonymous, false
	}
	return identity, true
}
