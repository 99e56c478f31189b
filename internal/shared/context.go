package shared

import (
	"context"

	"github.com/praetor-auth/praetor/internal/identity"
)

type identityContextKey struct{}

// ContextWithIdentity stores the resolved identity snapshot in context for
// the duration of one request.
func ContextWithIdentity(ctx context.Context, ident *identity.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, ident)
}

// IdentityFromContext extracts the identity snapshot from context.
func IdentityFromContext(ctx context.Context) *identity.Identity {
	ident, _ := ctx.Value(identityContextKey{}).(*identity.Identity)
	return ident
}
