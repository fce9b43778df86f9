package auth

import "context"

type identityKey struct{}

// SetIdentity attaches a verified identity to the context. The middleware
// calls this after the chain accepts a request; handlers read it back with
// IdentityFromContext.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity the middleware attached, or nil
// when the request was admitted without one.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}
