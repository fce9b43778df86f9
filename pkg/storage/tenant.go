package storage

import "context"

type tenantKey struct{}

// SetTenant records which tenant's bindings subsequent store calls on this
// context may see. The auth middleware sets it from the verified identity.
func SetTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// GetTenant returns the tenant scope for store calls on this context. An
// empty string means single-tenant operation with no row filtering.
func GetTenant(ctx context.Context) string {
	if v, ok := ctx.Value(tenantKey{}).(string); ok {
		return v
	}
	return ""
}
