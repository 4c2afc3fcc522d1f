package shared

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// ActorFromContext returns the acting user id for audit columns, or nil.
func ActorFromContext(ctx context.Context) *int64 {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil
	}
	id := p.UserID
	return &id
}
