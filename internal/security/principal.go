package security

import "context"

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Email  string
	Name   string
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// CurrentEmail returns the caller's email or "" for anonymous requests. It is
// what audit columns record.
func CurrentEmail(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.Email
}
