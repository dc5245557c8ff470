package authz

import "context"

// NewTestContext creates context with Test principal. Only for tests.
func NewTestContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalKey{}, Principal{Type: PrincipalTypeTest})
}
