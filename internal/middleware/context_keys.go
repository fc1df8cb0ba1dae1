package middleware

import (
	"context"

	"github.com/pesoflow/lending_backend/internal/core/domain"
)

const principalCtxKey = contextKey("principal")

// GetPrincipalFromCtx retrieves the authenticated principal from the
// context. The boolean is false when no auth middleware ran.
func GetPrincipalFromCtx(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(domain.Principal)
	return p, ok
}

// WithPrincipal returns a context carrying the principal. Exported for
// handler tests.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}
