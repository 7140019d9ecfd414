package auth

import (
	"context"
)

type authContextKey struct{}

// WithContext adds an AuthContext to the context
func WithContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context. It returns nil when
// the request was not authenticated, which is the case whenever gateway
// tokens are not required.
func FromContext(ctx context.Context) *AuthContext {
	auth, _ := ctx.Value(authContextKey{}).(*AuthContext)
	return auth
}
