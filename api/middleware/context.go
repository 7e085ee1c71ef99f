package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/campground-backend/pkg/auth"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxSessionID contextKey = "session_id"
)

func valueOf[T any](ctx context.Context, key contextKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// WithPrincipal stores the authenticated caller on ctx.
func WithPrincipal(ctx context.Context, principal pkgAuth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}

// PrincipalFromContext returns the caller seeded by Auth. ok is false for
// anonymous requests.
func PrincipalFromContext(ctx context.Context) (pkgAuth.Principal, bool) {
	return valueOf[pkgAuth.Principal](ctx, ctxPrincipal)
}

// WithSessionID stores the jti of the validated access token.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	id, _ := valueOf[string](ctx, ctxSessionID)
	return id
}
