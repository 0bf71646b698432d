package jwt

import "context"

type contextKey struct{}

// SetClaims returns a copy of ctx carrying the verified claims.
func SetClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// GetClaims extracts the claims from the context.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok && claims != nil
}

// AppIDFromContext returns the authenticated application id, or "" when the
// request was not authenticated.
func AppIDFromContext(ctx context.Context) string {
	if claims, ok := GetClaims(ctx); ok {
		return claims.Subject
	}
	return ""
}
