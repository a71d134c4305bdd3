package utils

import (
	"context"

	"shophub-be/internal/auth"
)

type contextKey string

const principalKey contextKey = "principal"

// SetUserContext stores the authenticated principal (called by middleware).
func SetUserContext(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipalFromContext returns the caller, if the request was authenticated.
func GetPrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(auth.Principal)
	return p, ok && p.UserID != ""
}

// GetUserIDFromContext retrieves userID safely
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := GetPrincipalFromContext(ctx)
	return p.UserID, ok
}
