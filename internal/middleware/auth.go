package middleware

import (
	"net/http"

	"shophub-be/internal/auth"
	"shophub-be/internal/logger"
	"shophub-be/internal/utils"

	"go.uber.org/zap"
)

// TokenParser resolves a bearer credential to a principal.
type TokenParser interface {
	Parse(token string) (auth.Principal, error)
}

// AuthMiddleware attaches the principal when a credential is presented.
// Requests without a credential pass through anonymously; a credential that
// fails to parse is rejected with 401.
func AuthMiddleware(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := parser.Parse(tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejected access token", zap.Error(err))
				utils.WriteJSONError(w, "Not authorized, token failed", http.StatusUnauthorized)
				return
			}

			ctx := utils.SetUserContext(r.Context(), p)
			ctx = logger.WithFields(ctx, zap.String("user_id", p.UserID), zap.String("role", string(p.Role)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetPrincipalFromContext(r.Context()); !ok {
			utils.WriteJSONError(w, "Not authorized, no token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...auth.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			p, _ := utils.GetPrincipalFromContext(r.Context())
			if !p.HasRole(roles...) {
				utils.WriteJSONError(w, "User role "+string(p.Role)+" is not authorized to access this route", http.StatusForbidden)
				return
			}
			next(w, r)
		})
	}
}
