package httpx

import (
	"net/http"
	"strings"

	"library/internal/platform/crypto"
)

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}

			ctx := ContextWithUser(r.Context(), claims.Sub, claims.Staff)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff lets only staff identities through. It must run after AuthMiddleware.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsStaffFrom(r) {
			JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Staff only", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
