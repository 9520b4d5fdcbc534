package middleware

import (
	"net/http"
	"strings"

	"remod3/internal/auth"
	"remod3/internal/httputil"
)

// Auth validates the bearer token and attaches the caller's identity to the
// request context. Requests without a valid token are rejected with 401.
func Auth(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := auth.ParseToken(jwtSecret, token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, &httputil.Identity{
				UserID:   claims.Subject,
				Username: claims.Username,
				Role:     claims.Role,
			}))
		})
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// Must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httputil.GetIdentity(r)
		if id == nil {
			httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if id.Role != "admin" {
			httputil.RespondError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
