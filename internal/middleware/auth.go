package middleware

import (
	"net/http"
	"strings"

	"github.com/gatherly/pulse/internal/auth"
)

// Auth validates Bearer tokens on incoming requests and stores the customer
// UID in the request context for handlers and downstream middleware.
// Requests without a valid access token receive HTTP 401.
func Auth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				ctx := SetErrorCode(r.Context(), "missing_token")
				r = r.WithContext(ctx)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				ctx := SetErrorCode(r.Context(), "invalid_token")
				r = r.WithContext(ctx)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := SetActorUID(r.Context(), claims.UID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
