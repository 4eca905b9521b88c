package middleware

import (
	"net/http"
	"strings"

	"atelier/internal/auth"
	"atelier/internal/domain"
	"atelier/internal/httputil"
)

// AuthMiddleware resolves the caller identity for every request.
// Requests without an Authorization header proceed as anonymous; public
// routes serve them and protected operations reject them downstream.
// A header that is present but does not verify is answered 401 here,
// so handlers never see a half-authenticated request.
func AuthMiddleware(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, httputil.WithPrincipal(r, domain.Anonymous))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "authorization header must be a bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			p := domain.NewPrincipal(claims.GetUserID())
			next.ServeHTTP(w, httputil.WithPrincipal(r, p))
		})
	}
}
