package auth

import (
	"net/http"
	"strings"

	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/rs/zerolog/log"
)

// ErrorWriter renders a failure to the client.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperror.Authentication("Authentication failed, missing token", nil)
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", apperror.Authentication("Authentication failed, malformed authorization header", nil)
	}
	return strings.TrimSpace(token), nil
}

// JWTMiddleware creates a middleware for protecting routes. Pre-flight
// OPTIONS requests pass through without a token.
func JWTMiddleware(verifier TokenVerifier, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, r, err)
				return
			}

			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				writeError(w, r, err)
				return
			}

			log.Debug().Str("user_id", claims.UserID).Str("username", claims.Username).Msg("Authenticated request")
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
