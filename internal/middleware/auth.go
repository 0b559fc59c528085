package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"chatrelay/internal/auth"
	"chatrelay/internal/domain/models"
	"chatrelay/internal/httputil"
)

// Identity resolves the caller once per request and stores the result in the
// context. Resolution never rejects a request: a missing, malformed or
// unverifiable token just leaves the request anonymous, and handlers decide
// whether anonymous access is allowed.
func Identity(verifier auth.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("identity resolution failed, continuing anonymous",
					"path", r.URL.Path,
					"error", err.Error(),
				)
				next.ServeHTTP(w, r)
				return
			}

			ident := models.Identity{UserID: claims.UserID()}
			next.ServeHTTP(w, httputil.WithIdentity(r, ident))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
