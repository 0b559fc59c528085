package auth

import "chatrelay/internal/domain/models"

// TokenVerifier validates a bearer token and extracts its claims. The
// identity middleware is agnostic to how verification happens (JWKS vs
// shared secret).
type TokenVerifier interface {
	// VerifyToken validates a JWT string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid
	// signature.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier (e.g. HTTP
	// connections for JWKS refresh).
	Close() error
}
