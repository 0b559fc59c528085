package auth

import (
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"chatrelay/internal/domain"
	"chatrelay/internal/domain/models"
)

// SecretVerifier validates tokens signed with a shared HS256 secret, the
// scheme used by session providers that sign their own session tokens
// instead of publishing a JWKS.
type SecretVerifier struct {
	secret []byte
	logger *slog.Logger
}

// NewSecretVerifier creates a shared-secret verifier.
func NewSecretVerifier(secret string, logger *slog.Logger) (*SecretVerifier, error) {
	if secret == "" {
		return nil, errors.New("auth secret cannot be empty")
	}

	return &SecretVerifier{
		secret: []byte(secret),
		logger: logger,
	}, nil
}

// VerifyToken validates a JWT and extracts its claims.
func (v *SecretVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{},
		func(t *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthenticated
	}

	if !token.Valid {
		return nil, domain.ErrUnauthenticated
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthenticated
	}

	return claims, nil
}

// Close implements TokenVerifier; a shared-secret verifier holds nothing to
// release.
func (v *SecretVerifier) Close() error {
	return nil
}
