package auth

import (
	"errors"
	"log/slog"

	"chatrelay/internal/config"
)

// NewVerifier selects a token verifier from configuration: a JWKS endpoint
// when one is configured, otherwise the shared session secret.
func NewVerifier(cfg *config.Config, logger *slog.Logger) (TokenVerifier, error) {
	switch {
	case cfg.AuthJWKSURL != "":
		return NewJWKSVerifier(cfg.AuthJWKSURL, logger)
	case cfg.AuthSecret != "":
		return NewSecretVerifier(cfg.AuthSecret, logger)
	default:
		return nil, errors.New("no identity provider configured: set AUTH_JWKS_URL or AUTH_SECRET")
	}
}
