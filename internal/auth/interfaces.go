package auth

import (
	"fmt"
	"time"

	"github.com/redmonkez12/go-auth-service/internal/config"
)

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256/384/512) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(subject string) (string, time.Time, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// TokenClaims are the claims carried by a session token
type TokenClaims struct {
	Subject   string    `json:"sub"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// NewTokenService builds the token service selected by configuration
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatJWT, "":
		return NewJWTService([]byte(cfg.JWTSecretKey), cfg.JWTAlgorithm, cfg.TokenDuration)
	case config.TokenFormatPaseto:
		return NewPasetoService(cfg.PasetoKey, cfg.TokenDuration)
	default:
		return nil, fmt.Errorf("unsupported token format %q", cfg.TokenFormat)
	}
}
