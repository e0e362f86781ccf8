package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// JWTService handles JWT creation and validation with a single HMAC secret
type JWTService struct {
	secret   []byte
	method   *jwt.SigningMethodHMAC
	duration time.Duration
	now      func() time.Time
}

func NewJWTService(secret []byte, algorithm string, duration time.Duration) (*JWTService, error) {
	method, ok := signingMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("JWT secret must not be empty")
	}
	if duration <= 0 {
		return nil, errors.New("token duration must be positive")
	}

	return &JWTService{
		secret:   secret,
		method:   method,
		duration: duration,
		now:      time.Now,
	}, nil
}

// CreateToken signs a token for subject that expires after the configured duration
func (s *JWTService) CreateToken(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject must not be empty")
	}

	now := s.now()
	expiresAt := now.Add(s.duration)

	token := jwt.NewWithClaims(s.method, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyToken validates signature, algorithm and expiry. Every failure is ErrInvalidToken.
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	result := &TokenClaims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}

	return result, nil
}
