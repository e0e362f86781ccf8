package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

const (
	maxEmailLength    = 254
	maxPasswordLength = 1024
	tokenTypeBearer   = "bearer"
)

// AuthToken is returned by register and login
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service handles authentication business logic
type Service struct {
	users             user.TxStore
	hasher            PasswordHasher
	tokens            TokenService
	tokenDuration     time.Duration
	minPasswordLength int
	dummyHash         string
}

func NewService(
	users user.TxStore,
	hasher PasswordHasher,
	tokens TokenService,
	logger *logging.Logger,
	tokenDuration time.Duration,
	minPasswordLength int,
) *Service {
	// Verified against when the email is unknown so both login failures cost one hash
	dummyHash, err := hasher.Hash("timing-equalization-placeholder")
	if err != nil {
		logger.Warn("failed to prepare dummy password hash", "error", err)
	}

	return &Service{
		users:             users,
		hasher:            hasher,
		tokens:            tokens,
		tokenDuration:     tokenDuration,
		minPasswordLength: minPasswordLength,
		dummyHash:         dummyHash,
	}
}

// Register creates a new user account and issues a token for it
func (s *Service) Register(ctx context.Context, email, password string) (*AuthToken, *user.User, error) {
	if err := s.validateRegistration(email, password); err != nil {
		return nil, nil, err
	}

	// Hash outside the transaction; no connection is held while hashing
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) || errors.Is(err, ErrPasswordRequired) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var newUser *user.User
	err = s.users.RunInTx(ctx, func(ctx context.Context, store user.Store) error {
		_, err := store.GetByEmail(ctx, email)
		switch {
		case err == nil:
			return ErrDuplicateEmail
		case !errors.Is(err, user.ErrNotFound):
			return err
		}

		newUser, err = store.Create(ctx, email, passwordHash)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	token, err := s.issueToken(newUser.ID)
	if err != nil {
		return nil, nil, err
	}

	return token, newUser, nil
}

// Login authenticates a user and returns a token.
// Unknown email and wrong password fail identically with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthToken, *user.User, error) {
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !s.hasher.Verify(password, existingUser.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	if !existingUser.IsActive {
		return nil, nil, ErrInactiveUser
	}

	token, err := s.issueToken(existingUser.ID)
	if err != nil {
		return nil, nil, err
	}

	return token, existingUser, nil
}

// CurrentUser resolves a session token to an existing, active user
func (s *Service) CurrentUser(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	return s.ActiveUser(ctx, userID)
}

// ActiveUser loads an already authenticated user id. A missing user is
// unauthenticated and a deactivated one is ErrInactiveUser.
func (s *Service) ActiveUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	existingUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	if !existingUser.IsActive {
		return nil, ErrInactiveUser
	}

	return existingUser, nil
}

func (s *Service) validateRegistration(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > maxEmailLength {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(password) < s.minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func (s *Service) issueToken(userID uuid.UUID) (*AuthToken, error) {
	accessToken, _, err := s.tokens.CreateToken(userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthToken{
		AccessToken: accessToken,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(s.tokenDuration.Seconds()),
	}, nil
}
