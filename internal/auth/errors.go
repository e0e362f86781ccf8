package auth

import (
	"errors"

	"github.com/redmonkez12/go-auth-service/internal/user"
)

// Authentication failures surfaced to the HTTP layer. Login and token
// failures are deliberately coarse so responses never reveal whether an
// email exists or why a token was rejected.
var (
	ErrDuplicateEmail     = user.ErrDuplicateEmail
	ErrStoreUnavailable   = user.ErrStoreUnavailable
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrInactiveUser       = errors.New("user is inactive")
)

// Registration input validation
var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrPasswordTooLong    = errors.New("password is too long")
)
