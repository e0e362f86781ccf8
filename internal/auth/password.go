package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/go-auth-service/internal/config"
)

const (
	argon2Prefix = "$argon2id$"
	saltLen      = 16
	keyLen       = 32
)

// PasswordHasher hashes and verifies passwords.
// Verify never fails loudly: a malformed or unsupported hash is simply a mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// Argon2Params are the argon2id cost parameters. They are embedded in every
// hash, so changing them only affects new hashes.
type Argon2Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// NewPasswordHasher builds the hasher selected by configuration
func NewPasswordHasher(cfg config.AuthConfig) PasswordHasher {
	if cfg.PasswordHasher == config.HasherBcrypt {
		return NewBcryptHasher(cfg.BcryptCost)
	}
	return NewArgon2idHasher(Argon2Params{
		Time:     cfg.Argon2Time,
		MemoryKB: cfg.Argon2MemoryKB,
		Threads:  cfg.Argon2Threads,
	})
}

// Argon2idHasher implements PasswordHasher using argon2id
type Argon2idHasher struct {
	params Argon2Params
}

func NewArgon2idHasher(params Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: params}
}

// Hash creates an argon2id hash encoded as
// $argon2id$v=19$m=65536,t=3,p=4$salt$hash
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.MemoryKB,
		h.params.Threads,
		keyLen,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify accepts argon2id and bcrypt hashes, so switching algorithms does not lock out existing users
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	return verifyPassword(password, encodedHash)
}

// BcryptHasher implements PasswordHasher using bcrypt
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, encodedHash string) bool {
	return verifyPassword(password, encodedHash)
}

// verifyPassword dispatches on the hash prefix
func verifyPassword(password, encodedHash string) bool {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return verifyArgon2id(password, encodedHash)
	case isBcryptHash(encodedHash):
		return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
	default:
		return false
	}
}

func isBcryptHash(encodedHash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encodedHash, prefix) {
			return true
		}
	}
	return false
}

// verifyArgon2id recomputes the hash with the embedded salt and parameters
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	if memory == 0 || time == 0 || threads == 0 {
		return false
	}
	if memory > config.MaxArgon2MemoryKB || time > config.MaxArgon2Time || threads > config.MaxArgon2Threads {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(decodedHash) == 0 || len(decodedHash) > 1024 {
		return false
	}

	inputHash := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		uint8(threads),
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}
