package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/go-auth-service/internal/config"
)

func TestArgon2idHasher(t *testing.T) {
	h := NewArgon2idHasher(fastArgon2)

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))
	assert.NotContains(t, hash, "correct horse")
	assert.True(t, h.Verify("correct horse battery staple", hash))
	assert.False(t, h.Verify("correct horse battery stapler", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHashIsSalted(t *testing.T) {
	h := NewArgon2idHasher(fastArgon2)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("password123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.True(t, h.Verify("password123", hash))
	assert.False(t, h.Verify("password124", hash))

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestHashEmptyPassword(t *testing.T) {
	for name, h := range map[string]PasswordHasher{
		"argon2id": NewArgon2idHasher(fastArgon2),
		"bcrypt":   NewBcryptHasher(bcrypt.MinCost),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := h.Hash("")
			assert.ErrorIs(t, err, ErrPasswordRequired)
		})
	}
}

func TestVerifyAcceptsEitherFamily(t *testing.T) {
	argon := NewArgon2idHasher(fastArgon2)
	bc := NewBcryptHasher(bcrypt.MinCost)

	argonHash, err := argon.Hash("password123")
	require.NoError(t, err)
	bcryptHash, err := bc.Hash("password123")
	require.NoError(t, err)

	assert.True(t, bc.Verify("password123", argonHash))
	assert.True(t, argon.Verify("password123", bcryptHash))
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewArgon2idHasher(fastArgon2)

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"plaintext", "password123"},
		{"unknown algorithm", "$scrypt$ln=16,r=8,p=1$c2FsdA$aGFzaA"},
		{"too few segments", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ"},
		{"wrong version", "$argon2id$v=16$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNo"},
		{"zero memory", "$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNo"},
		{"too many threads", "$argon2id$v=19$m=8192,t=1,p=300$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNo"},
		{"memory above limit", "$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNo"},
		{"time above limit", "$argon2id$v=19$m=8192,t=1000000,p=1$c2FsdHNhbHRzYWx0$aGFzaGhhc2hoYXNo"},
		{"bad salt encoding", "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaGhhc2hoYXNo"},
		{"bad hash encoding", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0$!!!"},
		{"truncated bcrypt", "$2a$10$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Verify("password123", tt.hash))
		})
	}
}

func TestNewPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(config.AuthConfig{PasswordHasher: config.HasherBcrypt, BcryptCost: bcrypt.MinCost})
	assert.IsType(t, &BcryptHasher{}, h)

	h = NewPasswordHasher(config.AuthConfig{
		PasswordHasher: config.HasherArgon2id,
		Argon2Time:     1,
		Argon2MemoryKB: 8 * 1024,
		Argon2Threads:  1,
	})
	require.IsType(t, &Argon2idHasher{}, h)

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.Contains(t, hash, "m=8192,t=1,p=1")
}
