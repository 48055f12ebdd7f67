package auth

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap keeps hashing fast in tests.
var cheap = Params{Memory: 1024, Time: 1, Threads: 1, KeyLen: 16, SaltLen: 8}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("test-password-123")
	require.NoError(t, err)

	assert.Contains(t, hash, "$argon2id$")
	assert.Contains(t, hash, "v=19")
	assert.Contains(t, hash, "m=65536,t=3,p=4")

	match, err := VerifyPassword("test-password-123", hash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestHashWithParams_UniquePerCall(t *testing.T) {
	t.Parallel()

	hash1, err := HashWithParams("same-password", cheap)
	require.NoError(t, err)
	hash2, err := HashWithParams("same-password", cheap)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashWithParams("correct-horse", cheap)
	require.NoError(t, err)

	match, err := VerifyPassword("correct-horse", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = VerifyPassword("wrong-horse", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestVerifyPassword_EmptyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashWithParams("", cheap)
	require.NoError(t, err)

	match, err := VerifyPassword("", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = VerifyPassword("not-empty", hash)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestCheck_InvalidHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not enough parts", "$argon2id$v=19"},
		{"leading garbage", "x$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"invalid version format", "$argon2id$version=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"unsupported version", "$argon2id$v=16$m=65536,t=3,p=4$c2FsdA$aGFzaA"},
		{"invalid params format", "$argon2id$v=19$memory=65536$c2FsdA$aGFzaA"},
		{"invalid salt encoding", "$argon2id$v=19$m=65536,t=3,p=4$!!!invalid!!!$aGFzaA"},
		{"invalid hash encoding", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!invalid!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Check(tt.hash)
			assert.ErrorIs(t, err, ErrInvalidHash)

			_, err = VerifyPassword("password", tt.hash)
			assert.ErrorIs(t, err, ErrInvalidHash)
		})
	}
}

func TestDecodeHash(t *testing.T) {
	t.Parallel()

	hash, err := HashWithParams("test", cheap)
	require.NoError(t, err)
	require.NoError(t, Check(hash))

	p, salt, key, err := decodeHash(hash)
	require.NoError(t, err)
	assert.Equal(t, cheap, p)
	assert.Len(t, salt, 8)
	assert.Len(t, key, 16)
}

func scripted(answers ...string) *Prompter {
	var out bytes.Buffer
	return &Prompter{
		Out: &out,
		Read: func() ([]byte, error) {
			if len(answers) == 0 {
				return nil, errors.New("no input")
			}
			a := answers[0]
			answers = answers[1:]
			return []byte(a), nil
		},
	}
}

func TestPrompterNewPassword(t *testing.T) {
	t.Parallel()

	p := scripted("hunter2", "hunter2")
	password, err := p.NewPassword()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)
	assert.Contains(t, p.Out.(*bytes.Buffer).String(), "Confirm password: ")

	_, err = scripted("").NewPassword()
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = scripted("one", "two").NewPassword()
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = scripted("only-once").NewPassword()
	assert.ErrorContains(t, err, "failed to read password")
}
