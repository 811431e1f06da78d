package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid password", "validpassword123", nil},
		{"too short", "short", ErrPasswordTooShort},
		{"minimum length", "123456789012", nil},
		{"multibyte characters count as one", "ááááááááááá", ErrPasswordTooShort},
		{"too long", strings.Repeat("a", 73), ErrPasswordTooLong},
		{"maximum length", strings.Repeat("a", 72), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, 4)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, hash)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123", 4)
	require.NoError(t, err)

	assert.NoError(t, CheckPassword("testpassword123", hash))
	assert.ErrorIs(t, CheckPassword("wrongpassword", hash), ErrInvalidPassword)
	assert.ErrorIs(t, CheckPassword("", hash), ErrInvalidPassword)
}

func TestGenerateAPIToken(t *testing.T) {
	plaintext, hash, err := GenerateAPIToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(plaintext, APITokenPrefix))
	assert.Len(t, plaintext, len(APITokenPrefix)+64)
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashToken(plaintext))
	assert.Equal(t, hash, HashToken(" "+plaintext+"\n"))

	other, _, err := GenerateAPIToken()
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, other)
}

func TestGenerateSessionSecret(t *testing.T) {
	secret, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	other, err := GenerateSessionSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}
