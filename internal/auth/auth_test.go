package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "hunter2hunter2"))
}

func TestSignAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	expiresAt := time.Now().Add(time.Hour)

	token, err := signToken(secret, 42, "token-id-1", expiresAt)
	require.NoError(t, err)

	userID, jti, err := parseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "token-id-1", jti)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := signToken([]byte("secret-a"), 1, "id", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, _, err = parseToken([]byte("secret-b"), token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := signToken([]byte("secret"), 1, "id", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, _, err = parseToken([]byte("secret"), token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, _, err := parseToken([]byte("secret"), "definitely.not.a.jwt")
	assert.Error(t, err)
}

func TestNewOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		otp, err := NewOTP()
		require.NoError(t, err)
		require.Len(t, otp, OTPLength)
		for _, c := range otp {
			assert.True(t, c >= '0' && c <= '9', "OTP must be numeric, got %q", otp)
		}
		seen[otp] = true
	}
	// 20 draws from a million values colliding into one would mean a broken
	// generator.
	assert.Greater(t, len(seen), 1)
}

func TestHashToken(t *testing.T) {
	a := hashToken("token-a")
	b := hashToken("token-b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, hashToken("token-a"))
	assert.Len(t, a, 64)
}
