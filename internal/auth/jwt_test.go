package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", 10*time.Minute)

	token, err := svc.SignAccessToken("a@b.com", "cli/1.0")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.UserID)
	assert.Equal(t, "cli/1.0", claims.DeviceID)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)

	token, err := svc.SignAccessToken("a@b.com", "cli/1.0")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	svc := NewJWTService("test-secret", 10*time.Minute)
	other := NewJWTService("other-secret", 10*time.Minute)

	token, err := svc.SignAccessToken("a@b.com", "cli/1.0")
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	svc := NewJWTService("test-secret", 10*time.Minute)

	for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := svc.VerifyAccessToken(input)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", input)
	}
}
