package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("secret", "ops@adstudio", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "ops@adstudio", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestParseJWTRejects(t *testing.T) {
	token, err := GenerateJWT("secret", "u", "", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT("other", token)
	assert.Error(t, err, "wrong secret")

	defaulted, err := GenerateJWT("secret", "u", "", -time.Hour)
	require.NoError(t, err)
	// non-positive expiration falls back to 24h
	_, err = ParseJWT("secret", defaulted)
	assert.NoError(t, err)

	_, err = ParseJWT("secret", "not-a-token")
	assert.Error(t, err)
}

func TestGenerateJWTNeedsSecret(t *testing.T) {
	_, err := GenerateJWT("", "u", "", time.Hour)
	assert.Error(t, err)
}
