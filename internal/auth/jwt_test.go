package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetJWTSecretForTesting("test-secret-for-jwt-roundtrip")

	token, expiry, csrfToken, err := GenerateToken(42, "tester", "tester@example.com", false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, csrfToken)
	assert.True(t, expiry.After(time.Now()))

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "tester", claims.Username)
	assert.Equal(t, "tester@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	SetJWTSecretForTesting("test-secret-for-jwt-roundtrip")

	token, _, _, err := GenerateToken(42, "tester", "tester@example.com", true)
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)

	_, err = ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	SetJWTSecretForTesting("test-secret-for-jwt-roundtrip")

	token, _, _, err := GenerateTokenWithTTL(7, "tester", "tester@example.com", false, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	SetJWTSecretForTesting("first-secret")
	token, _, _, err := GenerateToken(7, "tester", "tester@example.com", false)
	require.NoError(t, err)

	SetJWTSecretForTesting("second-secret")
	_, err = ParseToken(token)
	assert.Error(t, err)
}
