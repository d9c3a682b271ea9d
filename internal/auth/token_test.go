package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParseRoundTrip(t *testing.T) {
	token, err := Sign("secret", "open-1", "Jane", "jane@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := Parse("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "open-1", claims.OpenID())
	assert.Equal(t, "Jane", claims.Name)
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := Sign("secret", "open-1", "", "", time.Hour)
	require.NoError(t, err)

	_, err = Parse("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := Sign("secret", "open-1", "", "", -time.Minute)
	require.NoError(t, err)

	_, err = Parse("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	token, err := Sign("secret", "", "", "", time.Hour)
	require.NoError(t, err)

	_, err = Parse("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("secret", "definitely.not.a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
