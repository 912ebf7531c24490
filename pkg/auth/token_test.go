package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	v := NewTokenValidator("test-signing-key", "adminpanel", "adminpanel-api")

	token, err := v.GenerateToken("42", "users:write audit:read", time.Hour)
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)

	nameID, ok := claims.Get(ClaimNameID)
	require.True(t, ok)
	assert.Equal(t, "42", nameID)

	sub, ok := claims.Get(ClaimSub)
	require.True(t, ok)
	assert.Equal(t, "42", sub)

	assert.Equal(t, []string{"users:write", "audit:read"}, claims.Scopes())
	assert.True(t, claims.HasScope("audit:read"))
	assert.False(t, claims.HasScope("roles:write"))
}

func TestValidateTokenRejections(t *testing.T) {
	v := NewTokenValidator("test-signing-key", "adminpanel", "adminpanel-api")

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewTokenValidator("different-key", "adminpanel", "adminpanel-api")
		token, err := other.GenerateToken("42", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := v.GenerateToken("42", "", -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenValidator("test-signing-key", "someone-else", "adminpanel-api")
		token, err := other.GenerateToken("42", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestHasScopeWildcard(t *testing.T) {
	claims := Claims{ClaimScope: "*"}
	assert.True(t, claims.HasScope("anything:at-all"))
}
