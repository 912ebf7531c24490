package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/adminpanel/pkg/auth"
)

func TestResolveActor(t *testing.T) {
	t.Run("resolves from primary claim", func(t *testing.T) {
		id, err := ResolveActor(auth.Claims{"nameid": "42"})
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("falls back to legacy subject claim", func(t *testing.T) {
		id, err := ResolveActor(auth.Claims{"sub": "7"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	})

	t.Run("primary claim wins over legacy", func(t *testing.T) {
		id, err := ResolveActor(auth.Claims{"nameid": "42", "sub": "7"})
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("no claims present", func(t *testing.T) {
		_, err := ResolveActor(auth.Claims{})
		assert.ErrorIs(t, err, ErrIdentityMissing)
	})

	t.Run("nil claim set", func(t *testing.T) {
		_, err := ResolveActor(nil)
		assert.ErrorIs(t, err, ErrIdentityMissing)
	})

	t.Run("non-numeric claim is malformed", func(t *testing.T) {
		_, err := ResolveActor(auth.Claims{"nameid": "alice@example.com"})
		var malformed *MalformedIdentityError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "nameid", malformed.Claim)
		assert.Equal(t, "alice@example.com", malformed.Raw)
	})

	t.Run("zero is malformed", func(t *testing.T) {
		_, err := ResolveActor(auth.Claims{"nameid": "0"})
		var malformed *MalformedIdentityError
		assert.ErrorAs(t, err, &malformed)
	})

	t.Run("negative is malformed", func(t *testing.T) {
		_, err := ResolveActor(auth.Claims{"sub": "-3"})
		var malformed *MalformedIdentityError
		assert.ErrorAs(t, err, &malformed)
	})

	t.Run("malformed primary does not fall through to legacy", func(t *testing.T) {
		_, err := ResolveActor(auth.Claims{"nameid": "bogus", "sub": "7"})
		var malformed *MalformedIdentityError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "nameid", malformed.Claim)
	})
}
