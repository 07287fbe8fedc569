package secrets_test

import (
	"testing"

	"github.com/jrsteele09/mentions-console/internal/secrets"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	c, err := secrets.NewCipher([]byte("console-secret"))
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("bearer-token"))
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "bearer-token")

	again, err := c.Seal([]byte("bearer-token"))
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "nonce must differ per seal")

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "bearer-token", string(opened))
}

func TestOpenWithOtherKeyFails(t *testing.T) {
	a, err := secrets.NewCipher([]byte("key-a"))
	require.NoError(t, err)
	b, err := secrets.NewCipher([]byte("key-b"))
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("token"))
	require.NoError(t, err)
	_, err = b.Open(sealed)
	require.Error(t, err)

	_, err = a.Open([]byte("x"))
	require.Error(t, err)
}

func TestEmptySecretRejected(t *testing.T) {
	_, err := secrets.NewCipher(nil)
	require.Error(t, err)

	random, err := secrets.RandomSecret(32)
	require.NoError(t, err)
	require.Len(t, random, 32)
}
