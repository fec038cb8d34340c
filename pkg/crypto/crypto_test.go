package crypto

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-oath/oathcard/pkg/oathtypes"
)

func TestDeriveKey(t *testing.T) {
	deviceID := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	key := DeriveKey(deviceID, "hunter2")
	assert.Len(t, key, 16)

	// Deterministic for the same inputs.
	assert.Equal(t, key, DeriveKey(deviceID, "hunter2"))

	// Sensitive to both salt and passphrase.
	assert.NotEqual(t, key, DeriveKey([]byte{0xff}, "hunter2"))
	assert.NotEqual(t, key, DeriveKey(deviceID, "hunter3"))
}

func TestShortenKey(t *testing.T) {
	t.Run("short key passes through", func(t *testing.T) {
		key := []byte("12345678901234567890")

		shortened, err := ShortenKey(key, oathtypes.AlgorithmSHA1)
		require.NoError(t, err)
		assert.Equal(t, key, shortened)
	})

	t.Run("block sized key passes through", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xaa}, 64)

		shortened, err := ShortenKey(key, oathtypes.AlgorithmSHA1)
		require.NoError(t, err)
		assert.Equal(t, key, shortened)
	})

	t.Run("long key is hashed down", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xbb}, 65)
		digest := sha1.Sum(key)

		shortened, err := ShortenKey(key, oathtypes.AlgorithmSHA1)
		require.NoError(t, err)
		assert.Equal(t, digest[:], shortened)
	})

	t.Run("sha256 digest length", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xcc}, 100)
		digest := sha256.Sum256(key)

		shortened, err := ShortenKey(key, oathtypes.AlgorithmSHA256)
		require.NoError(t, err)
		assert.Equal(t, digest[:], shortened)
	})

	t.Run("idempotent once shortened", func(t *testing.T) {
		key := bytes.Repeat([]byte{0xdd}, 200)

		once, err := ShortenKey(key, oathtypes.AlgorithmSHA1)
		require.NoError(t, err)
		twice, err := ShortenKey(once, oathtypes.AlgorithmSHA1)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := ShortenKey([]byte("key"), oathtypes.Algorithm(0x03))
		assert.ErrorIs(t, err, oathtypes.ErrUnknownAlgorithm)
	})
}

// RFC 2202 test case 1.
func TestResponse(t *testing.T) {
	key := bytes.Repeat([]byte{0x0b}, 20)

	got := Response(key, []byte("Hi There"))
	assert.Equal(t, "b617318655057264e28bc0b6fb378c8ef146be00", hex.EncodeToString(got))
}

func TestNewChallenge(t *testing.T) {
	a, err := NewChallenge()
	require.NoError(t, err)
	assert.Len(t, a, 8)

	b, err := NewChallenge()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
