package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyPairDeterministic(t *testing.T) {
	a := DeriveKeyPair([]byte("alice"))
	b := DeriveKeyPair([]byte("alice"))
	c := DeriveKeyPair([]byte("bob"))

	assert.Equal(t, a.PublicKey(), b.PublicKey())
	assert.Equal(t, a.Address(), b.Address())
	assert.NotEqual(t, a.Address(), c.Address())
	assert.Len(t, a.PublicKey(), 33)
	assert.Equal(t, "03159cb11fe495536e4aee05a410ac67947d5b055f57ca025f319523c0a9e6dd21", hex.EncodeToString(a.PublicKey()))
	assert.Equal(t, "0x4264f6685f2fd4e17eb40aad240700b4b44fbfe6", a.Address().String())
}

func TestSignAndVerify(t *testing.T) {
	key := DeriveKeyPair([]byte("alice"))
	msg := []byte(`{"account":"0x01","method":"make_offer"}`)

	sig := key.Sign(msg)
	require.NoError(t, Verify(key.PublicKey(), msg, sig))

	assert.ErrorIs(t, Verify(key.PublicKey(), []byte("tampered"), sig), ErrInvalidSignature)

	other := DeriveKeyPair([]byte("mallory"))
	assert.ErrorIs(t, Verify(other.PublicKey(), msg, sig), ErrInvalidSignature)

	assert.ErrorIs(t, Verify([]byte{0x02, 0x01}, msg, sig), ErrInvalidPublicKey)
	assert.ErrorIs(t, Verify(key.PublicKey(), msg, []byte{0x30, 0x00}), ErrInvalidSignature)
}

func TestGenerateSeed(t *testing.T) {
	a, err := GenerateSeed()
	require.NoError(t, err)
	b, err := GenerateSeed()
	require.NoError(t, err)

	assert.Len(t, a, 2*SeedSize)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, DeriveKeyPair([]byte(a)).Address(), DeriveKeyPair([]byte(b)).Address())
}
