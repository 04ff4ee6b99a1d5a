package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcAccountID(t *testing.T) {
	tests := []struct {
		name      string
		publicKey string
		accountID string
	}{
		{
			name:      "key derived from seed alice",
			publicKey: "03159cb11fe495536e4aee05a410ac67947d5b055f57ca025f319523c0a9e6dd21",
			accountID: "4264f6685f2fd4e17eb40aad240700b4b44fbfe6",
		},
		{
			name:      "compressed secp256k1 key",
			publicKey: "0330E7FC9D56BB25D6893BA3F317AE5BCF33B3291BD63DB32654A313222F7FD020",
			accountID: "b5f762798a53d543a014caf8b297cff8f2f937e8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pubKey, err := hex.DecodeString(tt.publicKey)
			require.NoError(t, err)

			accountID := CalcAccountID(pubKey)

			expectedID, err := hex.DecodeString(tt.accountID)
			require.NoError(t, err)

			assert.Equal(t, expectedID, accountID[:])
		})
	}
}

func TestEscrowAccount(t *testing.T) {
	a := EscrowAccount(1, 0)
	assert.Equal(t, a, EscrowAccount(1, 0))
	assert.NotEqual(t, a, EscrowAccount(1, 1))
	assert.NotEqual(t, a, EscrowAccount(2, 0))
	assert.NotEqual(t, types.ZeroAddress, a)
}

func TestSha512Half(t *testing.T) {
	h := Sha512Half([]byte("abc"))
	assert.Equal(t, "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a", hex.EncodeToString(h[:]))
}
