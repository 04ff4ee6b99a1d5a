package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"

	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/decred/dcrd/crypto/ripemd160"
)

// escrowDomain separates escrow account derivation from key-derived accounts.
var escrowDomain = []byte("market/escrow")

// CalcAccountID computes the address controlled by a public key as
// RIPEMD160(SHA256(publicKey)).
func CalcAccountID(publicKey []byte) types.Address {
	return hash160(publicKey)
}

// EscrowAccount derives the segregated holding address of one offer. Nobody
// holds a key for it; only the escrow manager moves funds out of it.
func EscrowAccount(asset types.AssetID, index types.OfferIndex) types.Address {
	buf := make([]byte, 0, len(escrowDomain)+12)
	buf = append(buf, escrowDomain...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(asset))
	buf = binary.BigEndian.AppendUint32(buf, uint32(index))
	return hash160(buf)
}

// Sha512Half returns the first 32 bytes of the SHA-512 digest of msg.
func Sha512Half(msg []byte) [32]byte {
	h := sha512.Sum512(msg)
	var result [32]byte
	copy(result[:], h[:32])
	return result
}

func hash160(data []byte) types.Address {
	sha256Hash := sha256.Sum256(data)

	hasher := ripemd160.New()
	hasher.Write(sha256Hash[:])

	return types.BytesToAddress(hasher.Sum(nil))
}
