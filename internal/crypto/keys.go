package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

var (
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrRandomGeneration = errors.New("failed to generate random bytes")
)

// SeedSize is the entropy of a generated seed.
const SeedSize = 16

// KeyPair is a secp256k1 signing key.
type KeyPair struct {
	priv *btcec.PrivateKey
}

// DeriveKeyPair deterministically derives a key from seed.
func DeriveKeyPair(seed []byte) *KeyPair {
	digest := Sha512Half(seed)
	defer clear(digest[:])
	priv, _ := btcec.PrivKeyFromBytes(digest[:])
	return &KeyPair{priv: priv}
}

// GenerateSeed returns a random hex seed for DeriveKeyPair.
func GenerateSeed() (string, error) {
	b := make([]byte, SeedSize)
	defer clear(b)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", ErrRandomGeneration
	}
	return hex.EncodeToString(b), nil
}

// PublicKey returns the 33-byte compressed public key.
func (k *KeyPair) PublicKey() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

func (k *KeyPair) Address() types.Address {
	return CalcAccountID(k.PublicKey())
}

// Sign returns a DER signature over Sha512Half(msg).
func (k *KeyPair) Sign(msg []byte) []byte {
	digest := Sha512Half(msg)
	return btcecdsa.Sign(k.priv, digest[:]).Serialize()
}

// Verify checks a DER signature produced by KeyPair.Sign.
func Verify(publicKey, msg, sig []byte) error {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	if ECDSACanonicality(sig) != CanonicityFullyCanonical {
		return fmt.Errorf("%w: not fully canonical", ErrInvalidSignature)
	}

	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	digest := Sha512Half(msg)
	if !parsed.Verify(digest[:], pub) {
		return ErrInvalidSignature
	}
	return nil
}
