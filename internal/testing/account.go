package testing

import (
	"crypto/sha512"
	"fmt"

	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/crypto"
)

// Account represents a test account with keypair and address information.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// Seed is the seed bytes used to derive the keypair.
	Seed []byte

	// PublicKey is the 33-byte compressed secp256k1 public key.
	PublicKey []byte

	// Address is the 20-byte account ID derived from the public key.
	Address types.Address

	keys *crypto.KeyPair
}

// NewAccount creates a new test account with a deterministic keypair derived from the name.
// Using the same name will always produce the same account, making tests reproducible.
func NewAccount(name string) *Account {
	return NewAccountFromPassphrase(name, name)
}

// NewAccountFromPassphrase creates a test account from a specific passphrase.
func NewAccountFromPassphrase(name, passphrase string) *Account {
	hash := sha512.Sum512([]byte(passphrase))
	seed := hash[:16]

	keys := crypto.DeriveKeyPair(seed)
	return &Account{
		Name:      name,
		Seed:      seed,
		PublicKey: keys.PublicKey(),
		Address:   keys.Address(),
		keys:      keys,
	}
}

// Sign returns the account's DER signature over msg.
func (a *Account) Sign(msg []byte) []byte {
	return a.keys.Sign(msg)
}

// Human returns the hex address.
func (a *Account) Human() string {
	return a.Address.String()
}

func (a *Account) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Address)
}
