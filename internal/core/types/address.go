package types

import (
	"encoding/hex"
	"strings"

	errorsmod "cosmossdk.io/errors"
)

// AddressSize is the size of an account or contract address in bytes.
const AddressSize = 20

// Address identifies an account, a contract namespace or an escrow account.
type Address [AddressSize]byte

// ZeroAddress is the null address. It is never a valid fee recipient.
var ZeroAddress Address

// ParseAddress decodes a 40 character hex string with optional 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*AddressSize {
		return a, errorsmod.Wrapf(ErrInvalidAddress, "%q: expected %d hex characters", s, 2*AddressSize)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, errorsmod.Wrapf(ErrInvalidAddress, "%q: %v", s, err)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BytesToAddress copies the trailing AddressSize bytes of b.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressSize {
		b = b[len(b)-AddressSize:]
	}
	copy(a[AddressSize-len(b):], b)
	return a
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
