// Package keylet computes the storage key of every record kind.
//
// Keys are ordered byte strings: a one byte space identifier followed by
// fixed-width big-endian components. Records that need to be walked in order
// (offers of one asset, fee entries of one registry) share a prefix.
package keylet

import (
	"encoding/binary"
	"fmt"

	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Space identifiers for keylet generation
const (
	spaceParams        byte = 'p' // Market parameters (singleton)
	spaceOfferCount    byte = 'n' // Next offer index per asset
	spaceOffer         byte = 'o' // Offer
	spaceEscrow        byte = 'e' // Escrow arena record
	spaceBalance       byte = 'b' // Token balance
	spaceAllowance     byte = 'a' // Token allowance
	spaceSupply        byte = 'S' // Token supply
	spaceAsset         byte = 's' // Asset record
	spaceHolding       byte = 'h' // Asset count per owner
	spaceClaim         byte = 'c' // Pending asset claim
	spaceFeeEntry      byte = 'r' // Collection fee entry
	spaceRegistryOwner byte = 'R' // Fee registry owner
	spaceSequence      byte = 'q' // Last signed call sequence per account
)

// Keylet represents an addressable location in the state store.
type Keylet struct {
	Type byte
	Key  []byte
}

func (k Keylet) String() string {
	return fmt.Sprintf("%c:%x", k.Type, k.Key[1:])
}

func build(space byte, parts ...[]byte) Keylet {
	size := 1
	for _, p := range parts {
		size += len(p)
	}
	key := make([]byte, 0, size)
	key = append(key, space)
	for _, p := range parts {
		key = append(key, p...)
	}
	return Keylet{Type: space, Key: key}
}

func u64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func u32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// Params returns the keylet of the market parameters record.
func Params() Keylet {
	return build(spaceParams)
}

// OfferCount returns the keylet of an asset's next-offer-index counter.
func OfferCount(asset types.AssetID) Keylet {
	return build(spaceOfferCount, u64(uint64(asset)))
}

// Offer returns the keylet of one offer.
func Offer(asset types.AssetID, index types.OfferIndex) Keylet {
	return build(spaceOffer, u64(uint64(asset)), u32(uint32(index)))
}

// OfferPrefix returns the prefix shared by all offers; offers sort by
// asset then index beneath it.
func OfferPrefix() []byte {
	return []byte{spaceOffer}
}

// ParseOffer extracts asset and index from an offer key.
func ParseOffer(key []byte) (types.AssetID, types.OfferIndex, bool) {
	if len(key) != 13 || key[0] != spaceOffer {
		return 0, 0, false
	}
	return types.AssetID(binary.BigEndian.Uint64(key[1:9])), types.OfferIndex(binary.BigEndian.Uint32(key[9:13])), true
}

// Escrow returns the keylet of an escrow arena record.
func Escrow(account types.Address) Keylet {
	return build(spaceEscrow, account[:])
}

// Balance returns the keylet of owner's balance of token.
func Balance(token, owner types.Address) Keylet {
	return build(spaceBalance, token[:], owner[:])
}

// Allowance returns the keylet of the amount spender may pull from owner.
func Allowance(token, owner, spender types.Address) Keylet {
	return build(spaceAllowance, token[:], owner[:], spender[:])
}

// Supply returns the keylet of a token's total supply.
func Supply(token types.Address) Keylet {
	return build(spaceSupply, token[:])
}

// Asset returns the keylet of an asset record within an asset contract.
func Asset(contract types.Address, id types.AssetID) Keylet {
	return build(spaceAsset, contract[:], u64(uint64(id)))
}

// Holding returns the keylet of the number of assets owner holds.
func Holding(contract, owner types.Address) Keylet {
	return build(spaceHolding, contract[:], owner[:])
}

// Claim returns the keylet of a parked asset awaiting its buyer.
func Claim(contract types.Address, id types.AssetID) Keylet {
	return build(spaceClaim, contract[:], u64(uint64(id)))
}

// FeeEntry returns the keylet of a collection's fee entry.
func FeeEntry(registry types.Address, collection types.CollectionID) Keylet {
	return build(spaceFeeEntry, registry[:], u64(uint64(collection)))
}

// FeeEntryPrefix returns the prefix shared by a registry's fee entries.
func FeeEntryPrefix(registry types.Address) []byte {
	return build(spaceFeeEntry, registry[:]).Key
}

// RegistryOwner returns the keylet of a fee registry's owner record.
func RegistryOwner(registry types.Address) Keylet {
	return build(spaceRegistryOwner, registry[:])
}

// Sequence is the last signed call sequence consumed by account.
func Sequence(account types.Address) Keylet {
	return build(spaceSequence, account[:])
}
