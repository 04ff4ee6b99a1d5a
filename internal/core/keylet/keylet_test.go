package keylet

import (
	"bytes"
	"testing"

	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/stretchr/testify/assert"
)

func TestOfferKeysSortInCreationOrder(t *testing.T) {
	k0 := Offer(7, 0).Key
	k1 := Offer(7, 1).Key
	k256 := Offer(7, 256).Key
	next := Offer(8, 0).Key

	assert.Negative(t, bytes.Compare(k0, k1))
	assert.Negative(t, bytes.Compare(k1, k256))
	assert.Negative(t, bytes.Compare(k256, next))
	assert.True(t, bytes.HasPrefix(k0, OfferPrefix()))
}

func TestParseOffer(t *testing.T) {
	asset, index, ok := ParseOffer(Offer(42, 3).Key)
	assert.True(t, ok)
	assert.Equal(t, types.AssetID(42), asset)
	assert.Equal(t, types.OfferIndex(3), index)

	_, _, ok = ParseOffer(Escrow(types.ZeroAddress).Key)
	assert.False(t, ok)
}

func TestKeyletsAreDistinct(t *testing.T) {
	token := types.BytesToAddress([]byte{1})
	owner := types.BytesToAddress([]byte{2})

	keys := [][]byte{
		Params().Key,
		OfferCount(1).Key,
		Offer(1, 0).Key,
		Escrow(owner).Key,
		Balance(token, owner).Key,
		Allowance(token, owner, owner).Key,
		Supply(token).Key,
		Asset(token, 1).Key,
		Holding(token, owner).Key,
		Claim(token, 1).Key,
		FeeEntry(token, 1).Key,
		RegistryOwner(token).Key,
		Sequence(owner).Key,
	}

	seen := make(map[string]bool)
	for _, k := range keys {
		assert.False(t, seen[string(k)], "duplicate key %x", k)
		seen[string(k)] = true
	}
}

func TestFeeEntryPrefix(t *testing.T) {
	registry := types.BytesToAddress([]byte{9})
	assert.True(t, bytes.HasPrefix(FeeEntry(registry, 5).Key, FeeEntryPrefix(registry)))
	assert.False(t, bytes.HasPrefix(FeeEntry(types.BytesToAddress([]byte{8}), 5).Key, FeeEntryPrefix(registry)))
}
