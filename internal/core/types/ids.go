package types

import (
	"strconv"

	errorsmod "cosmossdk.io/errors"
)

// AssetID identifies a non-fungible asset within an asset contract.
type AssetID uint64

// CollectionID identifies the collection an asset belongs to. Fee entries
// are registered per collection.
type CollectionID uint64

// OfferIndex is the position of an offer within its asset's offer sequence.
type OfferIndex uint32

func (id AssetID) String() string      { return strconv.FormatUint(uint64(id), 10) }
func (id CollectionID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (i OfferIndex) String() string    { return strconv.FormatUint(uint64(i), 10) }

// Bps is a rate in basis points, 10000 meaning 100%.
type Bps uint32

// MaxBps is the upper bound of every fee rate.
const MaxBps Bps = 10000

// Validate rejects rates above MaxBps.
func (b Bps) Validate() error {
	if b > MaxBps {
		return errorsmod.Wrapf(ErrInvalidFeeRate, "%d bps exceeds %d", b, MaxBps)
	}
	return nil
}
