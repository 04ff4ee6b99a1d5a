// Package fees sizes buyer and seller fees and keeps the per-collection fee
// registry.
package fees

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/types"
)

var bpsDenominator = sdkmath.NewInt(int64(types.MaxBps))

// Policy decides how the global market rates combine with a collection's
// registry entry.
type Policy string

const (
	// PolicyStacked charges the global rate plus the collection rate.
	PolicyStacked Policy = "stacked"
	// PolicyOverride lets a collection entry replace the global rate.
	PolicyOverride Policy = "override"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyStacked, PolicyOverride:
		return p, nil
	case "":
		return PolicyStacked, nil
	default:
		return "", fmt.Errorf("unknown fee policy %q", s)
	}
}

// BuyerFee returns floor(amount * bps / 10000).
func BuyerFee(amount sdkmath.Int, bps types.Bps) (sdkmath.Int, error) {
	return applyRate(amount, bps)
}

// SellerFee returns floor(amount * bps / 10000).
func SellerFee(amount sdkmath.Int, bps types.Bps) (sdkmath.Int, error) {
	return applyRate(amount, bps)
}

func applyRate(amount sdkmath.Int, bps types.Bps) (sdkmath.Int, error) {
	if err := bps.Validate(); err != nil {
		return sdkmath.Int{}, err
	}
	if err := types.ValidateAmount(amount); err != nil {
		return sdkmath.Int{}, err
	}
	return amount.Mul(sdkmath.NewInt(int64(bps))).Quo(bpsDenominator), nil
}

// Calculator resolves effective rates under a Policy. It holds no state.
type Calculator struct {
	Policy Policy
}

// BuyerRate is the rate used to size an offer's fee. entry may be nil.
func (c Calculator) BuyerRate(global types.Bps, entry *Entry) (types.Bps, error) {
	if entry == nil {
		return global, global.Validate()
	}
	rate := entry.BuyingFeeBps
	if c.Policy != PolicyOverride {
		rate += global
	}
	if err := rate.Validate(); err != nil {
		return 0, errorsmod.Wrapf(err, "buyer rate for collection %s", entry.Collection)
	}
	return rate, nil
}

// OfferFee is the fee a buyer escrows alongside amount.
func (c Calculator) OfferFee(amount sdkmath.Int, global types.Bps, entry *Entry) (sdkmath.Int, error) {
	rate, err := c.BuyerRate(global, entry)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return BuyerFee(amount, rate)
}

// SaleSplit is how an accepted offer's principal is divided.
type SaleSplit struct {
	House     sdkmath.Int
	Royalty   sdkmath.Int
	Recipient types.Address
	Seller    sdkmath.Int
}

// SplitSale divides amount between house, collection fee recipient and
// seller. Acceptance cannot proceed without a registry entry.
func (c Calculator) SplitSale(amount sdkmath.Int, global types.Bps, entry *Entry) (SaleSplit, error) {
	if entry == nil {
		return SaleSplit{}, types.ErrCollectionNotFound
	}
	if err := entry.Validate(); err != nil {
		return SaleSplit{}, err
	}

	houseRate := global
	if c.Policy == PolicyOverride {
		houseRate = 0
	}
	if err := (houseRate + entry.SellingFeeBps).Validate(); err != nil {
		return SaleSplit{}, errorsmod.Wrapf(err, "seller rate for collection %s", entry.Collection)
	}

	house, err := SellerFee(amount, houseRate)
	if err != nil {
		return SaleSplit{}, err
	}
	royalty, err := SellerFee(amount, entry.SellingFeeBps)
	if err != nil {
		return SaleSplit{}, err
	}

	return SaleSplit{
		House:     house,
		Royalty:   royalty,
		Recipient: entry.FeeRecipient,
		Seller:    amount.Sub(house).Sub(royalty),
	}, nil
}
