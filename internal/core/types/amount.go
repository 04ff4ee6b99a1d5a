package types

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// MaxAmountBits bounds every amount so that fee products and balance sums
// stay within the 256-bit range of sdkmath.Int.
const MaxAmountBits = 192

// ParseAmount parses a non-negative base-10 integer amount.
func ParseAmount(s string) (sdkmath.Int, error) {
	amt, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrInvalidAmount, "%q is not an integer", s)
	}
	if amt.IsNegative() {
		return sdkmath.Int{}, errorsmod.Wrapf(ErrInvalidAmount, "%s is negative", s)
	}
	if err := ValidateAmount(amt); err != nil {
		return sdkmath.Int{}, err
	}
	return amt, nil
}

// AmountOrZero returns s parsed, or zero when s is empty or malformed.
// Used when decoding records written by this process.
func AmountOrZero(s string) sdkmath.Int {
	if s == "" {
		return sdkmath.ZeroInt()
	}
	amt, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.ZeroInt()
	}
	return amt
}

// ValidateAmount rejects nil, negative and oversized amounts.
func ValidateAmount(amt sdkmath.Int) error {
	if amt.IsNil() || amt.IsNegative() {
		return errorsmod.Wrap(ErrInvalidAmount, "amount must be non-negative")
	}
	if amt.BigInt().BitLen() > MaxAmountBits {
		return errorsmod.Wrapf(ErrInvalidAmount, "amount exceeds %d bits", MaxAmountBits)
	}
	return nil
}
