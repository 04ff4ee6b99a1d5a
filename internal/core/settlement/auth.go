package settlement

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/LeJamon/goMarketd/internal/core/custody"
	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// isSeller returns the asset if caller currently holds it. action names the
// refused operation in the error.
func (s *session) isSeller(asset types.AssetID, caller types.Address, action string) (*custody.Asset, error) {
	a, err := s.assets.Get(asset)
	if err != nil {
		return nil, err
	}
	if a.Owner != caller {
		return nil, errorsmod.Wrapf(types.ErrUnauthorized, "only the seller of this asset may %s: asset %s is held by %s", action, asset, a.Owner)
	}
	return a, nil
}

func isBuyer(o *offer.Offer, caller types.Address) error {
	if o.Buyer != caller {
		return errorsmod.Wrapf(types.ErrUnauthorized, "asset %s offer %s belongs to %s", o.Asset, o.Index, o.Buyer)
	}
	return nil
}

func isAdmin(p *Params, caller types.Address) error {
	if p.Admin != caller {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the marketplace administrator", caller)
	}
	return nil
}

// notEscrow refuses direct credits to an escrow account: only Hold may fund
// one, so its balance always equals the held amount.
func (s *session) notEscrow(to types.Address) error {
	isEscrow, err := s.escrow.IsEscrow(to)
	if err != nil {
		return err
	}
	if isEscrow {
		return errorsmod.Wrapf(types.ErrInvalidAddress, "%s is an escrow account", to)
	}
	return nil
}
