package settlement

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/custody"
	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Registry operations act on the registry currently named in the params.

func (e *Engine) CreateFeeEntry(ctx context.Context, caller types.Address, entry fees.Entry) error {
	_, err := e.apply(ctx, OpRegistry, caller, func(s *session, r *Receipt) error {
		r.Detail = fmt.Sprintf("create collection=%s", entry.Collection)
		return s.registry.CreateEntry(caller, entry)
	})
	return err
}

func (e *Engine) UpdateBuyingFee(ctx context.Context, caller types.Address, collection types.CollectionID, bps types.Bps) error {
	_, err := e.apply(ctx, OpRegistry, caller, func(s *session, r *Receipt) error {
		r.Detail = fmt.Sprintf("collection=%s buying_fee_bps=%d", collection, bps)
		return s.registry.UpdateBuyingFee(caller, collection, bps)
	})
	return err
}

func (e *Engine) UpdateSellingFee(ctx context.Context, caller types.Address, collection types.CollectionID, bps types.Bps) error {
	_, err := e.apply(ctx, OpRegistry, caller, func(s *session, r *Receipt) error {
		r.Detail = fmt.Sprintf("collection=%s selling_fee_bps=%d", collection, bps)
		return s.registry.UpdateSellingFee(caller, collection, bps)
	})
	return err
}

func (e *Engine) UpdateFeeRecipient(ctx context.Context, caller types.Address, collection types.CollectionID, recipient types.Address) error {
	_, err := e.apply(ctx, OpRegistry, caller, func(s *session, r *Receipt) error {
		r.Detail = fmt.Sprintf("collection=%s fee_recipient=%s", collection, recipient)
		return s.registry.UpdateFeeRecipient(caller, collection, recipient)
	})
	return err
}

func (e *Engine) TransferRegistryOwnership(ctx context.Context, caller, newOwner types.Address) error {
	_, err := e.apply(ctx, OpRegistry, caller, func(s *session, r *Receipt) error {
		r.Detail = "owner=" + newOwner.String()
		return s.registry.TransferOwnership(caller, newOwner)
	})
	return err
}

func (e *Engine) FeeEntry(ctx context.Context, collection types.CollectionID) (*fees.Entry, error) {
	var entry *fees.Entry
	err := e.read(ctx, func(s *session) error {
		var err error
		entry, err = s.registry.GetFeeEntry(collection)
		return err
	})
	return entry, err
}

func (e *Engine) FeeEntries(ctx context.Context) ([]*fees.Entry, error) {
	var entries []*fees.Entry
	err := e.read(ctx, func(s *session) error {
		var err error
		entries, err = fees.ListEntries(ctx, e.store, s.params.RoyaltyRegistry)
		return err
	})
	return entries, err
}

func (e *Engine) RegistryOwner(ctx context.Context) (types.Address, error) {
	var owner types.Address
	err := e.read(ctx, func(s *session) error {
		var err error
		owner, err = s.registry.Owner()
		return err
	})
	return owner, err
}

// TokenMint credits the current payment token. Administrator only.
func (e *Engine) TokenMint(ctx context.Context, caller, to types.Address, amount sdkmath.Int) error {
	_, err := e.apply(ctx, OpTokenMint, caller, func(s *session, r *Receipt) error {
		if err := isAdmin(s.params, caller); err != nil {
			return err
		}
		if err := s.notEscrow(to); err != nil {
			return err
		}
		if err := s.funds.Mint(to, amount); err != nil {
			return err
		}
		r.transfer(types.ZeroAddress, to, amount)
		return nil
	})
	return err
}

func (e *Engine) TokenApprove(ctx context.Context, caller, spender types.Address, amount sdkmath.Int) error {
	_, err := e.apply(ctx, OpTokenApprove, caller, func(s *session, r *Receipt) error {
		r.Detail = fmt.Sprintf("spender=%s amount=%s", spender, amount)
		return s.funds.Approve(caller, spender, amount)
	})
	return err
}

func (e *Engine) TokenTransfer(ctx context.Context, caller, to types.Address, amount sdkmath.Int) error {
	_, err := e.apply(ctx, OpTokenTransfer, caller, func(s *session, r *Receipt) error {
		if err := s.notEscrow(to); err != nil {
			return err
		}
		if err := s.funds.Transfer(caller, to, amount); err != nil {
			return err
		}
		r.transfer(caller, to, amount)
		return nil
	})
	return err
}

func (e *Engine) TokenBalance(ctx context.Context, account types.Address) (sdkmath.Int, error) {
	var balance sdkmath.Int
	err := e.read(ctx, func(s *session) error {
		var err error
		balance, err = s.funds.BalanceOf(account)
		return err
	})
	return balance, err
}

func (e *Engine) TokenAllowance(ctx context.Context, owner, spender types.Address) (sdkmath.Int, error) {
	var allowance sdkmath.Int
	err := e.read(ctx, func(s *session) error {
		var err error
		allowance, err = s.funds.Allowance(owner, spender)
		return err
	})
	return allowance, err
}

// AssetMint creates an asset on the current asset contract. Administrator
// only.
func (e *Engine) AssetMint(ctx context.Context, caller types.Address, asset custody.Asset) error {
	_, err := e.apply(ctx, OpAssetMint, caller, func(s *session, r *Receipt) error {
		if err := isAdmin(s.params, caller); err != nil {
			return err
		}
		r.Asset = asset.ID
		r.Detail = fmt.Sprintf("owner=%s collection=%s", asset.Owner, asset.Collection)
		return s.assets.Mint(asset.ID, asset.Owner, asset.Collection)
	})
	return err
}

// AssetInfo is an asset and, when it is parked, the buyer who may claim it.
type AssetInfo struct {
	custody.Asset
	ClaimableBy *types.Address `json:"claimable_by,omitempty"`
}

func (e *Engine) AssetInfo(ctx context.Context, id types.AssetID) (*AssetInfo, error) {
	var info *AssetInfo
	err := e.read(ctx, func(s *session) error {
		a, err := s.assets.Get(id)
		if err != nil {
			return err
		}
		info = &AssetInfo{Asset: *a}
		buyer, ok, err := s.assets.PendingClaim(id)
		if err != nil {
			return err
		}
		if ok {
			info.ClaimableBy = &buyer
		}
		return nil
	})
	return info, err
}

// AssetBalance returns 1 if owner holds asset id and 0 otherwise.
func (e *Engine) AssetBalance(ctx context.Context, owner types.Address, id types.AssetID) (uint64, error) {
	var n uint64
	err := e.read(ctx, func(s *session) error {
		var err error
		n, err = s.assets.BalanceOf(owner, id)
		return err
	})
	return n, err
}

// AssetHoldings returns how many assets owner holds on the current contract.
func (e *Engine) AssetHoldings(ctx context.Context, owner types.Address) (uint64, error) {
	var n uint64
	err := e.read(ctx, func(s *session) error {
		var err error
		n, err = s.assets.Holdings(owner)
		return err
	})
	return n, err
}
