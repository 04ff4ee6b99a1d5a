// Package custody tracks which party holds each non-fungible asset.
package custody

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Asset is one non-fungible asset and its current custodian.
type Asset struct {
	ID         types.AssetID      `json:"asset_id"`
	Owner      types.Address      `json:"owner"`
	Collection types.CollectionID `json:"collection_id"`
}

type assetRecord struct {
	Owner      types.Address `codec:"owner"`
	Collection uint64        `codec:"collection"`
}

type holdingRecord struct {
	Count uint64 `codec:"count"`
}

type claimRecord struct {
	Buyer types.Address `codec:"buyer"`
}

// Custodian is the asset contract at one address.
type Custodian struct {
	view     state.View
	contract types.Address
}

func NewCustodian(view state.View, contract types.Address) *Custodian {
	return &Custodian{view: view, contract: contract}
}

func (c *Custodian) Contract() types.Address {
	return c.contract
}

// Mint creates asset id held by owner.
func (c *Custodian) Mint(id types.AssetID, owner types.Address, collection types.CollectionID) error {
	if owner.IsZero() {
		return errorsmod.Wrap(types.ErrZeroAddress, "asset owner")
	}
	exists, err := c.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return errorsmod.Wrapf(types.ErrAssetExists, "asset %s", id)
	}
	rec := &assetRecord{Owner: owner, Collection: uint64(collection)}
	if err := state.Create(c.view, keylet.Asset(c.contract, id), rec); err != nil {
		return err
	}
	return c.adjustHolding(owner, 1)
}

func (c *Custodian) Exists(id types.AssetID) (bool, error) {
	return c.view.Exists(keylet.Asset(c.contract, id))
}

// Get returns asset id or fails with ErrAssetNotFound.
func (c *Custodian) Get(id types.AssetID) (*Asset, error) {
	rec, err := state.Load[assetRecord](c.view, keylet.Asset(c.contract, id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errorsmod.Wrapf(types.ErrAssetNotFound, "asset %s", id)
	}
	return &Asset{ID: id, Owner: rec.Owner, Collection: types.CollectionID(rec.Collection)}, nil
}

func (c *Custodian) OwnerOf(id types.AssetID) (types.Address, error) {
	asset, err := c.Get(id)
	if err != nil {
		return types.ZeroAddress, err
	}
	return asset.Owner, nil
}

// BalanceOf returns 1 when owner holds asset id and 0 otherwise.
func (c *Custodian) BalanceOf(owner types.Address, id types.AssetID) (uint64, error) {
	rec, err := state.Load[assetRecord](c.view, keylet.Asset(c.contract, id))
	if err != nil || rec == nil || rec.Owner != owner {
		return 0, err
	}
	return 1, nil
}

// Holdings returns how many assets of this contract owner holds.
func (c *Custodian) Holdings(owner types.Address) (uint64, error) {
	rec, err := state.Load[holdingRecord](c.view, keylet.Holding(c.contract, owner))
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Count, nil
}

// TransferCustody moves asset id from its current holder to to.
func (c *Custodian) TransferCustody(id types.AssetID, from, to types.Address) error {
	if to.IsZero() {
		return errorsmod.Wrap(types.ErrZeroAddress, "custody recipient")
	}
	asset, err := c.Get(id)
	if err != nil {
		return err
	}
	if asset.Owner != from {
		return errorsmod.Wrapf(types.ErrUnauthorized, "asset %s is held by %s, not %s", id, asset.Owner, from)
	}
	if from == to {
		return nil
	}

	rec := &assetRecord{Owner: to, Collection: uint64(asset.Collection)}
	if err := state.Save(c.view, keylet.Asset(c.contract, id), rec); err != nil {
		return err
	}
	if err := c.adjustHolding(from, -1); err != nil {
		return err
	}
	return c.adjustHolding(to, 1)
}

func (c *Custodian) adjustHolding(owner types.Address, delta int) error {
	k := keylet.Holding(c.contract, owner)
	count, err := c.Holdings(owner)
	if err != nil {
		return err
	}
	if delta < 0 && count == 0 {
		return errorsmod.Wrapf(types.ErrAssetNotFound, "%s holds no assets", owner)
	}
	count = uint64(int64(count) + int64(delta))
	if count == 0 {
		return c.view.Erase(k)
	}
	return state.Save(c.view, k, &holdingRecord{Count: count})
}

// Park moves asset id from seller into the custodian account and records
// buyer as the party entitled to claim it.
func (c *Custodian) Park(id types.AssetID, seller, custodian, buyer types.Address) error {
	if err := c.TransferCustody(id, seller, custodian); err != nil {
		return err
	}
	return state.Save(c.view, keylet.Claim(c.contract, id), &claimRecord{Buyer: buyer})
}

// PendingClaim returns the buyer entitled to a parked asset.
func (c *Custodian) PendingClaim(id types.AssetID) (types.Address, bool, error) {
	rec, err := state.Load[claimRecord](c.view, keylet.Claim(c.contract, id))
	if err != nil || rec == nil {
		return types.ZeroAddress, false, err
	}
	return rec.Buyer, true, nil
}

// Claim releases a parked asset from custodian to its buyer.
func (c *Custodian) Claim(id types.AssetID, custodian, buyer types.Address) error {
	entitled, ok, err := c.PendingClaim(id)
	if err != nil {
		return err
	}
	if !ok {
		return errorsmod.Wrapf(types.ErrNoPendingClaim, "asset %s", id)
	}
	if entitled != buyer {
		return errorsmod.Wrapf(types.ErrUnauthorized, "asset %s is claimable by %s only", id, entitled)
	}
	if err := c.TransferCustody(id, custodian, buyer); err != nil {
		return err
	}
	return c.view.Erase(keylet.Claim(c.contract, id))
}
