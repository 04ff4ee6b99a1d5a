package offer

import (
	"context"
	"iter"

	errorsmod "cosmossdk.io/errors"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// AssetChecker reports whether an asset exists.
type AssetChecker interface {
	Exists(id types.AssetID) (bool, error)
}

type counterRecord struct {
	Next uint32 `codec:"next"`
}

// Ledger stores offers keyed by (asset, index). Offers are never removed;
// they leave the open set by a single status transition.
type Ledger struct {
	view   state.View
	assets AssetChecker
}

func NewLedger(view state.View, assets AssetChecker) *Ledger {
	return &Ledger{view: view, assets: assets}
}

// Count returns how many offers were ever appended for asset.
func (l *Ledger) Count(asset types.AssetID) (uint32, error) {
	rec, err := state.Load[counterRecord](l.view, keylet.OfferCount(asset))
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Next, nil
}

// NextIndex returns the index the next Append for asset will assign.
func (l *Ledger) NextIndex(asset types.AssetID) (types.OfferIndex, error) {
	n, err := l.Count(asset)
	return types.OfferIndex(n), err
}

// Append stores o as the next open offer of asset and returns its index.
func (l *Ledger) Append(asset types.AssetID, o *Offer) (types.OfferIndex, error) {
	exists, err := l.assets.Exists(asset)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, errorsmod.Wrapf(types.ErrAssetNotFound, "asset %s", asset)
	}

	next, err := l.Count(asset)
	if err != nil {
		return 0, err
	}

	index := types.OfferIndex(next)
	o.Asset = asset
	o.Index = index
	o.Status = StatusOpen
	o.ClosedAt = 0

	if err := state.Create(l.view, keylet.Offer(asset, index), newRecord(o)); err != nil {
		return 0, err
	}
	if err := state.Save(l.view, keylet.OfferCount(asset), &counterRecord{Next: next + 1}); err != nil {
		return 0, err
	}
	return index, nil
}

// Get returns one offer or fails with ErrOfferNotFound.
func (l *Ledger) Get(asset types.AssetID, index types.OfferIndex) (*Offer, error) {
	rec, err := state.Load[offerRecord](l.view, keylet.Offer(asset, index))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errorsmod.Wrapf(types.ErrOfferNotFound, "asset %s offer %s", asset, index)
	}
	return rec.offer(asset, index), nil
}

// SetStatus moves an open offer to a terminal status at time at.
func (l *Ledger) SetStatus(asset types.AssetID, index types.OfferIndex, status Status, at int64) error {
	o, err := l.Get(asset, index)
	if err != nil {
		return err
	}
	if o.Status.Terminal() {
		return errorsmod.Wrapf(types.ErrInvalidTransition, "asset %s offer %s is already %s", asset, index, o.Status)
	}
	if !status.Terminal() {
		return errorsmod.Wrapf(types.ErrInvalidTransition, "cannot move asset %s offer %s to %s", asset, index, status)
	}

	o.Status = status
	o.ClosedAt = at
	return state.Save(l.view, keylet.Offer(asset, index), newRecord(o))
}

// History yields every offer of asset in creation order.
func (l *Ledger) History(asset types.AssetID) iter.Seq2[*Offer, error] {
	return l.scan(asset, func(*Offer) bool { return true })
}

// ListOpen yields the open offers of asset in creation order. The sequence
// is lazy and can be ranged over again; an asset without offers yields
// nothing.
func (l *Ledger) ListOpen(asset types.AssetID) iter.Seq2[*Offer, error] {
	return l.scan(asset, func(o *Offer) bool { return o.Status == StatusOpen })
}

func (l *Ledger) scan(asset types.AssetID, keep func(*Offer) bool) iter.Seq2[*Offer, error] {
	return func(yield func(*Offer, error) bool) {
		count, err := l.Count(asset)
		if err != nil {
			yield(nil, err)
			return
		}
		for i := uint32(0); i < count; i++ {
			o, err := l.Get(asset, types.OfferIndex(i))
			if err != nil {
				yield(nil, err)
				return
			}
			if !keep(o) {
				continue
			}
			if !yield(o, nil) {
				return
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[*Offer, error]) ([]*Offer, error) {
	offers := []*Offer{}
	for o, err := range seq {
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, nil
}

// ListExpired returns up to limit committed open offers, across all assets,
// whose deadline has passed at now. A limit of zero means no limit.
func ListExpired(ctx context.Context, store *state.Store, now int64, limit int) ([]*Offer, error) {
	var expired []*Offer
	err := store.Scan(ctx, keylet.OfferPrefix(), func(key, data []byte) (bool, error) {
		asset, index, ok := keylet.ParseOffer(key)
		if !ok {
			return true, nil
		}
		var rec offerRecord
		if err := state.Unmarshal(data, &rec); err != nil {
			return false, err
		}
		o := rec.offer(asset, index)
		if o.Status == StatusOpen && o.Expired(now) {
			expired = append(expired, o)
		}
		return limit == 0 || len(expired) < limit, nil
	})
	return expired, err
}
