package settlement

import (
	"context"
	"errors"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/escrow"
	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// OfferRequest carries the arguments of MakeOffer.
type OfferRequest struct {
	Asset      types.AssetID
	Amount     sdkmath.Int
	Expiry     int64
	Buyer      types.Address
	Seller     types.Address
	FeeAmount  sdkmath.Int
	Collection types.CollectionID
}

// SettlementResult is the outcome of an accepted offer.
type SettlementResult struct {
	Accepted *offer.Offer    `json:"accepted"`
	Refunded []*offer.Offer  `json:"refunded"`
	Payouts  []escrow.Payout `json:"payouts"`
	Parked   bool            `json:"parked"`
}

// MakeOffer escrows amount plus fee from the buyer and appends an open
// offer for the asset. The caller must be the buyer.
func (e *Engine) MakeOffer(ctx context.Context, caller types.Address, req OfferRequest) (types.OfferIndex, error) {
	var index types.OfferIndex
	_, err := e.apply(ctx, OpMakeOffer, caller, func(s *session, r *Receipt) error {
		r.Asset = req.Asset
		if caller != req.Buyer {
			return errorsmod.Wrapf(types.ErrUnauthorized, "%s cannot bid on behalf of %s", caller, req.Buyer)
		}
		if req.Buyer.IsZero() || req.Seller.IsZero() {
			return errorsmod.Wrap(types.ErrZeroAddress, "buyer and seller are required")
		}
		if err := types.ValidateAmount(req.Amount); err != nil {
			return err
		}
		if !req.Amount.IsPositive() {
			return errorsmod.Wrap(types.ErrInvalidAmount, "offer amount must be positive")
		}
		if err := types.ValidateAmount(req.FeeAmount); err != nil {
			return err
		}

		asset, err := s.assets.Get(req.Asset)
		if err != nil {
			return err
		}
		if asset.Owner != req.Seller {
			return errorsmod.Wrapf(types.ErrUnauthorized, "asset %s is held by %s, not %s", req.Asset, asset.Owner, req.Seller)
		}
		if req.Seller == req.Buyer {
			return errorsmod.Wrap(types.ErrUnauthorized, "cannot bid on an asset you hold")
		}
		if asset.Collection != req.Collection {
			return errorsmod.Wrapf(types.ErrCollectionMismatch, "asset %s belongs to collection %s", req.Asset, asset.Collection)
		}
		if req.Expiry != 0 && req.Expiry <= s.now {
			return errorsmod.Wrapf(types.ErrInvalidExpiry, "expiry %d is not after %d", req.Expiry, s.now)
		}

		entry, err := s.registry.Lookup(req.Collection)
		if err != nil {
			return err
		}
		fee, err := e.calc.OfferFee(req.Amount, s.params.BuyerFeeBps, entry)
		if err != nil {
			return err
		}
		if !fee.Equal(req.FeeAmount) {
			return errorsmod.Wrapf(types.ErrFeeMismatch, "fee for %s is %s, got %s", req.Amount, fee, req.FeeAmount)
		}

		next, err := s.offers.NextIndex(req.Asset)
		if err != nil {
			return err
		}
		account, err := s.escrow.Hold(s.params.PaymentToken, req.Asset, next, req.Buyer, req.Amount, fee)
		if err != nil {
			return err
		}

		o := &offer.Offer{
			Buyer:         req.Buyer,
			Seller:        req.Seller,
			Collection:    req.Collection,
			Amount:        req.Amount,
			FeeAmount:     fee,
			Expiry:        req.Expiry,
			EscrowAccount: account,
			CreatedAt:     s.now,
		}
		index, err = s.offers.Append(req.Asset, o)
		if err != nil {
			return err
		}
		r.transfer(req.Buyer, account, o.Escrowed())
		r.offer(o, offer.StatusOpen)
		return nil
	})
	return index, err
}

// refund returns an open offer's escrow to its buyer and closes the offer
// with status.
func (s *session) refund(r *Receipt, o *offer.Offer, status offer.Status) error {
	payout, err := s.escrow.Refund(o.EscrowAccount, s.now)
	if err != nil {
		return err
	}
	if err := s.offers.SetStatus(o.Asset, o.Index, status, s.now); err != nil {
		return err
	}
	o.Status = status
	o.ClosedAt = s.now
	r.transfer(o.EscrowAccount, payout.To, payout.Amount)
	r.offer(o, status)
	return nil
}

func (s *session) openOffer(asset types.AssetID, index types.OfferIndex) (*offer.Offer, error) {
	o, err := s.offers.Get(asset, index)
	if err != nil {
		return nil, err
	}
	if o.Status != offer.StatusOpen {
		return nil, errorsmod.Wrapf(types.ErrOfferNotOpen, "asset %s offer %s is %s", asset, index, o.Status)
	}
	return o, nil
}

// AcceptOffer settles one open offer: the seller is paid net of fees, the
// fee recipients get their cuts, the asset moves to the buyer (or into
// marketplace custody when transferNow is false) and every other open offer
// on the asset is refunded and closed as cancelled by the seller.
func (e *Engine) AcceptOffer(ctx context.Context, caller types.Address, asset types.AssetID, index types.OfferIndex, transferNow bool) (*SettlementResult, error) {
	var result *SettlementResult
	_, err := e.apply(ctx, OpAcceptOffer, caller, func(s *session, r *Receipt) error {
		r.Asset = asset
		if _, err := s.isSeller(asset, caller, "accept"); err != nil {
			return err
		}
		target, err := s.openOffer(asset, index)
		if err != nil {
			return err
		}
		if target.Seller != caller {
			return errorsmod.Wrapf(types.ErrUnauthorized, "only the seller of this asset may accept: offer names %s", target.Seller)
		}
		if target.Expired(s.now) && !e.opts.AllowExpiredAccept {
			return errorsmod.Wrapf(types.ErrOfferExpired, "asset %s offer %s expired at %d", asset, index, target.Expiry)
		}

		entry, err := s.registry.GetFeeEntry(target.Collection)
		if err != nil {
			return err
		}
		split, err := e.calc.SplitSale(target.Amount, s.params.SellerFeeBps, entry)
		if err != nil {
			return err
		}
		payouts := []escrow.Payout{
			{To: caller, Amount: split.Seller},
			{To: split.Recipient, Amount: split.Royalty},
			{To: s.params.House, Amount: split.House.Add(target.FeeAmount)},
		}
		if err := s.escrow.Release(target.EscrowAccount, payouts, s.now); err != nil {
			return err
		}
		if err := s.offers.SetStatus(asset, index, offer.StatusAccepted, s.now); err != nil {
			return err
		}
		target.Status = offer.StatusAccepted
		target.ClosedAt = s.now
		r.offer(target, offer.StatusAccepted)
		for _, p := range payouts {
			r.transfer(target.EscrowAccount, p.To, p.Amount)
		}

		if transferNow {
			err = s.assets.TransferCustody(asset, caller, target.Buyer)
		} else {
			err = s.assets.Park(asset, caller, e.opts.Operator, target.Buyer)
		}
		if err != nil {
			return err
		}

		siblings, err := offer.Collect(s.offers.ListOpen(asset))
		if err != nil {
			return err
		}
		for _, o := range siblings {
			if err := s.refund(r, o, offer.StatusCancelledBySeller); err != nil {
				return err
			}
		}

		result = &SettlementResult{
			Accepted: target,
			Refunded: siblings,
			Payouts:  payouts,
			Parked:   !transferNow,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelOfferSeller refunds one open offer on the caller's asset.
func (e *Engine) CancelOfferSeller(ctx context.Context, caller types.Address, asset types.AssetID, index types.OfferIndex) error {
	_, err := e.apply(ctx, OpCancelOfferSeller, caller, func(s *session, r *Receipt) error {
		r.Asset = asset
		if _, err := s.isSeller(asset, caller, "cancel offers"); err != nil {
			return err
		}
		o, err := s.openOffer(asset, index)
		if err != nil {
			return err
		}
		return s.refund(r, o, offer.StatusCancelledBySeller)
	})
	return err
}

// CancelOfferBuyer refunds every open offer the caller holds on asset and
// returns their indexes.
func (e *Engine) CancelOfferBuyer(ctx context.Context, caller types.Address, asset types.AssetID) ([]types.OfferIndex, error) {
	var cancelled []types.OfferIndex
	_, err := e.apply(ctx, OpCancelOfferBuyer, caller, func(s *session, r *Receipt) error {
		r.Asset = asset
		open, err := offer.Collect(s.offers.ListOpen(asset))
		if err != nil {
			return err
		}
		if len(open) == 0 {
			return errorsmod.Wrapf(types.ErrOfferNotFound, "asset %s has no open offers", asset)
		}
		for _, o := range open {
			if isBuyer(o, caller) != nil {
				continue
			}
			if err := s.refund(r, o, offer.StatusCancelledByBuyer); err != nil {
				return err
			}
			cancelled = append(cancelled, o.Index)
		}
		if len(cancelled) == 0 {
			return errorsmod.Wrapf(types.ErrUnauthorized, "%s has no open offer on asset %s", caller, asset)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// CancelAll refunds every open offer on the caller's asset and returns how
// many were closed.
func (e *Engine) CancelAll(ctx context.Context, caller types.Address, asset types.AssetID) (int, error) {
	var n int
	_, err := e.apply(ctx, OpCancelAll, caller, func(s *session, r *Receipt) error {
		r.Asset = asset
		if _, err := s.isSeller(asset, caller, "cancel offers"); err != nil {
			return err
		}
		open, err := offer.Collect(s.offers.ListOpen(asset))
		if err != nil {
			return err
		}
		for _, o := range open {
			if err := s.refund(r, o, offer.StatusCancelledBySeller); err != nil {
				return err
			}
		}
		n = len(open)
		return nil
	})
	return n, err
}

// MonitorOffer refunds an open offer whose expiry has passed and reports
// whether it did. An open offer that has not expired is left as it is.
// Anyone may call it.
func (e *Engine) MonitorOffer(ctx context.Context, caller types.Address, asset types.AssetID, index types.OfferIndex) (bool, error) {
	refunded := false
	_, err := e.apply(ctx, OpMonitorOffer, caller, func(s *session, r *Receipt) error {
		r.Asset = asset
		o, err := s.openOffer(asset, index)
		if err != nil {
			return err
		}
		if !o.Expired(s.now) {
			r.Detail = "not expired"
			return nil
		}
		refunded = true
		return s.refund(r, o, offer.StatusRefunded)
	})
	return refunded && err == nil, err
}

// ClaimAsset hands a parked asset to the buyer of its accepted offer.
func (e *Engine) ClaimAsset(ctx context.Context, caller types.Address, asset types.AssetID) error {
	_, err := e.apply(ctx, OpClaimAsset, caller, func(s *session, r *Receipt) error {
		r.Asset = asset
		return s.assets.Claim(asset, e.opts.Operator, caller)
	})
	return err
}

// ViewAllOffer returns the open offers of asset in creation order. Unknown
// assets and an uninitialised market yield an empty slice.
func (e *Engine) ViewAllOffer(ctx context.Context, asset types.AssetID) ([]*offer.Offer, error) {
	var open []*offer.Offer
	err := e.read(ctx, func(s *session) error {
		var err error
		open, err = offer.Collect(s.offers.ListOpen(asset))
		return err
	})
	if errors.Is(err, types.ErrNotInitialized) {
		return []*offer.Offer{}, nil
	}
	return open, err
}

// OfferHistory returns every offer ever made on asset, terminal ones
// included.
func (e *Engine) OfferHistory(ctx context.Context, asset types.AssetID) ([]*offer.Offer, error) {
	var all []*offer.Offer
	err := e.read(ctx, func(s *session) error {
		var err error
		all, err = offer.Collect(s.offers.History(asset))
		return err
	})
	return all, err
}

func (e *Engine) GetOffer(ctx context.Context, asset types.AssetID, index types.OfferIndex) (*offer.Offer, error) {
	var o *offer.Offer
	err := e.read(ctx, func(s *session) error {
		var err error
		o, err = s.offers.Get(asset, index)
		return err
	})
	return o, err
}

func (e *Engine) EscrowInfo(ctx context.Context, account types.Address) (*escrow.Account, error) {
	var acct *escrow.Account
	err := e.read(ctx, func(s *session) error {
		var err error
		acct, err = s.escrow.Get(account)
		return err
	})
	return acct, err
}

// ExpiredOffers lists up to limit committed open offers past their expiry.
func (e *Engine) ExpiredOffers(ctx context.Context, limit int) ([]*offer.Offer, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return offer.ListExpired(ctx, e.store, e.clock.Now().Unix(), limit)
}
