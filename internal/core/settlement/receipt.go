package settlement

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Operation names carried by receipts.
const (
	OpMakeOffer         = "make_offer"
	OpAcceptOffer       = "accept_offer"
	OpCancelOfferSeller = "cancel_offer_seller"
	OpCancelOfferBuyer  = "cancel_offer_buyer"
	OpCancelAll         = "cancel_all"
	OpMonitorOffer      = "monitor_offer"
	OpClaimAsset        = "claim_asset"
	OpSetParams         = "set_params"
	OpBootstrap         = "bootstrap"
	OpRegistry          = "registry"
	OpTokenMint         = "token_mint"
	OpTokenApprove      = "token_approve"
	OpTokenTransfer     = "token_transfer"
	OpAssetMint         = "asset_mint"
)

// OfferChange records an offer whose status an operation set.
type OfferChange struct {
	Asset  types.AssetID    `json:"asset_id"`
	Index  types.OfferIndex `json:"offer_index"`
	Buyer  types.Address    `json:"buyer"`
	Status offer.Status     `json:"status"`
}

// Transfer is one movement of payment tokens caused by an operation.
type Transfer struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount sdkmath.Int   `json:"amount"`
}

// Receipt describes one committed mutating operation.
type Receipt struct {
	ID        string        `json:"id"`
	Operation string        `json:"operation"`
	Caller    types.Address `json:"caller"`
	Asset     types.AssetID `json:"asset_id,omitempty"`
	Offers    []OfferChange `json:"offers,omitempty"`
	Transfers []Transfer    `json:"transfers,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Entries   int           `json:"entries"`
	Timestamp int64         `json:"timestamp"`
}

func (r *Receipt) offer(o *offer.Offer, status offer.Status) {
	r.Offers = append(r.Offers, OfferChange{Asset: o.Asset, Index: o.Index, Buyer: o.Buyer, Status: status})
}

func (r *Receipt) transfer(from, to types.Address, amount sdkmath.Int) {
	if amount.IsZero() {
		return
	}
	r.Transfers = append(r.Transfers, Transfer{From: from, To: to, Amount: amount})
}

//go:generate mockgen -destination=../../mocks/listener_mock.go -package=mocks github.com/LeJamon/goMarketd/internal/core/settlement Listener

// Listener is notified of every receipt after its operation committed. A
// listener error is logged; it cannot undo the operation.
type Listener interface {
	OnReceipt(ctx context.Context, r *Receipt) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, r *Receipt) error

func (f ListenerFunc) OnReceipt(ctx context.Context, r *Receipt) error {
	return f(ctx, r)
}
