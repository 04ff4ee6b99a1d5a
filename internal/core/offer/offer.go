// Package offer is the append-only per-asset ledger of buyer offers.
package offer

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Status is the lifecycle state of an offer. Every status other than
// StatusOpen is terminal.
type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusAccepted
	StatusCancelledByBuyer
	StatusCancelledBySeller
	StatusRefunded
)

var statusNames = map[Status]string{
	StatusOpen:              "open",
	StatusAccepted:          "accepted",
	StatusCancelledByBuyer:  "cancelled_by_buyer",
	StatusCancelledBySeller: "cancelled_by_seller",
	StatusRefunded:          "refunded",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s != StatusOpen
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown offer status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown offer status %q", string(text))
}

// Offer is one bid on one asset.
type Offer struct {
	Asset         types.AssetID      `json:"asset_id"`
	Index         types.OfferIndex   `json:"offer_index"`
	Buyer         types.Address      `json:"buyer"`
	Seller        types.Address      `json:"seller"`
	Collection    types.CollectionID `json:"collection_id"`
	Amount        sdkmath.Int        `json:"amount"`
	FeeAmount     sdkmath.Int        `json:"fee_amount"`
	Expiry        int64              `json:"expiry"`
	EscrowAccount types.Address      `json:"escrow_account"`
	Status        Status             `json:"status"`
	CreatedAt     int64              `json:"created_at"`
	ClosedAt      int64              `json:"closed_at,omitempty"`
}

// Escrowed is the total held for the offer while it is open.
func (o *Offer) Escrowed() sdkmath.Int {
	return o.Amount.Add(o.FeeAmount)
}

// Expired reports whether the offer's deadline has passed at now. An expiry
// of zero never expires.
func (o *Offer) Expired(now int64) bool {
	return o.Expiry != 0 && o.Expiry <= now
}

type offerRecord struct {
	Buyer      types.Address `codec:"buyer"`
	Seller     types.Address `codec:"seller"`
	Collection uint64        `codec:"collection"`
	Amount     string        `codec:"amount"`
	Fee        string        `codec:"fee"`
	Expiry     int64         `codec:"expiry"`
	Escrow     types.Address `codec:"escrow"`
	Status     uint8         `codec:"status"`
	CreatedAt  int64         `codec:"created"`
	ClosedAt   int64         `codec:"closed"`
}

func newRecord(o *Offer) *offerRecord {
	return &offerRecord{
		Buyer:      o.Buyer,
		Seller:     o.Seller,
		Collection: uint64(o.Collection),
		Amount:     o.Amount.String(),
		Fee:        o.FeeAmount.String(),
		Expiry:     o.Expiry,
		Escrow:     o.EscrowAccount,
		Status:     uint8(o.Status),
		CreatedAt:  o.CreatedAt,
		ClosedAt:   o.ClosedAt,
	}
}

func (r *offerRecord) offer(asset types.AssetID, index types.OfferIndex) *Offer {
	return &Offer{
		Asset:         asset,
		Index:         index,
		Buyer:         r.Buyer,
		Seller:        r.Seller,
		Collection:    types.CollectionID(r.Collection),
		Amount:        types.AmountOrZero(r.Amount),
		FeeAmount:     types.AmountOrZero(r.Fee),
		Expiry:        r.Expiry,
		EscrowAccount: r.Escrow,
		Status:        Status(r.Status),
		CreatedAt:     r.CreatedAt,
		ClosedAt:      r.ClosedAt,
	}
}
