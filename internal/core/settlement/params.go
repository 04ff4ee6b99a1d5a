package settlement

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Params is the marketplace configuration owned by the administrator. The
// three contract addresses select which registry, asset contract and payment
// token subsequent operations work against.
type Params struct {
	Admin           types.Address `json:"admin"`
	House           types.Address `json:"house"`
	BuyerFeeBps     types.Bps     `json:"buyer_fee_bps"`
	SellerFeeBps    types.Bps     `json:"seller_fee_bps"`
	RoyaltyRegistry types.Address `json:"royalty_contract"`
	AssetContract   types.Address `json:"nft_contract"`
	PaymentToken    types.Address `json:"snc_contract"`
}

// Validate checks every bound an administrator setter enforces.
func (p *Params) Validate() error {
	for name, addr := range map[string]types.Address{
		"admin":            p.Admin,
		"house":            p.House,
		"royalty contract": p.RoyaltyRegistry,
		"nft contract":     p.AssetContract,
		"snc contract":     p.PaymentToken,
	} {
		if addr.IsZero() {
			return errorsmod.Wrap(types.ErrZeroAddress, name)
		}
	}
	if err := p.BuyerFeeBps.Validate(); err != nil {
		return errorsmod.Wrap(err, "buyer fee")
	}
	if err := p.SellerFeeBps.Validate(); err != nil {
		return errorsmod.Wrap(err, "seller fee")
	}
	return nil
}

type paramsRecord struct {
	Admin    types.Address `codec:"admin"`
	House    types.Address `codec:"house"`
	BuyerFee uint32        `codec:"buyer_fee"`
	SellFee  uint32        `codec:"seller_fee"`
	Registry types.Address `codec:"registry"`
	Assets   types.Address `codec:"assets"`
	Token    types.Address `codec:"token"`
}

func loadParams(view state.ReadView) (*Params, error) {
	rec, err := state.Load[paramsRecord](view, keylet.Params())
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, types.ErrNotInitialized
	}
	return &Params{
		Admin:           rec.Admin,
		House:           rec.House,
		BuyerFeeBps:     types.Bps(rec.BuyerFee),
		SellerFeeBps:    types.Bps(rec.SellFee),
		RoyaltyRegistry: rec.Registry,
		AssetContract:   rec.Assets,
		PaymentToken:    rec.Token,
	}, nil
}

func saveParams(view state.View, p *Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return state.Save(view, keylet.Params(), &paramsRecord{
		Admin:    p.Admin,
		House:    p.House,
		BuyerFee: uint32(p.BuyerFeeBps),
		SellFee:  uint32(p.SellerFeeBps),
		Registry: p.RoyaltyRegistry,
		Assets:   p.AssetContract,
		Token:    p.PaymentToken,
	})
}
