package settlement

import (
	"context"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/custody"
	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Params returns the committed marketplace parameters.
func (e *Engine) Params(ctx context.Context) (*Params, error) {
	var p *Params
	err := e.read(ctx, func(s *session) error {
		p = s.params
		return nil
	})
	return p, err
}

// updateParams applies mutate to the params as the administrator.
func (e *Engine) updateParams(ctx context.Context, caller types.Address, detail string, mutate func(s *session, p *Params) error) error {
	_, err := e.apply(ctx, OpSetParams, caller, func(s *session, r *Receipt) error {
		if err := isAdmin(s.params, caller); err != nil {
			return err
		}
		if err := mutate(s, s.params); err != nil {
			return err
		}
		r.Detail = detail
		return saveParams(s.view, s.params)
	})
	return err
}

func requireAddress(addr types.Address, what string) error {
	if addr.IsZero() {
		return errorsmod.Wrap(types.ErrZeroAddress, what)
	}
	return nil
}

// SetBuyerFee changes the global buyer rate for offers made from now on.
func (e *Engine) SetBuyerFee(ctx context.Context, caller types.Address, bps types.Bps) error {
	if err := bps.Validate(); err != nil {
		return err
	}
	return e.updateParams(ctx, caller, fmt.Sprintf("buyer_fee_bps=%d", bps), func(_ *session, p *Params) error {
		p.BuyerFeeBps = bps
		return nil
	})
}

// SetSellerFee changes the house cut taken from sale proceeds.
func (e *Engine) SetSellerFee(ctx context.Context, caller types.Address, bps types.Bps) error {
	if err := bps.Validate(); err != nil {
		return err
	}
	return e.updateParams(ctx, caller, fmt.Sprintf("seller_fee_bps=%d", bps), func(_ *session, p *Params) error {
		p.SellerFeeBps = bps
		return nil
	})
}

// ChangeRoyaltyContractAddress points fee lookups at another registry. A
// registry without an owner is handed to the administrator.
func (e *Engine) ChangeRoyaltyContractAddress(ctx context.Context, caller, addr types.Address) error {
	if err := requireAddress(addr, "royalty contract"); err != nil {
		return err
	}
	return e.updateParams(ctx, caller, "royalty_contract="+addr.String(), func(s *session, p *Params) error {
		p.RoyaltyRegistry = addr
		return fees.NewRegistry(s.view, addr).Init(p.Admin)
	})
}

func (e *Engine) ChangeNFTContractAddress(ctx context.Context, caller, addr types.Address) error {
	if err := requireAddress(addr, "nft contract"); err != nil {
		return err
	}
	return e.updateParams(ctx, caller, "nft_contract="+addr.String(), func(_ *session, p *Params) error {
		p.AssetContract = addr
		return nil
	})
}

// ChangeSNCContractAddress switches the payment token of new offers. Open
// offers settle in the token they were escrowed in.
func (e *Engine) ChangeSNCContractAddress(ctx context.Context, caller, addr types.Address) error {
	if err := requireAddress(addr, "snc contract"); err != nil {
		return err
	}
	return e.updateParams(ctx, caller, "snc_contract="+addr.String(), func(_ *session, p *Params) error {
		p.PaymentToken = addr
		return nil
	})
}

func (e *Engine) SetHouseAddress(ctx context.Context, caller, addr types.Address) error {
	if err := requireAddress(addr, "house"); err != nil {
		return err
	}
	return e.updateParams(ctx, caller, "house="+addr.String(), func(_ *session, p *Params) error {
		p.House = addr
		return nil
	})
}

func (e *Engine) TransferAdmin(ctx context.Context, caller, addr types.Address) error {
	if err := requireAddress(addr, "admin"); err != nil {
		return err
	}
	return e.updateParams(ctx, caller, "admin="+addr.String(), func(_ *session, p *Params) error {
		p.Admin = addr
		return nil
	})
}

// GenesisBalance funds one account with the payment token at bootstrap.
type GenesisBalance struct {
	Account types.Address `json:"account"`
	Amount  sdkmath.Int   `json:"amount"`
}

// GenesisApproval pre-authorises the marketplace to pull from an account.
type GenesisApproval struct {
	Owner  types.Address `json:"owner"`
	Amount sdkmath.Int   `json:"amount"`
}

// Genesis is the initial state written by Bootstrap.
type Genesis struct {
	Params        Params            `json:"params"`
	RegistryOwner types.Address     `json:"registry_owner,omitempty"`
	Balances      []GenesisBalance  `json:"balances,omitempty"`
	Approvals     []GenesisApproval `json:"approvals,omitempty"`
	Assets        []custody.Asset   `json:"assets,omitempty"`
	FeeEntries    []fees.Entry      `json:"fee_entries,omitempty"`
}

// Initialized reports whether params have been committed.
func (e *Engine) Initialized(ctx context.Context) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.View(ctx).Exists(keylet.Params())
}

// Bootstrap writes the genesis state. It fails once params exist.
func (e *Engine) Bootstrap(ctx context.Context, g *Genesis) error {
	_, err := e.applyTable(ctx, OpBootstrap, g.Params.Admin, func(table *state.Table, r *Receipt) error {
		exists, err := table.Exists(keylet.Params())
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("market parameters: %w", state.ErrEntryExists)
		}
		params := g.Params
		if err := saveParams(table, &params); err != nil {
			return err
		}

		s := e.bind(table, &params, r.Timestamp)
		owner := g.RegistryOwner
		if owner.IsZero() {
			owner = params.Admin
		}
		if err := s.registry.Init(owner); err != nil {
			return err
		}
		for _, b := range g.Balances {
			if err := s.funds.Mint(b.Account, b.Amount); err != nil {
				return errorsmod.Wrapf(err, "genesis balance of %s", b.Account)
			}
		}
		for _, a := range g.Approvals {
			if err := s.funds.Approve(a.Owner, e.opts.Operator, a.Amount); err != nil {
				return errorsmod.Wrapf(err, "genesis approval of %s", a.Owner)
			}
		}
		for _, a := range g.Assets {
			if err := s.assets.Mint(a.ID, a.Owner, a.Collection); err != nil {
				return err
			}
		}
		for _, entry := range g.FeeEntries {
			if err := s.registry.CreateEntry(owner, entry); err != nil {
				return err
			}
		}
		r.Detail = fmt.Sprintf("assets=%d fee_entries=%d balances=%d", len(g.Assets), len(g.FeeEntries), len(g.Balances))
		return nil
	})
	return err
}
