// Package escrow holds the funds backing each open offer and guarantees
// every held balance is released exactly once.
package escrow

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/crypto"
)

// Funds is the slice of the value-transfer ledger escrow needs.
type Funds interface {
	TransferFrom(spender, owner, to types.Address, amount sdkmath.Int) error
	Transfer(from, to types.Address, amount sdkmath.Int) error
}

// FundsFor returns the ledger of a payment token.
type FundsFor func(token types.Address) Funds

// Payout is one destination of a release.
type Payout struct {
	To     types.Address `json:"to"`
	Amount sdkmath.Int   `json:"amount"`
}

// Account is the arena record of one offer's escrow.
type Account struct {
	Address    types.Address    `json:"escrow_account"`
	Asset      types.AssetID    `json:"asset_id"`
	Index      types.OfferIndex `json:"offer_index"`
	Token      types.Address    `json:"token"`
	Buyer      types.Address    `json:"buyer"`
	Held       sdkmath.Int      `json:"held"`
	Released   bool             `json:"released"`
	ReleasedAt int64            `json:"released_at,omitempty"`
}

type accountRecord struct {
	Asset      uint64        `codec:"asset"`
	Index      uint32        `codec:"index"`
	Token      types.Address `codec:"token"`
	Buyer      types.Address `codec:"buyer"`
	Held       string        `codec:"held"`
	Released   bool          `codec:"released"`
	ReleasedAt int64         `codec:"released_at"`
}

func (r *accountRecord) account(addr types.Address) *Account {
	return &Account{
		Address:    addr,
		Asset:      types.AssetID(r.Asset),
		Index:      types.OfferIndex(r.Index),
		Token:      r.Token,
		Buyer:      r.Buyer,
		Held:       types.AmountOrZero(r.Held),
		Released:   r.Released,
		ReleasedAt: r.ReleasedAt,
	}
}

// Manager moves funds in and out of escrow accounts. Spender is the
// marketplace identity buyers approve on the payment token.
type Manager struct {
	view    state.View
	funds   FundsFor
	spender types.Address
}

func NewManager(view state.View, funds FundsFor, spender types.Address) *Manager {
	return &Manager{view: view, funds: funds, spender: spender}
}

// Hold pulls amount+fee from buyer into the escrow account of
// (asset, index) on token. Nothing is held if the pull fails.
func (m *Manager) Hold(token types.Address, asset types.AssetID, index types.OfferIndex, buyer types.Address, amount, fee sdkmath.Int) (types.Address, error) {
	addr := crypto.EscrowAccount(asset, index)

	exists, err := m.view.Exists(keylet.Escrow(addr))
	if err != nil {
		return types.ZeroAddress, err
	}
	if exists {
		return types.ZeroAddress, errorsmod.Wrapf(types.ErrEscrowMismatch, "escrow %s already allocated", addr)
	}

	total := amount.Add(fee)
	if err := m.funds(token).TransferFrom(m.spender, buyer, addr, total); err != nil {
		return types.ZeroAddress, err
	}

	rec := &accountRecord{
		Asset: uint64(asset),
		Index: uint32(index),
		Token: token,
		Buyer: buyer,
		Held:  total.String(),
	}
	if err := state.Create(m.view, keylet.Escrow(addr), rec); err != nil {
		return types.ZeroAddress, err
	}
	return addr, nil
}

// Get returns the arena record of an escrow account.
func (m *Manager) Get(addr types.Address) (*Account, error) {
	rec, err := state.Load[accountRecord](m.view, keylet.Escrow(addr))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errorsmod.Wrapf(types.ErrEscrowNotFound, "escrow %s", addr)
	}
	return rec.account(addr), nil
}

// IsEscrow reports whether addr is an escrow account.
func (m *Manager) IsEscrow(addr types.Address) (bool, error) {
	return m.view.Exists(keylet.Escrow(addr))
}

// Release pays the full held balance to payouts in one step. Payouts must
// sum to the held balance. A second release fails with ErrAlreadyReleased
// before any transfer runs.
func (m *Manager) Release(addr types.Address, payouts []Payout, at int64) error {
	rec, err := state.Load[accountRecord](m.view, keylet.Escrow(addr))
	if err != nil {
		return err
	}
	if rec == nil {
		return errorsmod.Wrapf(types.ErrEscrowNotFound, "escrow %s", addr)
	}
	if rec.Released {
		return errorsmod.Wrapf(types.ErrAlreadyReleased, "escrow %s", addr)
	}

	held := types.AmountOrZero(rec.Held)
	total := sdkmath.ZeroInt()
	for _, p := range payouts {
		if err := types.ValidateAmount(p.Amount); err != nil {
			return err
		}
		total = total.Add(p.Amount)
	}
	if !total.Equal(held) {
		return errorsmod.Wrapf(types.ErrEscrowMismatch, "escrow %s holds %s, payouts total %s", addr, held, total)
	}

	funds := m.funds(rec.Token)
	for _, p := range payouts {
		if p.Amount.IsZero() {
			continue
		}
		if err := funds.Transfer(addr, p.To, p.Amount); err != nil {
			return errorsmod.Wrapf(err, "escrow %s payout to %s", addr, p.To)
		}
	}

	rec.Released = true
	rec.ReleasedAt = at
	return state.Save(m.view, keylet.Escrow(addr), rec)
}

// Refund returns the full held balance to the buyer.
func (m *Manager) Refund(addr types.Address, at int64) (Payout, error) {
	acct, err := m.Get(addr)
	if err != nil {
		return Payout{}, err
	}
	payout := Payout{To: acct.Buyer, Amount: acct.Held}
	return payout, m.Release(addr, []Payout{payout}, at)
}
