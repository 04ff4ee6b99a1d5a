// Package token is the fungible value-transfer ledger used to move offer
// principal, fees and refunds.
package token

import (
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

type amountRecord struct {
	Amount string `codec:"amount"`
}

// Ledger holds the balances and allowances of one payment token.
type Ledger struct {
	view  state.View
	token types.Address
}

func NewLedger(view state.View, token types.Address) *Ledger {
	return &Ledger{view: view, token: token}
}

func (l *Ledger) Token() types.Address {
	return l.token
}

func (l *Ledger) load(k keylet.Keylet) (sdkmath.Int, error) {
	rec, err := state.Load[amountRecord](l.view, k)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if rec == nil {
		return sdkmath.ZeroInt(), nil
	}
	return types.AmountOrZero(rec.Amount), nil
}

// store writes amount at k; a zero amount removes the record.
func (l *Ledger) store(k keylet.Keylet, amount sdkmath.Int) error {
	if amount.IsZero() {
		exists, err := l.view.Exists(k)
		if err != nil || !exists {
			return err
		}
		return l.view.Erase(k)
	}
	return state.Save(l.view, k, &amountRecord{Amount: amount.String()})
}

func (l *Ledger) BalanceOf(account types.Address) (sdkmath.Int, error) {
	return l.load(keylet.Balance(l.token, account))
}

func (l *Ledger) Allowance(owner, spender types.Address) (sdkmath.Int, error) {
	return l.load(keylet.Allowance(l.token, owner, spender))
}

func (l *Ledger) TotalSupply() (sdkmath.Int, error) {
	return l.load(keylet.Supply(l.token))
}

// Approve sets the amount spender may pull from owner with TransferFrom.
func (l *Ledger) Approve(owner, spender types.Address, amount sdkmath.Int) error {
	if spender.IsZero() {
		return errorsmod.Wrap(types.ErrZeroAddress, "spender")
	}
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	return l.store(keylet.Allowance(l.token, owner, spender), amount)
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to types.Address, amount sdkmath.Int) error {
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}
	if to.IsZero() {
		return errorsmod.Wrap(types.ErrZeroAddress, "transfer recipient")
	}

	balance, err := l.BalanceOf(from)
	if err != nil {
		return err
	}
	if balance.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficientBalance, "%s holds %s, needs %s", from, balance, amount)
	}
	if amount.IsZero() || from == to {
		return nil
	}

	if err := l.store(keylet.Balance(l.token, from), balance.Sub(amount)); err != nil {
		return err
	}
	received, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	return l.store(keylet.Balance(l.token, to), received.Add(amount))
}

// TransferFrom moves amount out of owner on behalf of spender, consuming
// the allowance owner granted spender.
func (l *Ledger) TransferFrom(spender, owner, to types.Address, amount sdkmath.Int) error {
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}

	allowance, err := l.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if allowance.LT(amount) {
		return errorsmod.Wrapf(types.ErrInsufficientAllowance, "%s approved %s for %s, needs %s", owner, spender, allowance, amount)
	}

	if err := l.Transfer(owner, to, amount); err != nil {
		return err
	}
	return l.store(keylet.Allowance(l.token, owner, spender), allowance.Sub(amount))
}

// Mint creates amount new tokens in to's balance.
func (l *Ledger) Mint(to types.Address, amount sdkmath.Int) error {
	if to.IsZero() {
		return errorsmod.Wrap(types.ErrZeroAddress, "mint recipient")
	}
	if err := types.ValidateAmount(amount); err != nil {
		return err
	}

	supply, err := l.TotalSupply()
	if err != nil {
		return err
	}
	supply = supply.Add(amount)
	if err := types.ValidateAmount(supply); err != nil {
		return err
	}

	balance, err := l.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := l.store(keylet.Balance(l.token, to), balance.Add(amount)); err != nil {
		return err
	}
	return l.store(keylet.Supply(l.token), supply)
}
