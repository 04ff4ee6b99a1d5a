package settlement

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

type sequenceKey struct{}

type sequenceClaim struct {
	account types.Address
	seq     uint32
}

// accountSequence is the last sequence an account consumed.
type accountSequence struct {
	Sequence uint32 `codec:"sequence"`
}

// WithSequence binds a signed call sequence to ctx. The next mutating
// operation run with ctx consumes it in the same commit as its own writes,
// and fails with ErrBadSequence unless seq is one past the stored value.
func WithSequence(ctx context.Context, account types.Address, seq uint32) context.Context {
	return context.WithValue(ctx, sequenceKey{}, sequenceClaim{account: account, seq: seq})
}

func sequenceFrom(ctx context.Context) (sequenceClaim, bool) {
	c, ok := ctx.Value(sequenceKey{}).(sequenceClaim)
	return c, ok
}

func loadSequence(v state.ReadView, account types.Address) (uint32, error) {
	rec, err := state.Load[accountSequence](v, keylet.Sequence(account))
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Sequence, nil
}

// consumeSequence advances the caller's sequence when ctx carries one.
func consumeSequence(ctx context.Context, table *state.Table, caller types.Address) error {
	claim, ok := sequenceFrom(ctx)
	if !ok {
		return nil
	}
	if claim.account != caller {
		return errorsmod.Wrapf(types.ErrUnauthorized, "sequence signed by %s cannot be used by %s", claim.account, caller)
	}

	last, err := loadSequence(table, caller)
	if err != nil {
		return err
	}
	if claim.seq != last+1 {
		return errorsmod.Wrapf(types.ErrBadSequence, "%s: expected %d, got %d", caller, last+1, claim.seq)
	}
	return state.Save(table, keylet.Sequence(caller), &accountSequence{Sequence: claim.seq})
}

// AccountSequence returns the last sequence account consumed; zero when it
// never made a signed call.
func (e *Engine) AccountSequence(ctx context.Context, account types.Address) (uint32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return loadSequence(state.NewTable(ctx, e.store), account)
}
