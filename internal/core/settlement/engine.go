// Package settlement is the offer/escrow state machine: it creates offers
// backed by escrowed funds, settles the accepted one, refunds every other
// bidder and exposes the administrative parameters.
package settlement

import (
	"context"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeJamon/goMarketd/internal/core/custody"
	"github.com/LeJamon/goMarketd/internal/core/escrow"
	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/token"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Clock supplies the time operations are stamped with.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options configures an Engine.
type Options struct {
	// Policy decides how collection entries combine with the global rates.
	Policy fees.Policy
	// AllowExpiredAccept lets sellers accept offers past their expiry.
	AllowExpiredAccept bool
	// Operator is the marketplace identity: the spender buyers approve and
	// the custodian of assets awaiting a claim.
	Operator types.Address
	Clock    Clock
	Logger   *zap.Logger
}

// Engine serialises every mutating operation. Each one stages its writes in
// a fresh state table and commits them as a single batch, so a failed
// operation leaves nothing behind.
type Engine struct {
	mu        sync.RWMutex
	store     *state.Store
	calc      fees.Calculator
	opts      Options
	clock     Clock
	logger    *zap.Logger
	listeners []Listener
}

func NewEngine(store *state.Store, opts Options) (*Engine, error) {
	if opts.Operator.IsZero() {
		return nil, errorsmod.Wrap(types.ErrZeroAddress, "marketplace operator")
	}
	if opts.Policy == "" {
		opts.Policy = fees.PolicyStacked
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		calc:   fees.Calculator{Policy: opts.Policy},
		opts:   opts,
		clock:  clock,
		logger: logger.With(zap.String("module", "settlement")),
	}, nil
}

// Operator returns the marketplace identity.
func (e *Engine) Operator() types.Address {
	return e.opts.Operator
}

// Policy returns the configured fee policy.
func (e *Engine) Policy() fees.Policy {
	return e.calc.Policy
}

// Subscribe registers l for every receipt committed from now on.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// session binds the collaborators of one operation to one view, using the
// contract addresses in the current params.
type session struct {
	view     state.View
	params   *Params
	offers   *offer.Ledger
	assets   *custody.Custodian
	registry *fees.Registry
	funds    *token.Ledger
	escrow   *escrow.Manager
	now      int64
}

func (e *Engine) bind(view state.View, params *Params, now int64) *session {
	assets := custody.NewCustodian(view, params.AssetContract)
	funds := func(tok types.Address) escrow.Funds { return token.NewLedger(view, tok) }
	return &session{
		view:     view,
		params:   params,
		offers:   offer.NewLedger(view, assets),
		assets:   assets,
		registry: fees.NewRegistry(view, params.RoyaltyRegistry),
		funds:    token.NewLedger(view, params.PaymentToken),
		escrow:   escrow.NewManager(view, funds, e.opts.Operator),
		now:      now,
	}
}

// apply runs fn in a session over a fresh table and commits it.
func (e *Engine) apply(ctx context.Context, op string, caller types.Address, fn func(s *session, r *Receipt) error) (*Receipt, error) {
	return e.applyTable(ctx, op, caller, func(table *state.Table, r *Receipt) error {
		params, err := loadParams(table)
		if err != nil {
			return err
		}
		return fn(e.bind(table, params, r.Timestamp), r)
	})
}

// applyTable runs fn against a fresh table and commits it together with
// the caller's sequence, when ctx carries one. Listeners see the receipt
// only after the commit succeeded.
func (e *Engine) applyTable(ctx context.Context, op string, caller types.Address, fn func(table *state.Table, r *Receipt) error) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	table := state.NewTable(ctx, e.store)
	r := &Receipt{
		ID:        uuid.NewString(),
		Operation: op,
		Caller:    caller,
		Timestamp: e.clock.Now().Unix(),
	}
	if err := consumeSequence(ctx, table, caller); err != nil {
		return nil, err
	}
	if err := fn(table, r); err != nil {
		return nil, err
	}

	changes, err := table.Apply()
	if err != nil {
		return nil, err
	}
	r.Entries = changes.Created + changes.Modified + changes.Deleted

	e.publish(ctx, r)
	return r, nil
}

func (e *Engine) publish(ctx context.Context, r *Receipt) {
	for _, l := range e.listeners {
		if err := l.OnReceipt(ctx, r); err != nil {
			e.logger.Error("receipt listener failed",
				zap.String("receipt", r.ID),
				zap.String("operation", r.Operation),
				zap.Error(err))
		}
	}
}

// read runs fn against committed state. The table it uses is never applied.
func (e *Engine) read(ctx context.Context, fn func(s *session) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	table := state.NewTable(ctx, e.store)
	params, err := loadParams(table)
	if err != nil {
		return err
	}
	return fn(e.bind(table, params, e.clock.Now().Unix()))
}
