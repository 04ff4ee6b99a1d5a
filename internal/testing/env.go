package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/custody"
	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/storage"
)

// EnvOptions configures a TestEnv.
type EnvOptions struct {
	Policy             fees.Policy
	BuyerFeeBps        types.Bps
	SellerFeeBps       types.Bps
	AllowExpiredAccept bool

	// Backend selects the KV backend. Disk backends live under t.TempDir().
	Backend     string
	Compression string
}

// DefaultEnvOptions charges 1% to buyers and 1% to sellers on an in-memory
// store.
func DefaultEnvOptions() EnvOptions {
	return EnvOptions{
		Policy:       fees.PolicyStacked,
		BuyerFeeBps:  100,
		SellerFeeBps: 100,
		Backend:      storage.BackendMemory,
	}
}

// Well-known contract addresses of a TestEnv.
var (
	TokenContract    = NewAccount("snc-contract").Address
	AssetContract    = NewAccount("nft-contract").Address
	RoyaltyContract  = NewAccount("royalty-contract").Address
	defaultAllowance = sdkmath.NewInt(1_000_000_000_000)
)

// TestEnv manages a bootstrapped marketplace for engine tests. It provides
// a simplified interface for creating accounts, funding them, minting
// assets, registering collections and inspecting balances.
type TestEnv struct {
	t        *testing.T
	ctx      context.Context
	store    *state.Store
	engine   *settlement.Engine
	clock    *ManualClock
	accounts map[string]*Account

	Admin    *Account
	House    *Account
	Operator *Account

	mu       sync.Mutex
	receipts []*settlement.Receipt
}

// NewTestEnv creates a bootstrapped environment with DefaultEnvOptions.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithOptions(t, DefaultEnvOptions())
}

func NewTestEnvWithOptions(t *testing.T, opts EnvOptions) *TestEnv {
	t.Helper()

	dir := ""
	if opts.Backend != storage.BackendMemory {
		dir = t.TempDir()
	}
	db, err := storage.OpenKV(opts.Backend, dir)
	if err != nil {
		t.Fatalf("Failed to open %s backend: %v", opts.Backend, err)
	}
	store, err := state.NewStore(db, state.Options{Compression: opts.Compression})
	if err != nil {
		t.Fatalf("Failed to create state store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	env := &TestEnv{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		clock:    NewManualClock(),
		accounts: make(map[string]*Account),
	}
	env.Admin = env.Account("admin")
	env.House = env.Account("house")
	env.Operator = env.Account("marketplace")

	engine, err := settlement.NewEngine(store, settlement.Options{
		Policy:             opts.Policy,
		AllowExpiredAccept: opts.AllowExpiredAccept,
		Operator:           env.Operator.Address,
		Clock:              env.clock,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	env.engine = engine

	err = engine.Bootstrap(env.ctx, &settlement.Genesis{
		Params: settlement.Params{
			Admin:           env.Admin.Address,
			House:           env.House.Address,
			BuyerFeeBps:     opts.BuyerFeeBps,
			SellerFeeBps:    opts.SellerFeeBps,
			RoyaltyRegistry: RoyaltyContract,
			AssetContract:   AssetContract,
			PaymentToken:    TokenContract,
		},
	})
	if err != nil {
		t.Fatalf("Failed to bootstrap market: %v", err)
	}

	engine.Subscribe(settlement.ListenerFunc(func(_ context.Context, r *settlement.Receipt) error {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.receipts = append(env.receipts, r)
		return nil
	}))
	return env
}

func (e *TestEnv) Engine() *settlement.Engine {
	return e.engine
}

func (e *TestEnv) Store() *state.Store {
	return e.store
}

func (e *TestEnv) Clock() *ManualClock {
	return e.clock
}

func (e *TestEnv) Context() context.Context {
	return e.ctx
}

// Account returns the named account, creating it on first use.
func (e *TestEnv) Account(name string) *Account {
	if acc, ok := e.accounts[name]; ok {
		return acc
	}
	acc := NewAccount(name)
	e.accounts[name] = acc
	return acc
}

// Fund mints amount of the payment token to each account and approves the
// marketplace to pull from it.
func (e *TestEnv) Fund(amount int64, accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		if err := e.engine.TokenMint(e.ctx, e.Admin.Address, acc.Address, sdkmath.NewInt(amount)); err != nil {
			e.t.Fatalf("Failed to fund %s: %v", acc, err)
		}
		e.Approve(acc, defaultAllowance)
	}
}

// Approve sets acc's allowance for the marketplace operator.
func (e *TestEnv) Approve(acc *Account, amount sdkmath.Int) {
	e.t.Helper()
	if err := e.engine.TokenApprove(e.ctx, acc.Address, e.Operator.Address, amount); err != nil {
		e.t.Fatalf("Failed to approve for %s: %v", acc, err)
	}
}

// MintAsset creates asset id in collection, held by owner.
func (e *TestEnv) MintAsset(id types.AssetID, owner *Account, collection types.CollectionID) {
	e.t.Helper()
	asset := custody.Asset{ID: id, Owner: owner.Address, Collection: collection}
	if err := e.engine.AssetMint(e.ctx, e.Admin.Address, asset); err != nil {
		e.t.Fatalf("Failed to mint asset %s: %v", id, err)
	}
}

// RegisterCollection creates a fee entry as the registry owner.
func (e *TestEnv) RegisterCollection(collection types.CollectionID, recipient *Account, buyingBps, sellingBps types.Bps) {
	e.t.Helper()
	entry := fees.Entry{
		Collection:    collection,
		FeeRecipient:  recipient.Address,
		BuyingFeeBps:  buyingBps,
		SellingFeeBps: sellingBps,
	}
	if err := e.engine.CreateFeeEntry(e.ctx, e.Admin.Address, entry); err != nil {
		e.t.Fatalf("Failed to register collection %s: %v", collection, err)
	}
}

// Fee returns the fee MakeOffer expects for amount on collection under the
// committed params.
func (e *TestEnv) Fee(collection types.CollectionID, amount int64) sdkmath.Int {
	e.t.Helper()
	params, err := e.engine.Params(e.ctx)
	if err != nil {
		e.t.Fatalf("Failed to read params: %v", err)
	}
	entry, err := e.engine.FeeEntry(e.ctx, collection)
	if err != nil {
		entry = nil
	}
	fee, err := fees.Calculator{Policy: e.engine.Policy()}.OfferFee(sdkmath.NewInt(amount), params.BuyerFeeBps, entry)
	if err != nil {
		e.t.Fatalf("Failed to size fee: %v", err)
	}
	return fee
}

// Bid builds an offer request for amount with the fee the market expects.
func (e *TestEnv) Bid(buyer, seller *Account, asset types.AssetID, collection types.CollectionID, amount int64) settlement.OfferRequest {
	return settlement.OfferRequest{
		Asset:      asset,
		Amount:     sdkmath.NewInt(amount),
		Buyer:      buyer.Address,
		Seller:     seller.Address,
		FeeAmount:  e.Fee(collection, amount),
		Collection: collection,
	}
}

// MakeOffer submits req as its buyer and fails the test on error.
func (e *TestEnv) MakeOffer(req settlement.OfferRequest) types.OfferIndex {
	e.t.Helper()
	index, err := e.engine.MakeOffer(e.ctx, req.Buyer, req)
	if err != nil {
		e.t.Fatalf("MakeOffer on asset %s failed: %v", req.Asset, err)
	}
	return index
}

// Balance returns acc's payment token balance.
func (e *TestEnv) Balance(acc *Account) int64 {
	return e.BalanceOf(acc.Address)
}

func (e *TestEnv) BalanceOf(addr types.Address) int64 {
	e.t.Helper()
	b, err := e.engine.TokenBalance(e.ctx, addr)
	if err != nil {
		e.t.Fatalf("Failed to read balance of %s: %v", addr, err)
	}
	return b.Int64()
}

// Offer returns the committed offer or fails the test.
func (e *TestEnv) Offer(asset types.AssetID, index types.OfferIndex) *offer.Offer {
	e.t.Helper()
	o, err := e.engine.GetOffer(e.ctx, asset, index)
	if err != nil {
		e.t.Fatalf("Failed to read asset %s offer %s: %v", asset, index, err)
	}
	return o
}

// OpenOffers returns ViewAllOffer for asset.
func (e *TestEnv) OpenOffers(asset types.AssetID) []*offer.Offer {
	e.t.Helper()
	open, err := e.engine.ViewAllOffer(e.ctx, asset)
	if err != nil {
		e.t.Fatalf("ViewAllOffer on asset %s failed: %v", asset, err)
	}
	return open
}

// Owner returns the current holder of asset.
func (e *TestEnv) Owner(asset types.AssetID) types.Address {
	e.t.Helper()
	info, err := e.engine.AssetInfo(e.ctx, asset)
	if err != nil {
		e.t.Fatalf("Failed to read asset %s: %v", asset, err)
	}
	return info.Owner
}

// Escrowed sums the escrow balances of every open offer on the assets.
func (e *TestEnv) Escrowed(assets ...types.AssetID) int64 {
	e.t.Helper()
	var total int64
	for _, asset := range assets {
		for _, o := range e.OpenOffers(asset) {
			total += e.BalanceOf(o.EscrowAccount)
		}
	}
	return total
}

// Receipts returns every receipt committed since the environment was
// bootstrapped.
func (e *TestEnv) Receipts() []*settlement.Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*settlement.Receipt(nil), e.receipts...)
}

func (e *TestEnv) Now() time.Time {
	return e.clock.Now()
}

// AdvanceTime moves the environment clock forward by d.
func (e *TestEnv) AdvanceTime(d time.Duration) {
	e.clock.Advance(d)
}
