package settlement_test

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goMarketd/internal/core/custody"
	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/token"
	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/storage/kv/memory"
	mtest "github.com/LeJamon/goMarketd/internal/testing"
)

func freshEngine(t *testing.T) *settlement.Engine {
	t.Helper()
	store, err := state.NewStore(memory.New(), state.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	e, err := settlement.NewEngine(store, settlement.Options{Operator: mtest.NewAccount("marketplace").Address})
	require.NoError(t, err)
	return e
}

func TestNewEngineRequiresOperator(t *testing.T) {
	store, err := state.NewStore(memory.New(), state.Options{})
	require.NoError(t, err)
	defer store.Close()

	_, err = settlement.NewEngine(store, settlement.Options{})
	mtest.RequireCode(t, err, types.ErrZeroAddress)
}

func TestRateChangesApplyToNewOffersOnly(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()

	a := m.bid(m.alice, 1, 10_000)
	require.NoError(t, e.SetBuyerFee(ctx, m.Admin.Address, 300))

	stale := m.Bid(m.bob, m.seller, 1, art, 10_000)
	assert.Equal(t, "400", stale.FeeAmount.String())
	stale.FeeAmount = sdkmath.NewInt(200)
	_, err := e.MakeOffer(ctx, m.bob.Address, stale)
	mtest.RequireCode(t, err, types.ErrFeeMismatch)

	m.bid(m.bob, 1, 10_000)
	assert.Equal(t, "200", m.Offer(1, a).FeeAmount.String())

	require.NoError(t, e.SetSellerFee(ctx, m.Admin.Address, 500))
	_, err = e.AcceptOffer(ctx, m.seller.Address, 1, a, true)
	require.NoError(t, err)

	mtest.RequireBalance(t, m.TestEnv, m.House, 500+200)
	mtest.RequireBalance(t, m.TestEnv, m.artist, 100)
	mtest.RequireBalance(t, m.TestEnv, m.seller, 9_400)
	mtest.RequireBalance(t, m.TestEnv, m.bob, funding)
}

func TestAdminSetterBounds(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()
	before, err := e.Params(ctx)
	require.NoError(t, err)

	mtest.RequireCode(t, e.SetBuyerFee(ctx, m.bob.Address, 10), types.ErrUnauthorized)
	mtest.RequireCode(t, e.SetSellerFee(ctx, m.bob.Address, 10), types.ErrUnauthorized)
	mtest.RequireCode(t, e.ChangeNFTContractAddress(ctx, m.bob.Address, m.bob.Address), types.ErrUnauthorized)
	mtest.RequireCode(t, e.SetBuyerFee(ctx, m.Admin.Address, types.MaxBps+1), types.ErrInvalidFeeRate)
	mtest.RequireCode(t, e.SetSellerFee(ctx, m.Admin.Address, types.MaxBps+1), types.ErrInvalidFeeRate)

	zero := types.ZeroAddress
	for name, set := range map[string]func() error{
		"royalty": func() error { return e.ChangeRoyaltyContractAddress(ctx, m.Admin.Address, zero) },
		"nft":     func() error { return e.ChangeNFTContractAddress(ctx, m.Admin.Address, zero) },
		"snc":     func() error { return e.ChangeSNCContractAddress(ctx, m.Admin.Address, zero) },
		"house":   func() error { return e.SetHouseAddress(ctx, m.Admin.Address, zero) },
		"admin":   func() error { return e.TransferAdmin(ctx, m.Admin.Address, zero) },
	} {
		t.Run(name, func(t *testing.T) {
			mtest.RequireCode(t, set(), types.ErrZeroAddress)
		})
	}

	after, err := e.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCombinedBuyerRateBound(t *testing.T) {
	m := newMarket(t)
	require.NoError(t, m.Engine().SetBuyerFee(m.Context(), m.Admin.Address, 9_950))

	req := m.Bid(m.alice, m.seller, 3, noFees, 1_000)
	_, err := m.Engine().MakeOffer(m.Context(), m.alice.Address, req)
	require.NoError(t, err)

	req = m.Bid(m.alice, m.seller, 3, noFees, 1_000)
	req.Asset = 1
	req.Collection = art
	_, err = m.Engine().MakeOffer(m.Context(), m.alice.Address, req)
	mtest.RequireCode(t, err, types.ErrInvalidFeeRate)
}

func TestTransferAdmin(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()

	require.NoError(t, e.TransferAdmin(ctx, m.Admin.Address, m.bob.Address))
	mtest.RequireCode(t, e.SetBuyerFee(ctx, m.Admin.Address, 50), types.ErrUnauthorized)
	require.NoError(t, e.SetBuyerFee(ctx, m.bob.Address, 50))

	params, err := e.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.bob.Address, params.Admin)
	assert.Equal(t, types.Bps(50), params.BuyerFeeBps)
}

func TestSetHouseAddress(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	house2 := m.Account("house-v2")

	a := m.bid(m.alice, 1, 10_000)
	require.NoError(t, m.Engine().SetHouseAddress(ctx, m.Admin.Address, house2.Address))
	_, err := m.Engine().AcceptOffer(ctx, m.seller.Address, 1, a, true)
	require.NoError(t, err)

	mtest.RequireBalance(t, m.TestEnv, house2, 300)
	mtest.RequireBalance(t, m.TestEnv, m.House, 0)
}

func TestChangeSNCContractSettlesInEscrowedToken(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()
	snc2 := m.Account("snc-v2").Address

	a := m.bid(m.alice, 1, 1_000)
	require.NoError(t, e.ChangeSNCContractAddress(ctx, m.Admin.Address, snc2))
	mtest.RequireBalance(t, m.TestEnv, m.alice, 0)

	require.NoError(t, e.CancelOfferSeller(ctx, m.seller.Address, 1, a))
	old := token.NewLedger(state.NewTable(ctx, m.Store()), mtest.TokenContract)
	balance, err := old.BalanceOf(m.alice.Address)
	require.NoError(t, err)
	assert.Equal(t, funding, balance.Int64())

	m.Fund(5_000, m.bob)
	b := m.bid(m.bob, 1, 1_000)
	acct, err := e.EscrowInfo(ctx, m.Offer(1, b).EscrowAccount)
	require.NoError(t, err)
	assert.Equal(t, snc2, acct.Token)
	mtest.RequireBalance(t, m.TestEnv, m.bob, 5_000-1_020)
}

func TestChangeNFTContract(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	require.NoError(t, m.Engine().ChangeNFTContractAddress(ctx, m.Admin.Address, m.Account("nft-v2").Address))

	_, err := m.Engine().MakeOffer(ctx, m.alice.Address, m.Bid(m.alice, m.seller, 1, art, 1_000))
	mtest.RequireCode(t, err, types.ErrAssetNotFound)
}

func TestOverridePolicy(t *testing.T) {
	opts := mtest.DefaultEnvOptions()
	opts.Policy = fees.PolicyOverride
	m := newMarketWith(t, opts)
	ctx := m.Context()

	a := m.bid(m.alice, 1, 10_000)
	assert.Equal(t, "100", m.Offer(1, a).FeeAmount.String())
	_, err := m.Engine().AcceptOffer(ctx, m.seller.Address, 1, a, true)
	require.NoError(t, err)

	mtest.RequireBalance(t, m.TestEnv, m.seller, 9_900)
	mtest.RequireBalance(t, m.TestEnv, m.artist, 100)
	mtest.RequireBalance(t, m.TestEnv, m.House, 100)

	c := m.bid(m.carol, 3, 10_000)
	assert.True(t, m.Offer(3, c).FeeAmount.IsZero())
}

func TestRegistryOperations(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()

	entry := fees.Entry{Collection: 9, FeeRecipient: m.carol.Address, BuyingFeeBps: 50, SellingFeeBps: 50}
	mtest.RequireCode(t, e.CreateFeeEntry(ctx, m.bob.Address, entry), types.ErrUnauthorized)
	require.NoError(t, e.CreateFeeEntry(ctx, m.Admin.Address, entry))
	mtest.RequireCode(t, e.CreateFeeEntry(ctx, m.Admin.Address, entry), types.ErrCollectionExists)

	require.NoError(t, e.UpdateBuyingFee(ctx, m.Admin.Address, art, 300))
	assert.Equal(t, "400", m.Fee(art, 10_000).String())
	require.NoError(t, e.UpdateSellingFee(ctx, m.Admin.Address, art, 200))
	require.NoError(t, e.UpdateFeeRecipient(ctx, m.Admin.Address, art, m.carol.Address))
	mtest.RequireCode(t, e.UpdateFeeRecipient(ctx, m.Admin.Address, art, types.ZeroAddress), types.ErrZeroAddress)
	mtest.RequireCode(t, e.UpdateBuyingFee(ctx, m.Admin.Address, 404, 1), types.ErrCollectionNotFound)

	got, err := e.FeeEntry(ctx, art)
	require.NoError(t, err)
	assert.Equal(t, m.carol.Address, got.FeeRecipient)
	assert.Equal(t, types.Bps(300), got.BuyingFeeBps)
	assert.Equal(t, types.Bps(200), got.SellingFeeBps)

	entries, err := e.FeeEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	require.NoError(t, e.TransferRegistryOwnership(ctx, m.Admin.Address, m.bob.Address))
	owner, err := e.RegistryOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.bob.Address, owner)
	mtest.RequireCode(t, e.UpdateBuyingFee(ctx, m.Admin.Address, art, 0), types.ErrUnauthorized)
}

func TestTokenAndAssetOperations(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()

	mtest.RequireCode(t, e.TokenMint(ctx, m.alice.Address, m.alice.Address, sdkmath.NewInt(1)), types.ErrUnauthorized)
	require.NoError(t, e.TokenTransfer(ctx, m.alice.Address, m.bob.Address, sdkmath.NewInt(500)))
	mtest.RequireBalance(t, m.TestEnv, m.alice, funding-500)
	mtest.RequireBalance(t, m.TestEnv, m.bob, funding+500)
	mtest.RequireCode(t, e.TokenTransfer(ctx, m.seller.Address, m.bob.Address, sdkmath.NewInt(1)), types.ErrInsufficientBalance)

	asset := custody.Asset{ID: 1, Owner: m.carol.Address, Collection: art}
	mtest.RequireCode(t, e.AssetMint(ctx, m.Admin.Address, asset), types.ErrAssetExists)
	asset.ID = 10
	mtest.RequireCode(t, e.AssetMint(ctx, m.carol.Address, asset), types.ErrUnauthorized)
	require.NoError(t, e.AssetMint(ctx, m.Admin.Address, asset))
	mtest.RequireOwner(t, m.TestEnv, 10, m.carol)

	held, err := e.AssetHoldings(ctx, m.seller.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), held)

	_, err = e.AssetInfo(ctx, 404)
	mtest.RequireCode(t, err, types.ErrAssetNotFound)
}

func TestEscrowAccountsRefuseDirectCredits(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()
	a := m.bid(m.alice, 1, 10_000)
	account := m.Offer(1, a).EscrowAccount
	held := m.BalanceOf(account)

	mtest.AssertNoBalanceChange(t, m.TestEnv, m.bob, func() {
		err := e.TokenTransfer(ctx, m.bob.Address, account, sdkmath.NewInt(50))
		mtest.RequireCode(t, err, types.ErrInvalidAddress)
	})
	mtest.RequireCode(t, e.TokenMint(ctx, m.Admin.Address, account, sdkmath.NewInt(50)), types.ErrInvalidAddress)
	assert.Equal(t, held, m.BalanceOf(account))

	// settlement still drains the escrow completely
	_, err := e.AcceptOffer(ctx, m.seller.Address, 1, a, true)
	require.NoError(t, err)
	assert.Zero(t, m.BalanceOf(account))

	err = e.TokenTransfer(ctx, m.bob.Address, account, sdkmath.NewInt(50))
	mtest.RequireCode(t, err, types.ErrInvalidAddress)
}

func TestBootstrap(t *testing.T) {
	e := freshEngine(t)
	ctx := context.Background()
	admin := mtest.NewAccount("admin")
	alice := mtest.NewAccount("alice")
	artist := mtest.NewAccount("artist")

	ok, err := e.Initialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	params := settlement.Params{
		Admin:           admin.Address,
		House:           mtest.NewAccount("house").Address,
		BuyerFeeBps:     100,
		SellerFeeBps:    100,
		RoyaltyRegistry: mtest.RoyaltyContract,
		AssetContract:   mtest.AssetContract,
		PaymentToken:    mtest.TokenContract,
	}

	bad := params
	bad.House = types.ZeroAddress
	err = e.Bootstrap(ctx, &settlement.Genesis{Params: bad})
	mtest.RequireCode(t, err, types.ErrZeroAddress)
	ok, err = e.Initialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	g := &settlement.Genesis{
		Params:     params,
		Balances:   []settlement.GenesisBalance{{Account: alice.Address, Amount: sdkmath.NewInt(5_000)}},
		Approvals:  []settlement.GenesisApproval{{Owner: alice.Address, Amount: sdkmath.NewInt(5_000)}},
		Assets:     []custody.Asset{{ID: 1, Owner: artist.Address, Collection: art}},
		FeeEntries: []fees.Entry{{Collection: art, FeeRecipient: artist.Address, BuyingFeeBps: 100, SellingFeeBps: 100}},
	}
	require.NoError(t, e.Bootstrap(ctx, g))

	ok, err = e.Initialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	balance, err := e.TokenBalance(ctx, alice.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), balance.Int64())

	allowance, err := e.TokenAllowance(ctx, alice.Address, e.Operator())
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), allowance.Int64())

	info, err := e.AssetInfo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, artist.Address, info.Owner)
	assert.Nil(t, info.ClaimableBy)

	entry, err := e.FeeEntry(ctx, art)
	require.NoError(t, err)
	assert.Equal(t, artist.Address, entry.FeeRecipient)

	owner, err := e.RegistryOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin.Address, owner)

	err = e.Bootstrap(ctx, g)
	assert.ErrorIs(t, err, state.ErrEntryExists)
}
