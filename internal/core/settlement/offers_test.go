package settlement_test

import (
	"context"
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
	mtest "github.com/LeJamon/goMarketd/internal/testing"
)

func TestAcceptSettlesAndRefundsSiblings(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()

	a := m.bid(m.alice, 1, 10_000)
	b := m.bid(m.bob, 1, 10_100)
	assert.Equal(t, "200", m.Offer(1, a).FeeAmount.String())
	assert.Equal(t, "202", m.Offer(1, b).FeeAmount.String())
	assert.Equal(t, int64(10_200+10_302), m.Escrowed(1))

	result, err := m.Engine().AcceptOffer(ctx, m.seller.Address, 1, a, true)
	require.NoError(t, err)
	assert.Equal(t, a, result.Accepted.Index)
	assert.Equal(t, offer.StatusAccepted, result.Accepted.Status)
	require.Len(t, result.Refunded, 1)
	assert.Equal(t, b, result.Refunded[0].Index)
	assert.False(t, result.Parked)

	mtest.RequireOwner(t, m.TestEnv, 1, m.alice)
	mtest.RequireBalance(t, m.TestEnv, m.seller, 9_800)
	mtest.RequireBalance(t, m.TestEnv, m.artist, 100)
	mtest.RequireBalance(t, m.TestEnv, m.House, 100+200)
	mtest.RequireBalance(t, m.TestEnv, m.alice, funding-10_200)
	mtest.RequireBalance(t, m.TestEnv, m.bob, funding)

	mtest.RequireStatus(t, m.TestEnv, 1, a, offer.StatusAccepted)
	mtest.RequireStatus(t, m.TestEnv, 1, b, offer.StatusCancelledBySeller)
	assert.Empty(t, m.OpenOffers(1))
	assert.Zero(t, m.BalanceOf(m.Offer(1, a).EscrowAccount))
	assert.Zero(t, m.BalanceOf(m.Offer(1, b).EscrowAccount))
}

func TestCancelAllRefundsEveryBidder(t *testing.T) {
	m := newMarket(t)

	a := m.bid(m.alice, 3, 10_000)
	assert.Equal(t, "100", m.Offer(3, a).FeeAmount.String())
	mtest.RequireBalance(t, m.TestEnv, m.alice, funding-10_100)

	n, err := m.Engine().CancelAll(m.Context(), m.seller.Address, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mtest.RequireBalance(t, m.TestEnv, m.alice, funding)
	mtest.RequireStatus(t, m.TestEnv, 3, a, offer.StatusCancelledBySeller)
	open, err := m.Engine().ViewAllOffer(m.Context(), 3)
	require.NoError(t, err)
	assert.NotNil(t, open)
	assert.Empty(t, open)

	n, err = m.Engine().CancelAll(m.Context(), m.seller.Address, 3)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEscrowConservation(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()
	participants := []*mtest.Account{m.alice, m.bob, m.carol, m.seller, m.artist, m.House}

	check := func(step string) {
		t.Helper()
		var owed int64
		for _, asset := range []types.AssetID{1, 2} {
			for _, o := range m.OpenOffers(asset) {
				owed += o.Escrowed().Int64()
				assert.Equal(t, o.Escrowed().Int64(), m.BalanceOf(o.EscrowAccount), "%s: escrow of %d/%d", step, o.Asset, o.Index)
			}
		}
		held := m.Escrowed(1, 2)
		assert.Equal(t, owed, held, step)

		total := held
		for _, p := range participants {
			total += m.Balance(p)
		}
		assert.Equal(t, 3*funding, total, "%s: value created or destroyed", step)
	}

	a0 := m.bid(m.alice, 1, 1_000)
	m.bid(m.bob, 1, 2_000)
	m.bid(m.carol, 2, 1_500)
	a1 := m.bid(m.alice, 2, 1_200)
	check("offers made")

	cancelled, err := e.CancelOfferBuyer(ctx, m.bob.Address, 1)
	require.NoError(t, err)
	assert.Equal(t, []types.OfferIndex{1}, cancelled)
	check("buyer cancel")

	require.NoError(t, e.CancelOfferSeller(ctx, m.seller.Address, 2, a1))
	check("seller cancel")

	m.bid(m.bob, 1, 3_000)
	check("rebid")

	_, err = e.AcceptOffer(ctx, m.seller.Address, 1, a0, true)
	require.NoError(t, err)
	check("accept")

	_, err = e.CancelAll(ctx, m.seller.Address, 2)
	require.NoError(t, err)
	check("cancel all")
	assert.Zero(t, m.Escrowed(1, 2))
}

func TestSingleAcceptance(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()

	a := m.bid(m.alice, 1, 1_000)
	b := m.bid(m.bob, 1, 1_100)
	c := m.bid(m.carol, 1, 1_200)

	_, err := m.Engine().AcceptOffer(ctx, m.seller.Address, 1, b, true)
	require.NoError(t, err)

	_, err = m.Engine().AcceptOffer(ctx, m.seller.Address, 1, b, true)
	mtest.RequireCode(t, err, types.ErrUnauthorized)

	// The new holder cannot accept an offer the sale already closed.
	_, err = m.Engine().AcceptOffer(ctx, m.bob.Address, 1, c, true)
	mtest.RequireCode(t, err, types.ErrOfferNotOpen)

	history, err := m.Engine().OfferHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 1, countStatus(history, offer.StatusAccepted))
	assert.Equal(t, 2, countStatus(history, offer.StatusCancelledBySeller))
	mtest.RequireStatus(t, m.TestEnv, 1, a, offer.StatusCancelledBySeller)
	mtest.RequireBalance(t, m.TestEnv, m.alice, funding)
	mtest.RequireBalance(t, m.TestEnv, m.carol, funding)
}

func TestExactlyOnceRelease(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	a := m.bid(m.alice, 1, 1_000)

	require.NoError(t, m.Engine().CancelOfferSeller(ctx, m.seller.Address, 1, a))
	mtest.AssertNoBalanceChange(t, m.TestEnv, m.alice, func() {
		err := m.Engine().CancelOfferSeller(ctx, m.seller.Address, 1, a)
		mtest.RequireCode(t, err, types.ErrOfferNotOpen)

		_, err = m.Engine().AcceptOffer(ctx, m.seller.Address, 1, a, true)
		mtest.RequireCode(t, err, types.ErrOfferNotOpen)

		_, err = m.Engine().MonitorOffer(ctx, m.carol.Address, 1, a)
		mtest.RequireCode(t, err, types.ErrOfferNotOpen)
	})

	acct, err := m.Engine().EscrowInfo(ctx, m.Offer(1, a).EscrowAccount)
	require.NoError(t, err)
	assert.True(t, acct.Released)
	assert.Equal(t, m.alice.Address, acct.Buyer)
}

func TestAuthorization(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()
	a := m.bid(m.alice, 1, 1_000)

	_, err := e.AcceptOffer(ctx, m.bob.Address, 1, a, true)
	mtest.RequireCode(t, err, types.ErrUnauthorized)
	assert.Contains(t, err.Error(), "only the seller of this asset may accept")

	err = e.CancelOfferSeller(ctx, m.bob.Address, 1, a)
	mtest.RequireCode(t, err, types.ErrUnauthorized)

	_, err = e.CancelAll(ctx, m.alice.Address, 1)
	mtest.RequireCode(t, err, types.ErrUnauthorized)

	_, err = e.CancelOfferBuyer(ctx, m.carol.Address, 1)
	mtest.RequireCode(t, err, types.ErrUnauthorized)

	_, err = e.CancelOfferBuyer(ctx, m.carol.Address, 2)
	mtest.RequireCode(t, err, types.ErrOfferNotFound)

	req := m.Bid(m.bob, m.seller, 1, art, 1_000)
	_, err = e.MakeOffer(ctx, m.carol.Address, req)
	mtest.RequireCode(t, err, types.ErrUnauthorized)

	mtest.RequireStatus(t, m.TestEnv, 1, a, offer.StatusOpen)
	mtest.RequireOwner(t, m.TestEnv, 1, m.seller)
}

func TestCancelOfferBuyerCancelsOnlyOwnOffers(t *testing.T) {
	m := newMarket(t)
	a0 := m.bid(m.alice, 1, 1_000)
	b := m.bid(m.bob, 1, 1_100)
	a1 := m.bid(m.alice, 1, 1_300)

	cancelled, err := m.Engine().CancelOfferBuyer(m.Context(), m.alice.Address, 1)
	require.NoError(t, err)
	assert.Equal(t, []types.OfferIndex{a0, a1}, cancelled)

	mtest.RequireStatus(t, m.TestEnv, 1, a0, offer.StatusCancelledByBuyer)
	mtest.RequireStatus(t, m.TestEnv, 1, a1, offer.StatusCancelledByBuyer)
	mtest.RequireStatus(t, m.TestEnv, 1, b, offer.StatusOpen)
	mtest.RequireBalance(t, m.TestEnv, m.alice, funding)
}

func TestViewAllOfferEmpty(t *testing.T) {
	m := newMarket(t)
	for _, asset := range []types.AssetID{1, 404} {
		open, err := m.Engine().ViewAllOffer(m.Context(), asset)
		require.NoError(t, err)
		assert.NotNil(t, open)
		assert.Empty(t, open)
	}
}

func TestMakeOfferRejections(t *testing.T) {
	m := newMarket(t)
	dave := m.Account("dave")
	m.Fund(100, dave)

	tests := []struct {
		name   string
		caller *mtest.Account
		mutate func(req *settlement.OfferRequest)
		code   *errorsmod.Error
	}{
		{"unknown asset", m.alice, func(r *settlement.OfferRequest) { r.Asset = 404 }, types.ErrAssetNotFound},
		{"seller does not hold asset", m.alice, func(r *settlement.OfferRequest) { r.Seller = m.bob.Address }, types.ErrUnauthorized},
		{"collection mismatch", m.alice, func(r *settlement.OfferRequest) { r.Collection = noFees }, types.ErrCollectionMismatch},
		{"fee mismatch", m.alice, func(r *settlement.OfferRequest) { r.FeeAmount = sdkmath.NewInt(1) }, types.ErrFeeMismatch},
		{"zero amount", m.alice, func(r *settlement.OfferRequest) { r.Amount = sdkmath.ZeroInt(); r.FeeAmount = sdkmath.ZeroInt() }, types.ErrInvalidAmount},
		{"negative fee", m.alice, func(r *settlement.OfferRequest) { r.FeeAmount = sdkmath.NewInt(-1) }, types.ErrInvalidAmount},
		{"expiry in the past", m.alice, func(r *settlement.OfferRequest) { r.Expiry = m.Clock().Unix() }, types.ErrInvalidExpiry},
		{"insufficient balance", dave, func(r *settlement.OfferRequest) { r.Buyer = dave.Address }, types.ErrInsufficientBalance},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := m.Bid(m.alice, m.seller, 1, art, 10_000)
			tc.mutate(&req)
			mtest.AssertNoBalanceChange(t, m.TestEnv, tc.caller, func() {
				_, err := m.Engine().MakeOffer(m.Context(), tc.caller.Address, req)
				mtest.RequireCode(t, err, tc.code)
			})
		})
	}

	history, err := m.Engine().OfferHistory(m.Context(), 1)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMakeOfferWithoutAllowanceLeavesFundsUntouched(t *testing.T) {
	m := newMarket(t)
	m.Approve(m.alice, sdkmath.NewInt(10))

	mtest.AssertNoBalanceChange(t, m.TestEnv, m.alice, func() {
		_, err := m.Engine().MakeOffer(m.Context(), m.alice.Address, m.Bid(m.alice, m.seller, 1, art, 10_000))
		mtest.RequireCode(t, err, types.ErrInsufficientAllowance)
	})

	count := len(m.OpenOffers(1))
	assert.Zero(t, count)
	allowance, err := m.Engine().TokenAllowance(m.Context(), m.alice.Address, m.Operator.Address)
	require.NoError(t, err)
	assert.Equal(t, int64(10), allowance.Int64())
}

func TestSellerCannotBidOnOwnAsset(t *testing.T) {
	m := newMarket(t)
	m.Fund(funding, m.seller)

	_, err := m.Engine().MakeOffer(m.Context(), m.seller.Address, m.Bid(m.seller, m.seller, 1, art, 1_000))
	mtest.RequireCode(t, err, types.ErrUnauthorized)
}

func TestFailedAcceptLeavesNoTrace(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()

	a := m.bid(m.alice, 1, 10_000)
	b := m.bid(m.bob, 1, 10_100)

	// Drop the sibling's escrow record so the refund step fails after the
	// winning offer has already been paid out and the asset moved.
	tbl := state.NewTable(ctx, m.Store())
	require.NoError(t, tbl.Erase(keylet.Escrow(m.Offer(1, b).EscrowAccount)))
	_, err := tbl.Apply()
	require.NoError(t, err)

	_, err = m.Engine().AcceptOffer(ctx, m.seller.Address, 1, a, true)
	mtest.RequireCode(t, err, types.ErrEscrowNotFound)

	mtest.RequireStatus(t, m.TestEnv, 1, a, offer.StatusOpen)
	mtest.RequireStatus(t, m.TestEnv, 1, b, offer.StatusOpen)
	mtest.RequireOwner(t, m.TestEnv, 1, m.seller)
	mtest.RequireBalance(t, m.TestEnv, m.seller, 0)
	mtest.RequireBalance(t, m.TestEnv, m.House, 0)
	assert.Equal(t, int64(10_200), m.BalanceOf(m.Offer(1, a).EscrowAccount))

	acct, err := m.Engine().EscrowInfo(ctx, m.Offer(1, a).EscrowAccount)
	require.NoError(t, err)
	assert.False(t, acct.Released)
}

func TestAcceptRequiresFeeEntry(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	a := m.bid(m.alice, 1, 1_000)

	require.NoError(t, m.Engine().ChangeRoyaltyContractAddress(ctx, m.Admin.Address, m.Account("registry-v2").Address))

	_, err := m.Engine().AcceptOffer(ctx, m.seller.Address, 1, a, true)
	mtest.RequireCode(t, err, types.ErrCollectionNotFound)
	mtest.RequireStatus(t, m.TestEnv, 1, a, offer.StatusOpen)
}

func TestExpiry(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()

	req := m.Bid(m.alice, m.seller, 1, art, 1_000)
	req.Expiry = m.Clock().Unix() + 3600
	a := m.MakeOffer(req)

	mtest.AssertNoBalanceChange(t, m.TestEnv, m.alice, func() {
		refunded, err := e.MonitorOffer(ctx, m.carol.Address, 1, a)
		require.NoError(t, err)
		assert.False(t, refunded)
	})
	mtest.RequireStatus(t, m.TestEnv, 1, a, offer.StatusOpen)

	m.AdvanceTime(2 * time.Hour)

	expired, err := e.ExpiredOffers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, a, expired[0].Index)

	_, err = e.AcceptOffer(ctx, m.seller.Address, 1, a, true)
	mtest.RequireCode(t, err, types.ErrOfferExpired)

	refunded, err := e.MonitorOffer(ctx, m.carol.Address, 1, a)
	require.NoError(t, err)
	assert.True(t, refunded)
	mtest.RequireStatus(t, m.TestEnv, 1, a, offer.StatusRefunded)
	mtest.RequireBalance(t, m.TestEnv, m.alice, funding)

	expired, err = e.ExpiredOffers(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestExpiredOfferCanStillBeCancelled(t *testing.T) {
	m := newMarket(t)
	req := m.Bid(m.alice, m.seller, 1, art, 1_000)
	req.Expiry = m.Clock().Unix() + 60
	a := m.MakeOffer(req)
	m.AdvanceTime(time.Hour)

	require.NoError(t, m.Engine().CancelOfferSeller(m.Context(), m.seller.Address, 1, a))
	mtest.RequireStatus(t, m.TestEnv, 1, a, offer.StatusCancelledBySeller)
}

func TestAllowExpiredAccept(t *testing.T) {
	opts := mtest.DefaultEnvOptions()
	opts.AllowExpiredAccept = true
	m := newMarketWith(t, opts)

	req := m.Bid(m.alice, m.seller, 1, art, 1_000)
	req.Expiry = m.Clock().Unix() + 60
	a := m.MakeOffer(req)
	m.AdvanceTime(time.Hour)

	_, err := m.Engine().AcceptOffer(m.Context(), m.seller.Address, 1, a, true)
	require.NoError(t, err)
	mtest.RequireOwner(t, m.TestEnv, 1, m.alice)
}

func TestParkedAssetClaim(t *testing.T) {
	m := newMarket(t)
	ctx := m.Context()
	e := m.Engine()
	a := m.bid(m.alice, 1, 1_000)

	result, err := e.AcceptOffer(ctx, m.seller.Address, 1, a, false)
	require.NoError(t, err)
	assert.True(t, result.Parked)
	mtest.RequireOwner(t, m.TestEnv, 1, m.Operator)

	info, err := e.AssetInfo(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, info.ClaimableBy)
	assert.Equal(t, m.alice.Address, *info.ClaimableBy)

	mtest.RequireCode(t, e.ClaimAsset(ctx, m.bob.Address, 1), types.ErrUnauthorized)
	require.NoError(t, e.ClaimAsset(ctx, m.alice.Address, 1))
	mtest.RequireOwner(t, m.TestEnv, 1, m.alice)
	mtest.RequireCode(t, e.ClaimAsset(ctx, m.alice.Address, 1), types.ErrNoPendingClaim)

	held, err := e.AssetBalance(ctx, m.alice.Address, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), held)
}

func TestUninitialisedEngine(t *testing.T) {
	m := newMarket(t)
	fresh := freshEngine(t)
	ctx := context.Background()

	open, err := fresh.ViewAllOffer(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = fresh.MakeOffer(ctx, m.alice.Address, m.Bid(m.alice, m.seller, 1, art, 1_000))
	assert.ErrorIs(t, err, types.ErrNotInitialized)
}
