package token

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/storage/kv/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	snc    = types.BytesToAddress([]byte{0x5c})
	alice  = types.BytesToAddress([]byte{0xa1})
	bob    = types.BytesToAddress([]byte{0xb0})
	market = types.BytesToAddress([]byte{0x33})
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	store, err := state.NewStore(memory.New(), state.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewLedger(state.NewTable(context.Background(), store), snc)
}

func requireBalance(t *testing.T, l *Ledger, account types.Address, want int64) {
	t.Helper()
	got, err := l.BalanceOf(account)
	require.NoError(t, err)
	assert.Equal(t, want, got.Int64(), "balance of %s", account)
}

func TestMintAndTransfer(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Mint(alice, sdkmath.NewInt(500)))
	requireBalance(t, l, alice, 500)

	require.NoError(t, l.Transfer(alice, bob, sdkmath.NewInt(200)))
	requireBalance(t, l, alice, 300)
	requireBalance(t, l, bob, 200)

	err := l.Transfer(bob, alice, sdkmath.NewInt(201))
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	requireBalance(t, l, bob, 200)

	supply, err := l.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, int64(500), supply.Int64())
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Mint(alice, sdkmath.NewInt(500)))

	err := l.TransferFrom(market, alice, bob, sdkmath.NewInt(100))
	assert.ErrorIs(t, err, types.ErrInsufficientAllowance)

	require.NoError(t, l.Approve(alice, market, sdkmath.NewInt(150)))
	require.NoError(t, l.TransferFrom(market, alice, bob, sdkmath.NewInt(100)))
	requireBalance(t, l, alice, 400)
	requireBalance(t, l, bob, 100)

	allowance, err := l.Allowance(alice, market)
	require.NoError(t, err)
	assert.Equal(t, int64(50), allowance.Int64())

	err = l.TransferFrom(market, alice, bob, sdkmath.NewInt(51))
	assert.ErrorIs(t, err, types.ErrInsufficientAllowance)
}

func TestTransferFromInsufficientBalance(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Mint(alice, sdkmath.NewInt(10)))
	require.NoError(t, l.Approve(alice, market, sdkmath.NewInt(100)))

	err := l.TransferFrom(market, alice, bob, sdkmath.NewInt(11))
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)

	allowance, err := l.Allowance(alice, market)
	require.NoError(t, err)
	assert.Equal(t, int64(100), allowance.Int64(), "failed pull must not consume allowance")
}

func TestZeroAddressGuards(t *testing.T) {
	l := newLedger(t)
	assert.ErrorIs(t, l.Mint(types.ZeroAddress, sdkmath.NewInt(1)), types.ErrZeroAddress)
	assert.ErrorIs(t, l.Approve(alice, types.ZeroAddress, sdkmath.NewInt(1)), types.ErrZeroAddress)

	require.NoError(t, l.Mint(alice, sdkmath.NewInt(1)))
	assert.ErrorIs(t, l.Transfer(alice, types.ZeroAddress, sdkmath.NewInt(1)), types.ErrZeroAddress)
}

func TestNegativeAmountsRejected(t *testing.T) {
	l := newLedger(t)
	assert.ErrorIs(t, l.Mint(alice, sdkmath.NewInt(-1)), types.ErrInvalidAmount)
	assert.ErrorIs(t, l.Transfer(alice, bob, sdkmath.NewInt(-1)), types.ErrInvalidAmount)
}

func TestEmptyBalanceRecordIsRemoved(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Mint(alice, sdkmath.NewInt(5)))
	require.NoError(t, l.Transfer(alice, bob, sdkmath.NewInt(5)))

	requireBalance(t, l, alice, 0)
	// Further transfers of zero from an empty account are no-ops.
	require.NoError(t, l.Transfer(alice, bob, sdkmath.ZeroInt()))
}
