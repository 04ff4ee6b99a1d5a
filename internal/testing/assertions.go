package testing

import (
	"testing"

	errorsmod "cosmossdk.io/errors"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// RequireBalance asserts that an account holds the expected payment token balance.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected int64) {
	t.Helper()
	actual := env.Balance(acc)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch: expected %d, got %d", acc.Name, expected, actual)
}

// RequireStatus asserts the committed status of one offer.
func RequireStatus(t *testing.T, env *TestEnv, asset types.AssetID, index types.OfferIndex, expected offer.Status) {
	t.Helper()
	actual := env.Offer(asset, index).Status
	require.Equal(t, expected, actual,
		"Asset %s offer %s status mismatch: expected %s, got %s", asset, index, expected, actual)
}

// RequireOwner asserts who currently holds asset.
func RequireOwner(t *testing.T, env *TestEnv, asset types.AssetID, acc *Account) {
	t.Helper()
	require.Equal(t, acc.Address, env.Owner(asset),
		"Asset %s should be held by %s", asset, acc.Name)
}

// RequireCode asserts that err carries the registered code of expected.
func RequireCode(t *testing.T, err error, expected *errorsmod.Error) {
	t.Helper()
	require.Error(t, err, "Expected %s, operation succeeded", expected)
	result := ResultOf(err)
	require.True(t, result.Is(expected),
		"Expected code %s/%d (%s), got %s/%d: %s",
		expected.Codespace(), expected.ABCICode(), expected, result.Codespace, result.Code, result.Log)
}

// AssertBalanceChange asserts that running fn changes acc's balance by
// expectedChange.
func AssertBalanceChange(t *testing.T, env *TestEnv, acc *Account, expectedChange int64, fn func()) {
	t.Helper()
	before := env.Balance(acc)
	fn()
	after := env.Balance(acc)
	require.Equal(t, expectedChange, after-before,
		"Account %s balance change mismatch: expected %d, got %d", acc.Name, expectedChange, after-before)
}

// AssertNoBalanceChange asserts that fn leaves acc's balance untouched.
func AssertNoBalanceChange(t *testing.T, env *TestEnv, acc *Account, fn func()) {
	t.Helper()
	AssertBalanceChange(t, env, acc, 0, fn)
}
