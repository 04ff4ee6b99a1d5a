// Package testing provides test infrastructure for the settlement engine.
//
// It provides a deterministic, bootstrapped marketplace so tests can focus
// on offer flows rather than wiring.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: a bootstrapped engine over an in-memory or on-disk store
//   - Account: deterministic secp256k1 accounts derived from a name
//   - ManualClock: a controllable clock for expiry tests
//   - Assertions: helpers for balances, offer status, custody and error codes
//
// # Basic Usage
//
//	func TestAccept(t *testing.T) {
//	    env := mtest.NewTestEnv(t)
//	    seller := env.Account("seller")
//	    alice := env.Account("alice")
//
//	    env.Fund(10_000, alice)
//	    env.RegisterCollection(7, env.Account("artist"), 100, 100)
//	    env.MintAsset(1, seller, 7)
//
//	    index := env.MakeOffer(env.Bid(alice, seller, 1, 7, 1_000))
//	    _, err := env.Engine().AcceptOffer(env.Context(), seller.Address, 1, index, true)
//	    require.NoError(t, err)
//	    mtest.RequireOwner(t, env, 1, alice)
//	}
//
// # Accounts
//
// NewAccount derives the key from the account name, so the same name always
// yields the same address across runs and packages.
package testing
