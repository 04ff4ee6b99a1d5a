package settlement_test

import (
	"testing"

	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/types"
	mtest "github.com/LeJamon/goMarketd/internal/testing"
)

const (
	art     types.CollectionID = 7
	noFees  types.CollectionID = 8
	funding int64              = 100_000
)

type market struct {
	*mtest.TestEnv
	seller, alice, bob, carol, artist *mtest.Account
}

// newMarket funds three bidders and lists assets 1 and 2 in collection art
// (1% buying, 1% selling) and asset 3 in collection noFees.
func newMarket(t *testing.T) *market {
	t.Helper()
	return newMarketWith(t, mtest.DefaultEnvOptions())
}

func newMarketWith(t *testing.T, opts mtest.EnvOptions) *market {
	t.Helper()
	env := mtest.NewTestEnvWithOptions(t, opts)
	m := &market{
		TestEnv: env,
		seller:  env.Account("seller"),
		alice:   env.Account("alice"),
		bob:     env.Account("bob"),
		carol:   env.Account("carol"),
		artist:  env.Account("artist"),
	}
	env.Fund(funding, m.alice, m.bob, m.carol)
	env.RegisterCollection(art, m.artist, 100, 100)
	env.RegisterCollection(noFees, m.artist, 0, 0)
	env.MintAsset(1, m.seller, art)
	env.MintAsset(2, m.seller, art)
	env.MintAsset(3, m.seller, noFees)
	return m
}

func (m *market) bid(buyer *mtest.Account, asset types.AssetID, amount int64) types.OfferIndex {
	collection := art
	if asset == 3 {
		collection = noFees
	}
	return m.MakeOffer(m.Bid(buyer, m.seller, asset, collection, amount))
}

func countStatus(offers []*offer.Offer, status offer.Status) int {
	n := 0
	for _, o := range offers {
		if o.Status == status {
			n++
		}
	}
	return n
}
