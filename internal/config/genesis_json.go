package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/LeJamon/goMarketd/internal/core/custody"
	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// GenesisJSON represents the JSON genesis file format
type GenesisJSON struct {
	Admin           string    `json:"admin"`
	House           string    `json:"house"`
	BuyerFeeBps     types.Bps `json:"buyer_fee_bps"`
	SellerFeeBps    types.Bps `json:"seller_fee_bps"`
	RoyaltyContract string    `json:"royalty_contract"`
	NFTContract     string    `json:"nft_contract"`
	SNCContract     string    `json:"snc_contract"`

	// RegistryOwner defaults to Admin.
	RegistryOwner string `json:"registry_owner,omitempty"`

	Accounts   []GenesisAccountJSON `json:"accounts,omitempty"`
	Assets     []GenesisAssetJSON   `json:"assets,omitempty"`
	FeeEntries []GenesisFeeJSON     `json:"fee_entries,omitempty"`
}

// GenesisAccountJSON funds an account and, optionally, approves the
// marketplace operator to spend from it.
type GenesisAccountJSON struct {
	Account   string `json:"account"`
	Balance   string `json:"balance,omitempty"`
	Allowance string `json:"allowance,omitempty"`
}

type GenesisAssetJSON struct {
	AssetID      uint64 `json:"asset_id"`
	Owner        string `json:"owner"`
	CollectionID uint64 `json:"collection_id"`
}

type GenesisFeeJSON struct {
	CollectionID  uint64    `json:"collection_id"`
	FeeRecipient  string    `json:"fee_recipient"`
	BuyingFeeBps  types.Bps `json:"buying_fee_bps"`
	SellingFeeBps types.Bps `json:"selling_fee_bps"`
}

// LoadGenesisJSON loads and parses a genesis JSON file
func LoadGenesisJSON(path string) (*GenesisJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var genesis GenesisJSON
	if err := dec.Decode(&genesis); err != nil {
		return nil, fmt.Errorf("failed to parse genesis JSON: %w", err)
	}

	return &genesis, nil
}

// LoadGenesis loads path and converts it to the state Bootstrap writes.
func LoadGenesis(path string) (*settlement.Genesis, error) {
	g, err := LoadGenesisJSON(path)
	if err != nil {
		return nil, err
	}
	return g.ToGenesis()
}

// ToGenesis validates the file contents and converts them.
func (g *GenesisJSON) ToGenesis() (*settlement.Genesis, error) {
	params := settlement.Params{
		BuyerFeeBps:  g.BuyerFeeBps,
		SellerFeeBps: g.SellerFeeBps,
	}

	required := []struct {
		field string
		value string
		dst   *types.Address
	}{
		{"admin", g.Admin, &params.Admin},
		{"house", g.House, &params.House},
		{"royalty_contract", g.RoyaltyContract, &params.RoyaltyRegistry},
		{"nft_contract", g.NFTContract, &params.AssetContract},
		{"snc_contract", g.SNCContract, &params.PaymentToken},
	}
	for _, r := range required {
		addr, err := parseGenesisAddress(r.field, r.value)
		if err != nil {
			return nil, err
		}
		*r.dst = addr
	}

	if err := g.BuyerFeeBps.Validate(); err != nil {
		return nil, fmt.Errorf("buyer_fee_bps: %w", err)
	}
	if err := g.SellerFeeBps.Validate(); err != nil {
		return nil, fmt.Errorf("seller_fee_bps: %w", err)
	}

	genesis := &settlement.Genesis{
		Params:        params,
		RegistryOwner: params.Admin,
	}
	if g.RegistryOwner != "" {
		owner, err := parseGenesisAddress("registry_owner", g.RegistryOwner)
		if err != nil {
			return nil, err
		}
		genesis.RegistryOwner = owner
	}

	for i, acc := range g.Accounts {
		field := fmt.Sprintf("accounts[%d]", i)
		addr, err := parseGenesisAddress(field+".account", acc.Account)
		if err != nil {
			return nil, err
		}
		if acc.Balance != "" {
			amount, err := types.ParseAmount(acc.Balance)
			if err != nil {
				return nil, fmt.Errorf("%s.balance: %w", field, err)
			}
			genesis.Balances = append(genesis.Balances, settlement.GenesisBalance{Account: addr, Amount: amount})
		}
		if acc.Allowance != "" {
			amount, err := types.ParseAmount(acc.Allowance)
			if err != nil {
				return nil, fmt.Errorf("%s.allowance: %w", field, err)
			}
			genesis.Approvals = append(genesis.Approvals, settlement.GenesisApproval{Owner: addr, Amount: amount})
		}
	}

	for i, a := range g.Assets {
		owner, err := parseGenesisAddress(fmt.Sprintf("assets[%d].owner", i), a.Owner)
		if err != nil {
			return nil, err
		}
		genesis.Assets = append(genesis.Assets, custody.Asset{
			ID:         types.AssetID(a.AssetID),
			Owner:      owner,
			Collection: types.CollectionID(a.CollectionID),
		})
	}

	for i, e := range g.FeeEntries {
		field := fmt.Sprintf("fee_entries[%d]", i)
		recipient, err := parseGenesisAddress(field+".fee_recipient", e.FeeRecipient)
		if err != nil {
			return nil, err
		}
		if err := e.BuyingFeeBps.Validate(); err != nil {
			return nil, fmt.Errorf("%s.buying_fee_bps: %w", field, err)
		}
		if err := e.SellingFeeBps.Validate(); err != nil {
			return nil, fmt.Errorf("%s.selling_fee_bps: %w", field, err)
		}
		genesis.FeeEntries = append(genesis.FeeEntries, fees.Entry{
			Collection:    types.CollectionID(e.CollectionID),
			FeeRecipient:  recipient,
			BuyingFeeBps:  e.BuyingFeeBps,
			SellingFeeBps: e.SellingFeeBps,
		})
	}

	return genesis, nil
}

func parseGenesisAddress(field, value string) (types.Address, error) {
	if value == "" {
		return types.ZeroAddress, fmt.Errorf("genesis %s is required", field)
	}
	addr, err := types.ParseAddress(value)
	if err != nil {
		return types.ZeroAddress, fmt.Errorf("genesis %s: %w", field, err)
	}
	if addr.IsZero() {
		return types.ZeroAddress, fmt.Errorf("genesis %s must not be the zero address", field)
	}
	return addr, nil
}
