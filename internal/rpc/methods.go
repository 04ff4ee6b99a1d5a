package rpc

import (
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_handlers"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

func registerAllMethods(registry *rpc_types.MethodRegistry) {
	// Offer lifecycle
	registry.Register("make_offer", &rpc_handlers.MakeOfferMethod{})
	registry.Register("accept_offer", &rpc_handlers.AcceptOfferMethod{})
	registry.Register("cancel_offer_seller", &rpc_handlers.CancelOfferSellerMethod{})
	registry.Register("cancel_offer_buyer", &rpc_handlers.CancelOfferBuyerMethod{})
	registry.Register("cancel_all", &rpc_handlers.CancelAllMethod{})
	registry.Register("monitor_offer", &rpc_handlers.MonitorOfferMethod{})
	registry.Register("claim_asset", &rpc_handlers.ClaimAssetMethod{})

	// Offer queries
	registry.Register("view_all_offer", &rpc_handlers.ViewAllOfferMethod{})
	registry.Register("offer_info", &rpc_handlers.OfferInfoMethod{})
	registry.Register("offer_history", &rpc_handlers.OfferHistoryMethod{})
	registry.Register("escrow_info", &rpc_handlers.EscrowInfoMethod{})

	// Administration
	registry.Register("market_params", &rpc_handlers.MarketParamsMethod{})
	registry.Register("set_buyer_fee", rpc_handlers.NewSetBuyerFeeMethod())
	registry.Register("set_seller_fee", rpc_handlers.NewSetSellerFeeMethod())
	registry.Register("change_royalty_contract", rpc_handlers.NewChangeRoyaltyContractMethod())
	registry.Register("change_nft_contract", rpc_handlers.NewChangeNFTContractMethod())
	registry.Register("change_snc_contract", rpc_handlers.NewChangeSNCContractMethod())
	registry.Register("set_house_address", rpc_handlers.NewSetHouseAddressMethod())
	registry.Register("transfer_admin", rpc_handlers.NewTransferAdminMethod())

	// Fee registry
	registry.Register("fee_entry_create", &rpc_handlers.FeeEntryCreateMethod{})
	registry.Register("fee_entry_update_buying", &rpc_handlers.FeeEntryUpdateMethod{Field: rpc_handlers.FieldBuyingFee})
	registry.Register("fee_entry_update_selling", &rpc_handlers.FeeEntryUpdateMethod{Field: rpc_handlers.FieldSellingFee})
	registry.Register("fee_entry_update_recipient", &rpc_handlers.FeeEntryUpdateMethod{Field: rpc_handlers.FieldFeeRecipient})
	registry.Register("fee_entry", &rpc_handlers.FeeEntryMethod{})
	registry.Register("fee_entries", &rpc_handlers.FeeEntriesMethod{})
	registry.Register("registry_transfer_ownership", &rpc_handlers.RegistryTransferOwnershipMethod{})

	// Value token
	registry.Register("token_mint", &rpc_handlers.TokenMintMethod{})
	registry.Register("token_approve", &rpc_handlers.TokenApproveMethod{})
	registry.Register("token_transfer", &rpc_handlers.TokenTransferMethod{})
	registry.Register("token_balance", &rpc_handlers.TokenBalanceMethod{})
	registry.Register("token_allowance", &rpc_handlers.TokenAllowanceMethod{})
	registry.Register("account_sequence", &rpc_handlers.AccountSequenceMethod{})

	// Assets
	registry.Register("asset_mint", &rpc_handlers.AssetMintMethod{})
	registry.Register("asset_info", &rpc_handlers.AssetInfoMethod{})
	registry.Register("asset_balance", &rpc_handlers.AssetBalanceMethod{})

	// Server
	registry.Register("ping", &rpc_handlers.PingMethod{})
	registry.Register("server_info", &rpc_handlers.ServerInfoMethod{})
	registry.Register("receipts", &rpc_handlers.ReceiptsMethod{})
}
