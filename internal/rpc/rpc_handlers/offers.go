package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goMarketd/internal/core/offer"
	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

// MakeOfferMethod handles the make_offer RPC method. The acting account is
// the buyer.
type MakeOfferMethod struct{ writeMethod }

func (m *MakeOfferMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		rpc_types.AssetParam
		Amount       string  `json:"amount"`
		FeeAmount    string  `json:"fee_amount"`
		Expiry       int64   `json:"expiry,omitempty"`
		Seller       string  `json:"seller"`
		CollectionID *uint64 `json:"collection_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}

	asset, rpcErr := requireAsset(request.AssetParam)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := requireAmount("amount", request.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	fee, rpcErr := requireAmount("fee_amount", request.FeeAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	seller, rpcErr := requireAddress("seller", request.Seller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	collection, rpcErr := requireCollection(request.CollectionID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	index, err := engine.MakeOffer(ctx.Context, ctx.Account, settlement.OfferRequest{
		Asset:      asset,
		Amount:     amount,
		Expiry:     request.Expiry,
		Buyer:      ctx.Account,
		Seller:     seller,
		FeeAmount:  fee,
		Collection: collection,
	})
	if err != nil {
		return nil, rpc_types.FromError(err)
	}

	o, err := engine.GetOffer(ctx.Context, asset, index)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"offer_index": index,
		"offer":       o,
	}, nil
}

// AcceptOfferMethod handles the accept_offer RPC method. transfer_now
// defaults to true.
type AcceptOfferMethod struct{ writeMethod }

func (m *AcceptOfferMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		rpc_types.OfferParam
		TransferNow *bool `json:"transfer_now,omitempty"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, index, rpcErr := requireOffer(request.OfferParam)
	if rpcErr != nil {
		return nil, rpcErr
	}
	transferNow := request.TransferNow == nil || *request.TransferNow

	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	result, err := engine.AcceptOffer(ctx.Context, ctx.Account, asset, index, transferNow)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"accepted": result.Accepted,
		"refunded": orEmpty(result.Refunded),
		"payouts":  result.Payouts,
		"parked":   result.Parked,
	}, nil
}

// CancelOfferSellerMethod handles the cancel_offer_seller RPC method.
type CancelOfferSellerMethod struct{ writeMethod }

func (m *CancelOfferSellerMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.OfferParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, index, rpcErr := requireOffer(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := engine.CancelOfferSeller(ctx.Context, ctx.Account, asset, index); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"asset_id":    asset,
		"offer_index": index,
		"cancelled":   true,
	}, nil
}

// CancelOfferBuyerMethod handles the cancel_offer_buyer RPC method. Every
// open offer of the acting account on the asset is cancelled.
type CancelOfferBuyerMethod struct{ writeMethod }

func (m *CancelOfferBuyerMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AssetParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := requireAsset(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	cancelled, err := engine.CancelOfferBuyer(ctx.Context, ctx.Account, asset)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"asset_id":  asset,
		"cancelled": cancelled,
	}, nil
}

// CancelAllMethod handles the cancel_all RPC method.
type CancelAllMethod struct{ writeMethod }

func (m *CancelAllMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AssetParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := requireAsset(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	n, err := engine.CancelAll(ctx.Context, ctx.Account, asset)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"asset_id":  asset,
		"cancelled": n,
	}, nil
}

// MonitorOfferMethod handles the monitor_offer RPC method.
type MonitorOfferMethod struct{ writeMethod }

func (m *MonitorOfferMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.OfferParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, index, rpcErr := requireOffer(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	refunded, err := engine.MonitorOffer(ctx.Context, ctx.Account, asset, index)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"asset_id":    asset,
		"offer_index": index,
		"refunded":    refunded,
	}, nil
}

// ClaimAssetMethod handles the claim_asset RPC method.
type ClaimAssetMethod struct{ writeMethod }

func (m *ClaimAssetMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AssetParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := requireAsset(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := engine.ClaimAsset(ctx.Context, ctx.Account, asset); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"asset_id": asset,
		"owner":    ctx.Account,
	}, nil
}

// ViewAllOfferMethod handles the view_all_offer RPC method. It never fails
// for a well-formed asset id.
type ViewAllOfferMethod struct{ readMethod }

func (m *ViewAllOfferMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AssetParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := requireAsset(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	offers, err := engine.ViewAllOffer(ctx.Context, asset)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"asset_id": asset,
		"offers":   orEmpty(offers),
	}, nil
}

// OfferInfoMethod handles the offer_info RPC method.
type OfferInfoMethod struct{ readMethod }

func (m *OfferInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.OfferParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, index, rpcErr := requireOffer(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	o, err := engine.GetOffer(ctx.Context, asset, index)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"offer": o}, nil
}

// OfferHistoryMethod handles the offer_history RPC method.
type OfferHistoryMethod struct{ readMethod }

func (m *OfferHistoryMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AssetParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	asset, rpcErr := requireAsset(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	offers, err := engine.OfferHistory(ctx.Context, asset)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"asset_id": asset,
		"offers":   orEmpty(offers),
	}, nil
}

// EscrowInfoMethod handles the escrow_info RPC method.
type EscrowInfoMethod struct{ readMethod }

func (m *EscrowInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		EscrowAccount string `json:"escrow_account"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := requireAddress("escrow_account", request.EscrowAccount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	acct, err := engine.EscrowInfo(ctx.Context, addr)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"escrow": acct}, nil
}

func orEmpty(offers []*offer.Offer) []*offer.Offer {
	if offers == nil {
		return []*offer.Offer{}
	}
	return offers
}
