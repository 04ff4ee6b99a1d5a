package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goMarketd/internal/core/custody"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

// AssetMintMethod handles the asset_mint RPC method. Administrator only.
type AssetMintMethod struct{ writeMethod }

func (m *AssetMintMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		rpc_types.AssetParam
		Owner        string  `json:"owner"`
		CollectionID *uint64 `json:"collection_id"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireAsset(request.AssetParam)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := requireAddress("owner", request.Owner)
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
	asset := custody.Asset{ID: id, Owner: owner, Collection: collection}
	if err := engine.AssetMint(ctx.Context, ctx.Account, asset); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"asset": asset}, nil
}

// AssetInfoMethod handles the asset_info RPC method.
type AssetInfoMethod struct{ readMethod }

func (m *AssetInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AssetParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := requireAsset(request)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	info, err := engine.AssetInfo(ctx.Context, id)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"asset": info}, nil
}

// AssetBalanceMethod handles the asset_balance RPC method. With asset_id it
// reports whether owner holds that asset, otherwise how many assets it holds.
type AssetBalanceMethod struct{ readMethod }

func (m *AssetBalanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		rpc_types.AssetParam
		Owner string `json:"owner"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := requireAddress("owner", request.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	response := map[string]interface{}{"owner": owner}
	if request.AssetID != nil {
		id, _ := requireAsset(request.AssetParam)
		n, err := engine.AssetBalance(ctx.Context, owner, id)
		if err != nil {
			return nil, rpc_types.FromError(err)
		}
		response["asset_id"] = id
		response["balance"] = n
		return response, nil
	}

	n, err := engine.AssetHoldings(ctx.Context, owner)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	response["balance"] = n
	return response, nil
}
