package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

// ReceiptsMethod handles the receipts RPC method: recent journal entries,
// optionally restricted to one asset.
type ReceiptsMethod struct{ readMethod }

func (m *ReceiptsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		rpc_types.AssetParam
		rpc_types.PaginationParams
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if ctx.Services == nil || ctx.Services.Journal == nil {
		return nil, rpc_types.RpcErrorNotReady("Receipt journal is disabled")
	}

	limit := clampLimit(request.Limit)
	var (
		receipts []*settlement.Receipt
		err      error
	)
	if request.AssetID != nil {
		receipts, err = ctx.Services.Journal.ByAsset(ctx.Context, types.AssetID(*request.AssetID), limit)
	} else {
		receipts, err = ctx.Services.Journal.Recent(ctx.Context, limit)
	}
	if err != nil {
		return nil, rpc_types.RpcErrorInternal("Failed to query receipts: " + err.Error())
	}
	if receipts == nil {
		receipts = []*settlement.Receipt{}
	}
	return map[string]interface{}{
		"receipts": receipts,
		"limit":    limit,
	}, nil
}
