package rpc_handlers

import (
	"encoding/json"

	sdkmath "cosmossdk.io/math"

	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

// DefaultLimit and MaxLimit bound list results.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// readMethod is embedded by handlers anyone may call.
type readMethod struct{}

func (readMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (readMethod) SupportedApiVersions() []int {
	return rpc_types.AllApiVersions
}

// writeMethod is embedded by handlers acting as ctx.Account.
type writeMethod struct{}

func (writeMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleUser
}

func (writeMethod) SupportedApiVersions() []int {
	return rpc_types.AllApiVersions
}

func parseParams(params json.RawMessage, v interface{}) *rpc_types.RpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

func market(ctx *rpc_types.RpcContext) (*settlement.Engine, *rpc_types.RpcError) {
	if ctx.Services == nil || ctx.Services.Market == nil {
		return nil, rpc_types.RpcErrorInternal("Market service not available")
	}
	return ctx.Services.Market, nil
}

func requireAddress(field, value string) (types.Address, *rpc_types.RpcError) {
	if value == "" {
		return types.ZeroAddress, rpc_types.RpcErrorMissingField(field)
	}
	addr, err := types.ParseAddress(value)
	if err != nil {
		return types.ZeroAddress, rpc_types.RpcErrorActMalformed("Invalid field '" + field + "': " + err.Error())
	}
	return addr, nil
}

func requireAmount(field, value string) (sdkmath.Int, *rpc_types.RpcError) {
	if value == "" {
		return sdkmath.Int{}, rpc_types.RpcErrorMissingField(field)
	}
	amt, err := types.ParseAmount(value)
	if err != nil {
		return sdkmath.Int{}, rpc_types.FromError(err)
	}
	return amt, nil
}

func requireAsset(p rpc_types.AssetParam) (types.AssetID, *rpc_types.RpcError) {
	if p.AssetID == nil {
		return 0, rpc_types.RpcErrorMissingField("asset_id")
	}
	return types.AssetID(*p.AssetID), nil
}

func requireOffer(p rpc_types.OfferParam) (types.AssetID, types.OfferIndex, *rpc_types.RpcError) {
	asset, rpcErr := requireAsset(p.AssetParam)
	if rpcErr != nil {
		return 0, 0, rpcErr
	}
	if p.OfferIndex == nil {
		return 0, 0, rpc_types.RpcErrorMissingField("offer_index")
	}
	return asset, types.OfferIndex(*p.OfferIndex), nil
}

func requireCollection(value *uint64) (types.CollectionID, *rpc_types.RpcError) {
	if value == nil {
		return 0, rpc_types.RpcErrorMissingField("collection_id")
	}
	return types.CollectionID(*value), nil
}

func requireBps(field string, value *uint32) (types.Bps, *rpc_types.RpcError) {
	if value == nil {
		return 0, rpc_types.RpcErrorMissingField(field)
	}
	return types.Bps(*value), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
