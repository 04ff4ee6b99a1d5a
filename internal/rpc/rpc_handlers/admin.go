package rpc_handlers

import (
	"context"
	"encoding/json"

	"github.com/LeJamon/goMarketd/internal/core/types"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

// MarketParamsMethod handles the market_params RPC method.
type MarketParamsMethod struct{ readMethod }

func (m *MarketParamsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	p, err := engine.Params(ctx.Context)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"params":     p,
		"fee_policy": engine.Policy(),
		"operator":   engine.Operator(),
	}, nil
}

// SetFeeMethod handles set_buyer_fee and set_seller_fee.
type SetFeeMethod struct {
	writeMethod
	Set func(engine feeSetter, ctx context.Context, caller types.Address, bps types.Bps) error
}

type feeSetter interface {
	SetBuyerFee(ctx context.Context, caller types.Address, bps types.Bps) error
	SetSellerFee(ctx context.Context, caller types.Address, bps types.Bps) error
}

// NewSetBuyerFeeMethod returns the set_buyer_fee handler.
func NewSetBuyerFeeMethod() *SetFeeMethod {
	return &SetFeeMethod{Set: func(e feeSetter, ctx context.Context, caller types.Address, bps types.Bps) error {
		return e.SetBuyerFee(ctx, caller, bps)
	}}
}

// NewSetSellerFeeMethod returns the set_seller_fee handler.
func NewSetSellerFeeMethod() *SetFeeMethod {
	return &SetFeeMethod{Set: func(e feeSetter, ctx context.Context, caller types.Address, bps types.Bps) error {
		return e.SetSellerFee(ctx, caller, bps)
	}}
}

func (m *SetFeeMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		FeeBps *uint32 `json:"fee_bps"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	bps, rpcErr := requireBps("fee_bps", request.FeeBps)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := m.Set(engine, ctx.Context, ctx.Account, bps); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return paramsResult(ctx)
}

// SetAddressMethod handles the administrative address setters. Each takes a
// single "address" parameter.
type SetAddressMethod struct {
	writeMethod
	Set func(engine addressSetter, ctx context.Context, caller, addr types.Address) error
}

type addressSetter interface {
	ChangeRoyaltyContractAddress(ctx context.Context, caller, addr types.Address) error
	ChangeNFTContractAddress(ctx context.Context, caller, addr types.Address) error
	ChangeSNCContractAddress(ctx context.Context, caller, addr types.Address) error
	SetHouseAddress(ctx context.Context, caller, addr types.Address) error
	TransferAdmin(ctx context.Context, caller, addr types.Address) error
}

func NewChangeRoyaltyContractMethod() *SetAddressMethod {
	return &SetAddressMethod{Set: func(e addressSetter, ctx context.Context, caller, addr types.Address) error {
		return e.ChangeRoyaltyContractAddress(ctx, caller, addr)
	}}
}

func NewChangeNFTContractMethod() *SetAddressMethod {
	return &SetAddressMethod{Set: func(e addressSetter, ctx context.Context, caller, addr types.Address) error {
		return e.ChangeNFTContractAddress(ctx, caller, addr)
	}}
}

func NewChangeSNCContractMethod() *SetAddressMethod {
	return &SetAddressMethod{Set: func(e addressSetter, ctx context.Context, caller, addr types.Address) error {
		return e.ChangeSNCContractAddress(ctx, caller, addr)
	}}
}

func NewSetHouseAddressMethod() *SetAddressMethod {
	return &SetAddressMethod{Set: func(e addressSetter, ctx context.Context, caller, addr types.Address) error {
		return e.SetHouseAddress(ctx, caller, addr)
	}}
}

func NewTransferAdminMethod() *SetAddressMethod {
	return &SetAddressMethod{Set: func(e addressSetter, ctx context.Context, caller, addr types.Address) error {
		return e.TransferAdmin(ctx, caller, addr)
	}}
}

func (m *SetAddressMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Address string `json:"address"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := requireAddress("address", request.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := m.Set(engine, ctx.Context, ctx.Account, addr); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return paramsResult(ctx)
}

func paramsResult(ctx *rpc_types.RpcContext) (interface{}, *rpc_types.RpcError) {
	p, err := ctx.Services.Market.Params(ctx.Context)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"params": p}, nil
}
