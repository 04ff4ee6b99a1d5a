package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

type collectionParam struct {
	CollectionID *uint64 `json:"collection_id"`
}

// FeeEntryCreateMethod handles the fee_entry_create RPC method.
type FeeEntryCreateMethod struct{ writeMethod }

func (m *FeeEntryCreateMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		collectionParam
		FeeRecipient  string  `json:"fee_recipient"`
		BuyingFeeBps  *uint32 `json:"buying_fee_bps"`
		SellingFeeBps *uint32 `json:"selling_fee_bps"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	collection, rpcErr := requireCollection(request.CollectionID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient, rpcErr := requireAddress("fee_recipient", request.FeeRecipient)
	if rpcErr != nil {
		return nil, rpcErr
	}
	buying, rpcErr := requireBps("buying_fee_bps", request.BuyingFeeBps)
	if rpcErr != nil {
		return nil, rpcErr
	}
	selling, rpcErr := requireBps("selling_fee_bps", request.SellingFeeBps)
	if rpcErr != nil {
		return nil, rpcErr
	}

	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	entry := fees.Entry{
		Collection:    collection,
		FeeRecipient:  recipient,
		BuyingFeeBps:  buying,
		SellingFeeBps: selling,
	}
	if err := engine.CreateFeeEntry(ctx.Context, ctx.Account, entry); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"entry": entry}, nil
}

// FeeEntryUpdateMethod handles fee_entry_update_buying,
// fee_entry_update_selling and fee_entry_update_recipient.
type FeeEntryUpdateMethod struct {
	writeMethod
	Field string
}

// Fields updated by FeeEntryUpdateMethod.
const (
	FieldBuyingFee    = "buying_fee_bps"
	FieldSellingFee   = "selling_fee_bps"
	FieldFeeRecipient = "fee_recipient"
)

func (m *FeeEntryUpdateMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		collectionParam
		FeeRecipient  string  `json:"fee_recipient"`
		BuyingFeeBps  *uint32 `json:"buying_fee_bps"`
		SellingFeeBps *uint32 `json:"selling_fee_bps"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
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

	var err error
	switch m.Field {
	case FieldBuyingFee:
		bps, rpcErr := requireBps(FieldBuyingFee, request.BuyingFeeBps)
		if rpcErr != nil {
			return nil, rpcErr
		}
		err = engine.UpdateBuyingFee(ctx.Context, ctx.Account, collection, bps)
	case FieldSellingFee:
		bps, rpcErr := requireBps(FieldSellingFee, request.SellingFeeBps)
		if rpcErr != nil {
			return nil, rpcErr
		}
		err = engine.UpdateSellingFee(ctx.Context, ctx.Account, collection, bps)
	case FieldFeeRecipient:
		recipient, rpcErr := requireAddress(FieldFeeRecipient, request.FeeRecipient)
		if rpcErr != nil {
			return nil, rpcErr
		}
		err = engine.UpdateFeeRecipient(ctx.Context, ctx.Account, collection, recipient)
	default:
		return nil, rpc_types.RpcErrorInternal("unknown fee entry field " + m.Field)
	}
	if err != nil {
		return nil, rpc_types.FromError(err)
	}

	entry, err := engine.FeeEntry(ctx.Context, collection)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"entry": entry}, nil
}

// FeeEntryMethod handles the fee_entry RPC method.
type FeeEntryMethod struct{ readMethod }

func (m *FeeEntryMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request collectionParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
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
	entry, err := engine.FeeEntry(ctx.Context, collection)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"entry": entry}, nil
}

// FeeEntriesMethod handles the fee_entries RPC method.
type FeeEntriesMethod struct{ readMethod }

func (m *FeeEntriesMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	entries, err := engine.FeeEntries(ctx.Context)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	if entries == nil {
		entries = []*fees.Entry{}
	}
	owner, err := engine.RegistryOwner(ctx.Context)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"owner":   owner,
		"entries": entries,
	}, nil
}

// RegistryTransferOwnershipMethod handles the registry_transfer_ownership
// RPC method.
type RegistryTransferOwnershipMethod struct{ writeMethod }

func (m *RegistryTransferOwnershipMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		NewOwner string `json:"new_owner"`
	}
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := requireAddress("new_owner", request.NewOwner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := engine.TransferRegistryOwnership(ctx.Context, ctx.Account, owner); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{"owner": owner}, nil
}
