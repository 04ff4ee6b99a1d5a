package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

type tokenMoveParams struct {
	To      string `json:"to"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

// TokenMintMethod handles the token_mint RPC method. Administrator only.
type TokenMintMethod struct{ writeMethod }

func (m *TokenMintMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request tokenMoveParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := requireAddress("to", request.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := requireAmount("amount", request.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := engine.TokenMint(ctx.Context, ctx.Account, to, amount); err != nil {
		return nil, rpc_types.FromError(err)
	}
	balance, err := engine.TokenBalance(ctx.Context, to)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"account": to,
		"balance": balance,
	}, nil
}

// TokenApproveMethod handles the token_approve RPC method.
type TokenApproveMethod struct{ writeMethod }

func (m *TokenApproveMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request tokenMoveParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := requireAddress("spender", request.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := requireAmount("amount", request.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := engine.TokenApprove(ctx.Context, ctx.Account, spender, amount); err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"owner":     ctx.Account,
		"spender":   spender,
		"allowance": amount,
	}, nil
}

// TokenTransferMethod handles the token_transfer RPC method.
type TokenTransferMethod struct{ writeMethod }

func (m *TokenTransferMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request tokenMoveParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := requireAddress("to", request.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := requireAmount("amount", request.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := engine.TokenTransfer(ctx.Context, ctx.Account, to, amount); err != nil {
		return nil, rpc_types.FromError(err)
	}
	balance, err := engine.TokenBalance(ctx.Context, ctx.Account)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"account": ctx.Account,
		"balance": balance,
	}, nil
}

// TokenBalanceMethod handles the token_balance RPC method.
type TokenBalanceMethod struct{ readMethod }

func (m *TokenBalanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AccountParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := requireAddress("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := engine.TokenBalance(ctx.Context, account)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"account": account,
		"balance": balance,
	}, nil
}

// AccountSequenceMethod handles the account_sequence RPC method. Signed
// calls carry next_sequence.
type AccountSequenceMethod struct{ readMethod }

func (m *AccountSequenceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request rpc_types.AccountParam
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := requireAddress("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	seq, err := engine.AccountSequence(ctx.Context, account)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"account":       account,
		"sequence":      seq,
		"next_sequence": seq + 1,
	}, nil
}

// TokenAllowanceMethod handles the token_allowance RPC method.
type TokenAllowanceMethod struct{ readMethod }

func (m *TokenAllowanceMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Owner   string `json:"owner"`
		Spender string `json:"spender"`
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
	spender := engine.Operator()
	if request.Spender != "" {
		if spender, rpcErr = requireAddress("spender", request.Spender); rpcErr != nil {
			return nil, rpcErr
		}
	}
	allowance, err := engine.TokenAllowance(ctx.Context, owner, spender)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}
	return map[string]interface{}{
		"owner":     owner,
		"spender":   spender,
		"allowance": allowance,
	}, nil
}
