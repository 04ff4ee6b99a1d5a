package rpc_handlers

import (
	"encoding/json"
	"time"

	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

// ServerInfoMethod handles the server_info RPC method.
type ServerInfoMethod struct{ readMethod }

func (m *ServerInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	engine, rpcErr := market(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	initialized, err := engine.Initialized(ctx.Context)
	if err != nil {
		return nil, rpc_types.FromError(err)
	}

	state := "ready"
	if !initialized {
		state = "uninitialized"
	}

	info := map[string]interface{}{
		"build_version":  ctx.Services.Version,
		"server_state":   state,
		"operator":       engine.Operator(),
		"fee_policy":     engine.Policy(),
		"journal":        ctx.Services.Journal != nil,
		"time":           time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": 0,
	}
	if !ctx.Services.StartedAt.IsZero() {
		info["uptime_seconds"] = int64(time.Since(ctx.Services.StartedAt).Seconds())
	}
	return map[string]interface{}{"info": info}, nil
}
