package config

import (
	"github.com/spf13/viper"

	"github.com/LeJamon/goMarketd/internal/grpc"
	"github.com/LeJamon/goMarketd/internal/rpc"
	"github.com/LeJamon/goMarketd/internal/sweeper"
)

// setDefaults sets every key so that environment overrides resolve.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.bind", "127.0.0.1")
	v.SetDefault("server.port", 5005)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// RPC defaults
	rpcDefaults := rpc.DefaultConfig()
	v.SetDefault("rpc.require_signatures", rpcDefaults.RequireSignatures)
	v.SetDefault("rpc.rate_limit", rpcDefaults.RateLimit)
	v.SetDefault("rpc.burst", rpcDefaults.Burst)
	v.SetDefault("rpc.timeout", rpcDefaults.Timeout)
	v.SetDefault("rpc.max_body_bytes", rpcDefaults.MaxBodyBytes)
	v.SetDefault("rpc.ws_ping_interval", rpcDefaults.WSPingInterval)
	v.SetDefault("rpc.ws_buffer", rpcDefaults.WSBuffer)

	// gRPC health service, disabled unless an address is set
	grpcDefaults := grpc.DefaultServerConfig()
	v.SetDefault("grpc.address", "")
	v.SetDefault("grpc.max_recv_msg_size", grpcDefaults.MaxRecvMsgSize)
	v.SetDefault("grpc.max_send_msg_size", grpcDefaults.MaxSendMsgSize)
	v.SetDefault("grpc.check_interval", grpcDefaults.CheckInterval)

	// Database defaults
	v.SetDefault("database.type", "pebble")
	v.SetDefault("database.path", "~/.marketd/db")
	v.SetDefault("database.compression", "lz4")
	v.SetDefault("database.cache_size", 4096)

	// Journal defaults
	v.SetDefault("journal.driver", "none")
	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.max_open_conns", 1)
	v.SetDefault("journal.max_idle_conns", 1)
	v.SetDefault("journal.conn_max_lifetime", "1h")
	v.SetDefault("journal.default_timeout", "5s")

	// Market defaults
	v.SetDefault("market.fee_policy", "stacked")
	v.SetDefault("market.allow_expired_accept", false)
	v.SetDefault("market.operator", "")

	// Sweeper, disabled unless a schedule is set
	v.SetDefault("sweeper.schedule", "")
	v.SetDefault("sweeper.batch_size", sweeper.DefaultBatchSize)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("genesis_file", "")
}
