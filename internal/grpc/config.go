// Package grpc serves the standard gRPC health service for the daemon.
package grpc

import (
	"fmt"
	"net"
	"time"
)

// ServerConfig holds configuration for the gRPC server.
type ServerConfig struct {
	// Address is the address to listen on (e.g., "127.0.0.1:50051").
	// Empty disables the server.
	Address string `mapstructure:"address" yaml:"address"`

	// MaxRecvMsgSize is the maximum message size in bytes the server can receive.
	MaxRecvMsgSize int `mapstructure:"max_recv_msg_size" yaml:"max_recv_msg_size"`

	// MaxSendMsgSize is the maximum message size in bytes the server can send.
	MaxSendMsgSize int `mapstructure:"max_send_msg_size" yaml:"max_send_msg_size"`

	// CheckInterval is how often the serving status is refreshed.
	CheckInterval time.Duration `mapstructure:"check_interval" yaml:"check_interval"`
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:        "127.0.0.1:50051",
		MaxRecvMsgSize: 4 * 1024 * 1024, // 4MB
		MaxSendMsgSize: 4 * 1024 * 1024, // 4MB
		CheckInterval:  10 * time.Second,
	}
}

// Enabled reports whether an address is configured.
func (c *ServerConfig) Enabled() bool {
	return c.Address != ""
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}

	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	if c.MaxRecvMsgSize <= 0 {
		return fmt.Errorf("max_recv_msg_size must be positive")
	}
	if c.MaxSendMsgSize <= 0 {
		return fmt.Errorf("max_send_msg_size must be positive")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive")
	}
	return nil
}
