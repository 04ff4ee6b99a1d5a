package rpc

import (
	"errors"
	"time"
)

var (
	ErrInvalidRateLimit = errors.New("rpc rate_limit must not be negative")
	ErrInvalidBurst     = errors.New("rpc burst must be positive when rate_limit is set")
	ErrInvalidBody      = errors.New("rpc max_body_bytes must be positive")
)

// Config controls the JSON-RPC and WebSocket endpoints.
type Config struct {
	// RequireSignatures makes every mutating call prove control of its
	// account with public_key, signature and sequence. Without it the
	// account field alone names the caller, which is only safe on a
	// trusted local listener.
	RequireSignatures bool `mapstructure:"require_signatures" yaml:"require_signatures"`

	// RateLimit is the global request rate per second. Zero disables it.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`

	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`

	WSPingInterval time.Duration `mapstructure:"ws_ping_interval" yaml:"ws_ping_interval"`
	WSBuffer       int           `mapstructure:"ws_buffer" yaml:"ws_buffer"`
}

func DefaultConfig() Config {
	return Config{
		RequireSignatures: true,
		RateLimit:         200,
		Burst:             400,
		Timeout:           30 * time.Second,
		MaxBodyBytes:      1 << 20,
		WSPingInterval:    54 * time.Second,
		WSBuffer:          256,
	}
}

func (c *Config) Validate() error {
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.RateLimit > 0 && c.Burst <= 0 {
		return ErrInvalidBurst
	}
	if c.MaxBodyBytes <= 0 {
		return ErrInvalidBody
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.WSPingInterval <= 0 {
		c.WSPingInterval = 54 * time.Second
	}
	if c.WSBuffer <= 0 {
		c.WSBuffer = 256
	}
	return nil
}
