package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// ServerConfig represents the [server] section: the HTTP listener serving
// JSON-RPC, the receipt stream, /health and /metrics.
type ServerConfig struct {
	Bind            string        `toml:"bind" mapstructure:"bind" yaml:"bind"`
	Port            int           `toml:"port" mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `toml:"read_timeout" mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ListenAddress returns bind:port.
func (s *ServerConfig) ListenAddress() string {
	return net.JoinHostPort(s.Bind, strconv.Itoa(s.Port))
}

// Validate performs validation on the server configuration
func (s *ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be 1-65535)", s.Port)
	}
	if s.Bind != "" && net.ParseIP(s.Bind) == nil && s.Bind != "localhost" {
		return fmt.Errorf("invalid bind address: %s", s.Bind)
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	return nil
}
