package config

import (
	"path/filepath"

	"github.com/LeJamon/goMarketd/internal/grpc"
	"github.com/LeJamon/goMarketd/internal/rpc"
	"github.com/LeJamon/goMarketd/internal/storage/journal"
	"github.com/LeJamon/goMarketd/internal/sweeper"
)

// Config represents the complete marketd configuration
type Config struct {
	Server   ServerConfig      `toml:"server" mapstructure:"server" yaml:"server"`
	RPC      rpc.Config        `toml:"rpc" mapstructure:"rpc" yaml:"rpc"`
	GRPC     grpc.ServerConfig `toml:"grpc" mapstructure:"grpc" yaml:"grpc"`
	Database DatabaseConfig    `toml:"database" mapstructure:"database" yaml:"database"`
	Journal  journal.Config    `toml:"journal" mapstructure:"journal" yaml:"journal"`
	Market   MarketConfig      `toml:"market" mapstructure:"market" yaml:"market"`
	Sweeper  sweeper.Config    `toml:"sweeper" mapstructure:"sweeper" yaml:"sweeper"`
	Log      LogConfig         `toml:"log" mapstructure:"log" yaml:"log"`

	// GenesisFile seeds an empty state database. Empty leaves the market
	// uninitialized until one is supplied.
	GenesisFile string `toml:"genesis_file" mapstructure:"genesis_file" yaml:"genesis_file"`

	configPath string
}

// ConfigPaths holds the paths to configuration files
type ConfigPaths struct {
	Main string // Path to main config file (marketd.toml)
	Env  string // Optional dotenv file loaded before the environment is read
}

// DefaultConfigPaths returns the default configuration file paths
func DefaultConfigPaths() ConfigPaths {
	return ConfigPaths{
		Main: "marketd.toml",
		Env:  ".env",
	}
}

// ConfigPathsFromDir returns configuration paths for a specific directory
func ConfigPathsFromDir(configDir string) ConfigPaths {
	return ConfigPaths{
		Main: filepath.Join(configDir, "marketd.toml"),
		Env:  filepath.Join(configDir, ".env"),
	}
}

// GetConfigPath returns the path to the main configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
