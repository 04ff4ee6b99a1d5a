package config

import (
	"fmt"

	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/storage"
)

// DatabaseConfig represents the [database] section
// Configures the key-value store holding the market state
type DatabaseConfig struct {
	Type        string `toml:"type" mapstructure:"type" yaml:"type"`
	Path        string `toml:"path" mapstructure:"path" yaml:"path"`
	Compression string `toml:"compression" mapstructure:"compression" yaml:"compression"`
	CacheSize   int    `toml:"cache_size" mapstructure:"cache_size" yaml:"cache_size"`
}

var validDatabaseTypes = []string{
	storage.BackendPebble,
	storage.BackendBBolt,
	storage.BackendLevelDB,
	storage.BackendMemory,
}

// Validate performs validation on the database configuration
func (d *DatabaseConfig) Validate() error {
	if !containsString(validDatabaseTypes, d.Type) {
		return fmt.Errorf("invalid database type: %q (valid options: %v)", d.Type, validDatabaseTypes)
	}
	if d.Type != storage.BackendMemory && d.Path == "" {
		return fmt.Errorf("database path is required for %s", d.Type)
	}

	switch d.Compression {
	case "", state.CompressionNone, state.CompressionLZ4:
	default:
		return fmt.Errorf("invalid compression: %q (valid options: none, lz4)", d.Compression)
	}

	if d.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", d.CacheSize)
	}
	return nil
}

// StoreOptions returns the state store options of this database.
func (d *DatabaseConfig) StoreOptions() state.Options {
	return state.Options{
		Compression: d.Compression,
		CacheSize:   d.CacheSize,
	}
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
