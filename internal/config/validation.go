package config

import (
	"fmt"
	"os"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := config.RPC.Validate(); err != nil {
		return fmt.Errorf("rpc config validation failed: %w", err)
	}
	if config.GRPC.Enabled() {
		if err := config.GRPC.Validate(); err != nil {
			return fmt.Errorf("grpc config validation failed: %w", err)
		}
	}
	if err := config.Database.Validate(); err != nil {
		return fmt.Errorf("database validation failed: %w", err)
	}
	if err := config.Journal.Validate(); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}
	if err := config.Market.Validate(); err != nil {
		return fmt.Errorf("market validation failed: %w", err)
	}
	if err := config.Sweeper.Validate(); err != nil {
		return fmt.Errorf("sweeper validation failed: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}

	if err := validateCrossReferences(config); err != nil {
		return fmt.Errorf("cross-validation failed: %w", err)
	}
	return nil
}

// validateCrossReferences checks settings that span sections
func validateCrossReferences(config *Config) error {
	if config.GenesisFile != "" {
		if _, err := os.Stat(config.GenesisFile); err != nil {
			return fmt.Errorf("genesis_file %s: %w", config.GenesisFile, err)
		}
	}

	if config.GRPC.Enabled() && config.GRPC.Address == config.Server.ListenAddress() {
		return fmt.Errorf("grpc address %s collides with the HTTP listener", config.GRPC.Address)
	}
	return nil
}
