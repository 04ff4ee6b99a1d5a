package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/LeJamon/goMarketd/internal/storage/journal"
)

// EnvPrefix prefixes every environment override, e.g. MARKETD_SERVER_PORT.
const EnvPrefix = "MARKETD"

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (marketd.toml)
// 3. Environment variables (MARKETD_ prefix), optionally seeded from a
// dotenv file
func LoadConfig(paths ConfigPaths) (*Config, error) {
	if err := loadDotEnv(paths.Env); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if err := loadMainConfig(v, paths.Main); err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := expandPaths(&config); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}
	config.configPath = paths.Main

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadMainConfig loads the main configuration file
func loadMainConfig(v *viper.Viper, configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path cannot be empty")
	}

	v.SetConfigFile(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	return nil
}

// loadDotEnv exports the variables of path without overriding ones already
// set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// expandPaths resolves a leading ~ in file system settings.
func expandPaths(config *Config) error {
	var err error
	if config.Database.Path, err = homedir.Expand(config.Database.Path); err != nil {
		return err
	}
	if config.GenesisFile, err = homedir.Expand(config.GenesisFile); err != nil {
		return err
	}
	if config.Journal.Driver == journal.DriverSQLite || config.Journal.Driver == "sqlite3" {
		if config.Journal.DSN, err = homedir.Expand(config.Journal.DSN); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfigFromDir loads configuration from a directory containing
// marketd.toml and an optional .env
func LoadConfigFromDir(configDir string) (*Config, error) {
	return LoadConfig(ConfigPathsFromDir(configDir))
}

// LoadDefaultConfig loads configuration from default locations
func LoadDefaultConfig() (*Config, error) {
	return LoadConfig(DefaultConfigPaths())
}

// ReloadConfig reloads configuration from the same paths
func ReloadConfig(existingConfig *Config) (*Config, error) {
	return LoadConfig(ConfigPaths{Main: existingConfig.GetConfigPath()})
}

// SaveExampleConfig saves an example configuration file
func SaveExampleConfig(configPath string) error {
	v := viper.New()
	for key, value := range generateExampleConfig() {
		v.Set(key, value)
	}

	v.SetConfigFile(configPath)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}

	return nil
}

// generateExampleConfig generates example configuration values
func generateExampleConfig() map[string]interface{} {
	return map[string]interface{}{
		"server.bind": "127.0.0.1",
		"server.port": 5005,

		"rpc.require_signatures": true,
		"rpc.rate_limit":         200,
		"rpc.burst":              400,

		"grpc.address": "127.0.0.1:50051",

		"database.type":        "pebble",
		"database.path":        "~/.marketd/db",
		"database.compression": "lz4",

		"journal.driver": "sqlite",
		"journal.dsn":    "~/.marketd/journal.db",

		"market.fee_policy": "stacked",
		"market.operator":   "0x0000000000000000000000000000000000000001",

		"sweeper.schedule": "*/5 * * * *",

		"log.level":  "info",
		"log.format": "json",

		"genesis_file": "genesis.json",
	}
}
