package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goMarketd/internal/core/fees"
	"github.com/LeJamon/goMarketd/internal/storage/journal"
)

const operator = "0x00000000000000000000000000000000000000aa"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	mainConfigPath := writeFile(t, tempDir, "marketd.toml", `
[server]
bind = "0.0.0.0"
port = 8080

[rpc]
require_signatures = true
timeout = "10s"

[database]
type = "memory"

[journal]
driver = "sqlite3"
dsn = "`+filepath.Join(tempDir, "journal.db")+`"

[market]
fee_policy = "override"
operator = "`+operator+`"

[sweeper]
schedule = "@every 1m"
`)

	config, err := LoadConfig(ConfigPaths{Main: mainConfigPath})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", config.Server.ListenAddress())
	assert.True(t, config.RPC.RequireSignatures)
	assert.Equal(t, 10*time.Second, config.RPC.Timeout)
	assert.Equal(t, 400, config.RPC.Burst)
	assert.Equal(t, "memory", config.Database.Type)
	assert.Equal(t, journal.DriverSQLite, config.Journal.Driver)
	assert.Equal(t, time.Hour, config.Journal.ConnMaxLifetime)
	assert.Equal(t, "@every 1m", config.Sweeper.Schedule)
	assert.Equal(t, "info", config.Log.Level)
	assert.False(t, config.GRPC.Enabled())
	assert.Equal(t, mainConfigPath, config.GetConfigPath())

	policy, err := config.Market.Policy()
	require.NoError(t, err)
	assert.Equal(t, fees.PolicyOverride, policy)

	addr, err := config.Market.OperatorAddress()
	require.NoError(t, err)
	assert.Equal(t, operator, addr.String())
}

func TestEnvironmentOverrides(t *testing.T) {
	tempDir := t.TempDir()
	mainConfigPath := writeFile(t, tempDir, "marketd.toml", `
[database]
type = "memory"
`)
	envPath := writeFile(t, tempDir, ".env", "MARKETD_LOG_LEVEL=debug\nMARKETD_MARKET_OPERATOR="+operator+"\n")
	t.Cleanup(func() {
		os.Unsetenv("MARKETD_LOG_LEVEL")
		os.Unsetenv("MARKETD_MARKET_OPERATOR")
	})
	t.Setenv("MARKETD_SERVER_PORT", "6006")

	config, err := LoadConfig(ConfigPaths{Main: mainConfigPath, Env: envPath})
	require.NoError(t, err)

	assert.Equal(t, 6006, config.Server.Port)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, operator, config.Market.Operator)
}

func TestHomeExpansion(t *testing.T) {
	tempDir := t.TempDir()
	mainConfigPath := writeFile(t, tempDir, "marketd.toml", `
[database]
type = "pebble"
path = "~/marketd-test-db"

[market]
operator = "`+operator+`"
`)

	config, err := LoadConfig(ConfigPaths{Main: mainConfigPath})
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(config.Database.Path, "~"))
	assert.True(t, strings.HasSuffix(config.Database.Path, "marketd-test-db"))
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(ConfigPaths{Main: filepath.Join(t.TempDir(), "missing.toml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	_, err = LoadConfig(ConfigPaths{})
	require.Error(t, err)

	cases := map[string]string{
		"database type": `
[database]
type = "rocksdb"
[market]
operator = "` + operator + `"`,
		"fee policy": `
[database]
type = "memory"
[market]
fee_policy = "split"
operator = "` + operator + `"`,
		"missing operator": `
[database]
type = "memory"`,
		"log level": `
[database]
type = "memory"
[market]
operator = "` + operator + `"
[log]
level = "loud"`,
		"compression": `
[database]
type = "memory"
compression = "zstd"
[market]
operator = "` + operator + `"`,
		"journal dsn": `
[database]
type = "memory"
[journal]
driver = "postgres"
[market]
operator = "` + operator + `"`,
		"sweeper schedule": `
[database]
type = "memory"
[sweeper]
schedule = "whenever"
[market]
operator = "` + operator + `"`,
		"grpc collision": `
[server]
bind = "127.0.0.1"
port = 7000
[grpc]
address = "127.0.0.1:7000"
[database]
type = "memory"
[market]
operator = "` + operator + `"`,
		"genesis file": `
genesis_file = "/nonexistent/genesis.json"
[database]
type = "memory"
[market]
operator = "` + operator + `"`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "marketd.toml", content)
			_, err := LoadConfig(ConfigPaths{Main: path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestSaveExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.toml")
	require.NoError(t, SaveExampleConfig(path))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, 5005, v.GetInt("server.port"))
	assert.Equal(t, "pebble", v.GetString("database.type"))
	assert.True(t, v.GetBool("rpc.require_signatures"))
}

const genesisJSON = `{
  "admin": "0x00000000000000000000000000000000000000a1",
  "house": "0x00000000000000000000000000000000000000a2",
  "buyer_fee_bps": 100,
  "seller_fee_bps": 250,
  "royalty_contract": "0x00000000000000000000000000000000000000b1",
  "nft_contract": "0x00000000000000000000000000000000000000b2",
  "snc_contract": "0x00000000000000000000000000000000000000b3",
  "accounts": [
    {"account": "0x00000000000000000000000000000000000000c1", "balance": "1000000", "allowance": "500000"},
    {"account": "0x00000000000000000000000000000000000000c2", "balance": "42"}
  ],
  "assets": [
    {"asset_id": 1, "owner": "0x00000000000000000000000000000000000000c2", "collection_id": 7}
  ],
  "fee_entries": [
    {"collection_id": 7, "fee_recipient": "0x00000000000000000000000000000000000000d1", "buying_fee_bps": 200, "selling_fee_bps": 0}
  ]
}`

func TestLoadGenesis(t *testing.T) {
	path := writeFile(t, t.TempDir(), "genesis.json", genesisJSON)

	g, err := LoadGenesis(path)
	require.NoError(t, err)

	assert.Equal(t, "0x00000000000000000000000000000000000000a1", g.Params.Admin.String())
	assert.Equal(t, g.Params.Admin, g.RegistryOwner)
	assert.EqualValues(t, 100, g.Params.BuyerFeeBps)
	assert.EqualValues(t, 250, g.Params.SellerFeeBps)
	assert.Equal(t, "0x00000000000000000000000000000000000000b3", g.Params.PaymentToken.String())

	require.Len(t, g.Balances, 2)
	assert.Equal(t, "1000000", g.Balances[0].Amount.String())
	require.Len(t, g.Approvals, 1)
	assert.Equal(t, "500000", g.Approvals[0].Amount.String())

	require.Len(t, g.Assets, 1)
	assert.EqualValues(t, 7, g.Assets[0].Collection)
	require.Len(t, g.FeeEntries, 1)
	assert.EqualValues(t, 200, g.FeeEntries[0].BuyingFeeBps)
}

func TestLoadGenesisErrors(t *testing.T) {
	cases := map[string]string{
		"missing admin":  strings.Replace(genesisJSON, `"admin": "0x00000000000000000000000000000000000000a1",`, "", 1),
		"zero house":     strings.Replace(genesisJSON, "000000a2", "00000000", 1),
		"fee too high":   strings.Replace(genesisJSON, `"buyer_fee_bps": 100`, `"buyer_fee_bps": 10001`, 1),
		"bad balance":    strings.Replace(genesisJSON, `"balance": "42"`, `"balance": "-42"`, 1),
		"unknown field":  strings.Replace(genesisJSON, `"house"`, `"hose"`, 1),
		"bad entry rate": strings.Replace(genesisJSON, `"buying_fee_bps": 200`, `"buying_fee_bps": 20000`, 1),
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "genesis.json", content)
			_, err := LoadGenesis(path)
			require.Error(t, err)
		})
	}

	_, err := LoadGenesis(filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
}
