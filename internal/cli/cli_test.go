package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/LeJamon/goMarketd/internal/crypto"
)

const testGenesis = `{
  "admin": "0x00000000000000000000000000000000000000a1",
  "house": "0x00000000000000000000000000000000000000a2",
  "buyer_fee_bps": 100,
  "seller_fee_bps": 250,
  "royalty_contract": "0x00000000000000000000000000000000000000b1",
  "nft_contract": "0x00000000000000000000000000000000000000b2",
  "snc_contract": "0x00000000000000000000000000000000000000b3",
  "accounts": [
    {"account": "0x00000000000000000000000000000000000000c1", "balance": "1000000"}
  ]
}`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	genesis := filepath.Join(dir, "genesis.json")
	require.NoError(t, os.WriteFile(genesis, []byte(testGenesis), 0o644))

	path := filepath.Join(dir, "marketd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
genesis_file = "`+genesis+`"

[database]
type = "memory"

[market]
operator = "0x00000000000000000000000000000000000000ee"

[log]
level = "error"
`), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRPCLocal(t *testing.T) {
	conf := writeTestConfig(t)

	out, err := run(t, "--conf", conf, "rpc", "token_balance", `{"account": "0x00000000000000000000000000000000000000c1"}`)
	require.NoError(t, err)
	assert.Equal(t, "success", gjson.Get(out, "result.status").String())
	assert.Equal(t, "1000000", gjson.Get(out, "result.balance").String())

	out, err = run(t, "--conf", conf, "rpc", "market_params")
	require.NoError(t, err)
	assert.EqualValues(t, 250, gjson.Get(out, "result.params.seller_fee_bps").Int())

	out, err = run(t, "--conf", conf, "rpc", "offer_info", `{"asset_id": 9, "offer_index": 0}`)
	require.Error(t, err)
	assert.Equal(t, "error", gjson.Get(out, "result.status").String())

	_, err = run(t, "--conf", conf, "rpc", "ping", `[1, 2]`)
	require.Error(t, err)
}

func TestRPCLocalSigned(t *testing.T) {
	conf := writeTestConfig(t)
	t.Cleanup(func() { rpcSeed = "" })
	alice := crypto.DeriveKeyPair([]byte("alice")).Address().String()
	approve := `{"spender": "0x00000000000000000000000000000000000000ee", "amount": "5"}`

	out, err := run(t, "--conf", conf, "rpc", "token_approve", `{"account": "`+alice+`", "spender": "0x00000000000000000000000000000000000000ee", "amount": "5"}`)
	require.Error(t, err)
	assert.Equal(t, "invalidParams", gjson.Get(out, "result.error").String())

	out, err = run(t, "--conf", conf, "rpc", "--seed", "alice", "token_approve", approve)
	require.NoError(t, err)
	assert.Equal(t, alice, gjson.Get(out, "result.owner").String())
	assert.Equal(t, "5", gjson.Get(out, "result.allowance").String())

	out, err = run(t, "--conf", conf, "rpc", "--seed", "alice", "token_approve", `{"spender": "0x00000000000000000000000000000000000000ee", "amount": "5", "sequence": 4}`)
	require.Error(t, err)
	assert.Equal(t, "badSequence", gjson.Get(out, "result.error").String())
}

func TestConfigCommands(t *testing.T) {
	conf := writeTestConfig(t)

	out, err := run(t, "--conf", conf, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	out, err = run(t, "--conf", conf, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "type: memory")

	path := filepath.Join(t.TempDir(), "example.toml")
	_, err = run(t, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = run(t, "config", "init", path)
	require.Error(t, err)
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "keygen", "--seed", "alice")
	require.NoError(t, err)
	first := gjson.Get(out, "account").String()
	assert.Len(t, first, 42)
	assert.Equal(t, "alice", gjson.Get(out, "seed").String())

	out, err = run(t, "keygen", "--seed", "alice")
	require.NoError(t, err)
	assert.Equal(t, first, gjson.Get(out, "account").String())

	out, err = run(t, "keygen", "--seed", "")
	require.NoError(t, err)
	assert.Len(t, gjson.Get(out, "seed").String(), 32)
	assert.NotEqual(t, first, gjson.Get(out, "account").String())
}
