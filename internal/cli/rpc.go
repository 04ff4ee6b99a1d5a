package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LeJamon/goMarketd/internal/crypto"
	"github.com/LeJamon/goMarketd/internal/rpc"
	"github.com/LeJamon/goMarketd/internal/rpc/rpc_types"
)

var (
	rpcURL     string
	rpcSeed    string
	rpcTimeout time.Duration
	rpcList    bool
)

// rpcCmd represents the rpc command
var rpcCmd = &cobra.Command{
	Use:   "rpc <method> [params-json]",
	Short: "Call a JSON-RPC method",
	Long: `Call a marketd JSON-RPC method.

With --url the request is POSTed to a running server. Without it the method
runs in-process against the configured database, using the same handlers
the server uses.

With --seed the params are signed: account, public_key and signature are
filled in from the key derived from the seed, and sequence is fetched with
account_sequence unless the params already carry one.

Examples:
  marketd rpc ping
  marketd rpc offer_info '{"asset_id": 1, "offer_index": 0}'
  marketd rpc --url http://127.0.0.1:5005 --seed alice make_offer '{"asset_id": 1, "seller": "0x...", "amount": "1000", "fee_amount": "25"}'`,
	Args: func(cmd *cobra.Command, args []string) error {
		if rpcList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.RangeArgs(1, 2)(cmd, args)
	},
	RunE: runRPC,
}

func init() {
	rootCmd.AddCommand(rpcCmd)

	rpcCmd.Flags().StringVar(&rpcURL, "url", "", "server URL; empty runs the method in-process")
	rpcCmd.Flags().StringVar(&rpcSeed, "seed", "", "sign the call with the key derived from this seed")
	rpcCmd.Flags().DurationVar(&rpcTimeout, "timeout", 30*time.Second, "request timeout")
	rpcCmd.Flags().BoolVar(&rpcList, "list", false, "list the available methods")
}

func runRPC(cmd *cobra.Command, args []string) error {
	if rpcList {
		methods := rpc.NewServer(rpc.DefaultConfig(), &rpc_types.ServiceContainer{}, nil, nil).Methods()
		for _, m := range methods {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	}

	method := args[0]
	params := map[string]interface{}{}
	if len(args) == 2 {
		dec := json.NewDecoder(bytes.NewReader([]byte(args[1])))
		dec.UseNumber()
		if err := dec.Decode(&params); err != nil {
			return fmt.Errorf("params must be a JSON object: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
	defer cancel()

	if rpcSeed != "" {
		key := crypto.DeriveKeyPair([]byte(rpcSeed))
		if _, ok := params["sequence"]; !ok {
			next, err := nextSequence(ctx, key.Address().String())
			if err != nil {
				return err
			}
			params["sequence"] = next
		}
		if err := rpc.SignParams(method, params, key.PublicKey(), key); err != nil {
			return fmt.Errorf("failed to sign params: %w", err)
		}
	}

	out, err := call(ctx, method, params)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())

	if status := gjson.GetBytes(out, "result.status").String(); status == "error" {
		return fmt.Errorf("%s: %s", method, gjson.GetBytes(out, "result.error").String())
	}
	return nil
}

func call(ctx context.Context, method string, params map[string]interface{}) ([]byte, error) {
	if rpcURL != "" {
		return callRemote(ctx, rpcURL, method, params)
	}
	return callLocal(ctx, method, params)
}

// nextSequence asks for the sequence a signed call by account must carry.
func nextSequence(ctx context.Context, account string) (uint32, error) {
	out, err := call(ctx, "account_sequence", map[string]interface{}{"account": account})
	if err != nil {
		return 0, err
	}
	result := gjson.GetBytes(out, "result")
	if result.Get("status").String() != "success" {
		return 0, fmt.Errorf("account_sequence: %s", result.Get("error").String())
	}
	return uint32(result.Get("next_sequence").Uint()), nil
}

// callRemote POSTs {"method", "params": [params]} to url.
func callRemote(ctx context.Context, url, method string, params map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(map[string]interface{}{
		"method": method,
		"params": []interface{}{params},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !gjson.ValidBytes(out) {
		return nil, fmt.Errorf("server answered %s: %s", resp.Status, bytes.TrimSpace(out))
	}
	return out, nil
}

// callLocal runs method against the configured database and wraps the
// outcome the way the HTTP server does.
func callLocal(ctx context.Context, method string, params map[string]interface{}) ([]byte, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	defer logger.Sync() //nolint:errcheck
	if !debug && !verbose {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	}

	m, err := openMarket(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	server := rpc.NewServer(cfg.RPC, &rpc_types.ServiceContainer{
		Market:    m.engine,
		Version:   rootCmd.Version,
		StartedAt: time.Now(),
	}, nil, logger.Named("rpc"))

	result, rpcErr := server.Execute(ctx, method, raw)
	if rpcErr != nil {
		logger.Debug("local call failed", zap.String("method", method), zap.String("error", rpcErr.ErrorString))
		return json.Marshal(map[string]interface{}{
			"result": map[string]interface{}{
				"status":        "error",
				"error":         rpcErr.ErrorString,
				"error_code":    rpcErr.Code,
				"error_message": rpcErr.Message,
			},
		})
	}

	fields := map[string]interface{}{}
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		fields = map[string]interface{}{"value": json.RawMessage(encoded)}
	}
	fields["status"] = "success"
	return json.Marshal(map[string]interface{}{"result": fields})
}
