package cli

import (
	"encoding/hex"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goMarketd/internal/crypto"
)

var keygenSeed string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing key for authenticated RPC calls",
	Long: `Print a seed, its secp256k1 public key and the account it controls.
Pass the seed to "marketd rpc --seed" to sign calls as that account.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed := keygenSeed
		if seed == "" {
			var err error
			if seed, err = crypto.GenerateSeed(); err != nil {
				return err
			}
		}
		key := crypto.DeriveKeyPair([]byte(seed))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"seed":       seed,
			"public_key": hex.EncodeToString(key.PublicKey()),
			"account":    key.Address().String(),
		})
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenSeed, "seed", "", "derive from this seed instead of a random one")
	rootCmd.AddCommand(keygenCmd)
}
