package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goMarketd/internal/config"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "marketd",
	Short: "marketd - marketplace offer and escrow settlement daemon",
	Long: `marketd runs a marketplace settlement engine: buyers escrow payment
tokens against an asset, the seller accepts one offer, and every other
bidder is refunded. State lives in an embedded key-value store and is
served over JSON-RPC, a WebSocket receipt stream and a gRPC health service.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (default ./marketd.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}

// loadConfig reads --conf, or marketd.toml and .env in the working
// directory.
func loadConfig() (*config.Config, error) {
	paths := config.DefaultConfigPaths()
	if configFile != "" {
		paths.Main = configFile
	}
	return config.LoadConfig(paths)
}
