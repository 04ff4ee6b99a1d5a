package cli

import (
	"fmt"
	"runtime"
	runtimedebug "runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for marketd including build details and Go version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marketd version %s\n", rootCmd.Version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)

		if info, ok := runtimedebug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					fmt.Printf("Git commit hash: %s\n", s.Value)
				case "vcs.time":
					fmt.Printf("Build timestamp: %s\n", s.Value)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
