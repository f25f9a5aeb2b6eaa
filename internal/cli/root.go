package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "agentlink",
	Short: "openclaw agentlink bridge",
	Long:  "agentlink bridges a remote message relay and the local openclaw agent: a push webhook for inbound messages and a pull stream that follows the relay with durable checkpointing.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "agentlink.yaml", "path to configuration file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
