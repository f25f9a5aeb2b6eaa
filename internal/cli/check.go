package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/agentlink/internal/config"
)

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the config file and report which paths would start",
	RunE:  checkConfig,
}

func checkConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Printf("%-14s %v\n", "enabled", cfg.IsEnabled())
	fmt.Printf("%-14s %s\n", "mode", cfg.Mode)
	fmt.Printf("%-14s %s\n", "cursor file", cfg.CursorFile)
	fmt.Printf("%-14s %s\n", "agent command", cfg.Agent.Command)

	wantPush := cfg.Mode == config.ModePush || cfg.Mode == config.ModeBoth
	wantPull := cfg.Mode == config.ModePull || cfg.Mode == config.ModeBoth

	switch {
	case !wantPush:
		fmt.Println("push: not selected by mode")
	case cfg.PushConfigured():
		fmt.Printf("push: would start on %s:%d%s\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.Path)
	default:
		fmt.Println("push: DISABLED (server.push_token is not set)")
	}

	switch {
	case !wantPull:
		fmt.Println("pull: not selected by mode")
	case cfg.PullConfigured():
		fmt.Printf("pull: would stream from %s\n", cfg.Remote.BaseURL)
	default:
		fmt.Println("pull: DISABLED (remote.base_url and remote.agent_token are required)")
	}

	return nil
}
