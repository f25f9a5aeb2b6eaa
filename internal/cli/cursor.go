package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/agentlink/internal/config"
	"github.com/openclaw/agentlink/internal/cursor"
)

func init() {
	rootCmd.AddCommand(showCursorCmd)
}

var showCursorCmd = &cobra.Command{
	Use:   "show-cursor",
	Short: "Print the persisted stream checkpoint",
	RunE:  showCursor,
}

func showCursor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store := &cursor.Store{Path: cfg.CursorFile}
	cur, ok := store.Load()
	if !ok {
		fmt.Printf("No checkpoint at %s; the stream will start from the beginning.\n", cfg.CursorFile)
		return nil
	}

	fmt.Printf("%-10s %s\n", "FILE", cfg.CursorFile)
	fmt.Printf("%-10s %s\n", "CURSOR", cur)
	return nil
}
