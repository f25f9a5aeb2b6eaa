package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/agentlink/internal/delivery"
)

var deliveriesLimit int

func init() {
	listDeliveriesCmd.Flags().IntVar(&deliveriesLimit, "limit", 20, "maximum number of deliveries to display")
	rootCmd.AddCommand(listDeliveriesCmd)
}

var listDeliveriesCmd = &cobra.Command{
	Use:   "list-deliveries",
	Short: "Print recent agent invocations",
	RunE:  listDeliveries,
}

func listDeliveries(cmd *cobra.Command, args []string) error {
	// Deliveries are in-memory only, so a fresh store is empty. A running
	// bridge serves the live list at /admin/deliveries; this command
	// demonstrates the store query.
	store, err := delivery.NewMemoryStore(1000)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	recs, err := store.List(deliveriesLimit, 0)
	if err != nil {
		return fmt.Errorf("listing deliveries: %w", err)
	}

	if len(recs) == 0 {
		fmt.Println("No deliveries found. (Query /admin/deliveries on a running bridge.)")
		return nil
	}

	fmt.Printf("%-36s  %-5s  %-12s  %-8s  %s\n", "ID", "SRC", "SESSION", "STATUS", "TIMESTAMP")
	for _, r := range recs {
		fmt.Printf("%-36s  %-5s  %-12s  %-8s  %s\n", r.ID, r.Source, r.SessionID, r.Status, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return nil
}
