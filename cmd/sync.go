package cmd

import (
	"fmt"

	"key-manager/feature/keys/reconcile"

	"github.com/spf13/cobra"
)

// syncCmd triggers a reconciliation run on the running server.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile key slots against the Autoflex inventory",
	Long: `Fetches the current vehicle inventory from Autoflex and reconciles the
key slots: new vehicles get a slot, departed vehicles release theirs, and
price changes that cross a tier boundary move the key.`,
	Run: func(cmd *cobra.Command, args []string) {
		var result struct {
			Summary reconcile.Summary `json:"summary"`
			Report  reconcile.Report  `json:"report"`
		}
		api := newAPIClient()
		if err := api.do("POST", "/sync", nil, &result); err != nil {
			fail(err)
		}

		fmt.Println("--- Sync Report ---")
		fmt.Printf("Inventory size: %d\n", result.Summary.Total)
		fmt.Printf("Added:          %d\n", result.Summary.Added)
		fmt.Printf("Removed:        %d\n", result.Summary.Removed)
		fmt.Printf("Re-tiered:      %d\n", result.Summary.Changed)
		fmt.Printf("Failed:         %d\n", result.Summary.Failed)

		if len(result.Report.Failed) > 0 {
			fmt.Println("\nFailures:")
			for _, f := range result.Report.Failed {
				fmt.Printf("- %s (%s): %s\n", f.Plate, f.Action, f.Reason)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
}
