package cmd

import (
	"fmt"
	"strings"

	"key-manager/feature/keys"
	"key-manager/feature/keys/registry"
	"key-manager/feature/keys/slots"

	"github.com/spf13/cobra"
)

// overviewCmd prints the per-tier slot board of the running server.
var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show the key slot board per price tier",
	Run: func(cmd *cobra.Command, args []string) {
		api := newAPIClient()

		var views []registry.SlotView
		if err := api.do("GET", "/slots", nil, &views); err != nil {
			fail(err)
		}
		var sold []registry.SoldVehicle
		if err := api.do("GET", "/sold", nil, &sold); err != nil {
			fail(err)
		}

		occupied := make(map[int]registry.SlotView, len(views))
		for _, v := range views {
			if v.Vehicle != nil {
				occupied[v.Slot] = v
			}
		}

		for _, tier := range slots.Tiers {
			fmt.Printf("\n--- %s (slots %d-%d) ---\n", strings.ToUpper(string(tier.Name)), tier.First, tier.Last)
			count := 0
			for slot := tier.First; slot <= tier.Last; slot++ {
				if v, ok := occupied[slot]; ok {
					fmt.Printf("%4d  %-12s %10.2f\n", slot, v.Vehicle.Plate, v.Vehicle.PurchasePrice)
					count++
				}
			}
			fmt.Printf("%d/%d occupied\n", count, tier.Capacity())
		}

		fmt.Printf("\n--- SOLD (awaiting handover) ---\n")
		for _, s := range sold {
			fmt.Printf("%4s  %-12s sold for %.2f (was slot %d)\n", s.SoldSlot, s.Plate, s.SoldPrice, s.OriginalSlot)
		}
		fmt.Printf("%d/%d occupied\n", len(sold), slots.SoldSlots)
	},
}

// statusCmd prints occupancy counts and the last sync outcome.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show occupancy counts and the last sync outcome",
	Run: func(cmd *cobra.Command, args []string) {
		api := newAPIClient()

		var status keys.SystemStatus
		if err := api.do("GET", "/status", nil, &status); err != nil {
			fail(err)
		}

		fmt.Printf("Occupied slots:   %d/%d\n", status.OccupiedSlots, status.TotalSlots)
		for _, tier := range slots.Tiers {
			fmt.Printf("  %-8s        %d/%d\n", tier.Name, status.OccupiedPerTier[string(tier.Name)], tier.Capacity())
		}
		fmt.Printf("Pending handover: %d (sold slots free: %d)\n", status.PendingHandover, status.FreeSoldSlots)
		fmt.Printf("Movement history: %v\n", status.HistoryEnabled)

		if status.LastSync == nil {
			fmt.Println("Last sync:        never")
			return
		}
		if status.LastSync.Error != "" {
			fmt.Printf("Last sync:        %s FAILED: %s\n", status.LastSync.At.Format("2006-01-02 15:04:05"), status.LastSync.Error)
			return
		}
		summary := status.LastSync.Report.Summary()
		fmt.Printf("Last sync:        %s (total=%d added=%d removed=%d changed=%d failed=%d)\n",
			status.LastSync.At.Format("2006-01-02 15:04:05"),
			summary.Total, summary.Added, summary.Removed, summary.Changed, summary.Failed)
	},
}

func init() {
	RootCmd.AddCommand(overviewCmd)
	RootCmd.AddCommand(statusCmd)
}
