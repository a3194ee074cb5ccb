package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"key-manager/feature/keys/registry"

	"github.com/spf13/cobra"
)

// vehicleCmd groups the vehicle management subcommands.
var vehicleCmd = &cobra.Command{
	Use:   "vehicle",
	Short: "Manage vehicles and their key slots",
}

var vehicleAddCmd = &cobra.Command{
	Use:   "add [plate] [purchase-price]",
	Short: "Register a vehicle and assign it a key slot",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		price := parsePrice(args[1])

		var assignment registry.Assignment
		api := newAPIClient()
		err := api.do("POST", "/vehicles", map[string]any{
			"license_plate":  args[0],
			"purchase_price": price,
		}, &assignment)
		if err != nil {
			fail(err)
		}

		fmt.Printf("Assigned %s to slot %d\n", assignment.Plate, assignment.Slot)
	},
}

var vehicleFindCmd = &cobra.Command{
	Use:   "find [plate]",
	Short: "Look up a vehicle by license plate",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var vehicle registry.Vehicle
		api := newAPIClient()
		if err := api.do("GET", "/vehicles/"+url.PathEscape(args[0]), nil, &vehicle); err != nil {
			fail(err)
		}

		fmt.Printf("Plate:          %s\n", vehicle.Plate)
		fmt.Printf("Status:         %s\n", vehicle.Status)
		fmt.Printf("Purchase price: %.2f\n", vehicle.PurchasePrice)
		if vehicle.Status == registry.StatusSold {
			fmt.Printf("Sold slot:      %s (was slot %d)\n", vehicle.SoldSlot, vehicle.Slot)
			fmt.Printf("Sold price:     %.2f\n", vehicle.SoldPrice)
		} else {
			fmt.Printf("Slot:           %d\n", vehicle.Slot)
		}
	},
}

var vehicleSellCmd = &cobra.Command{
	Use:   "sell [plate] [sold-price]",
	Short: "Move a vehicle's key to the sold pool",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		price := parsePrice(args[1])

		var sold registry.SoldVehicle
		api := newAPIClient()
		err := api.do("POST", "/vehicles/"+url.PathEscape(args[0])+"/sell", map[string]any{
			"sold_price": price,
		}, &sold)
		if err != nil {
			fail(err)
		}

		fmt.Printf("Moved %s to sold slot %s (slot %d released)\n", sold.Plate, sold.SoldSlot, sold.OriginalSlot)
	},
}

var vehicleHandoverCmd = &cobra.Command{
	Use:   "handover [plate]",
	Short: "Complete the key handover of a sold vehicle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		api := newAPIClient()
		if err := api.do("POST", "/vehicles/"+url.PathEscape(args[0])+"/handover", nil, nil); err != nil {
			fail(err)
		}
		fmt.Printf("Handover of %s completed, sold slot released\n", args[0])
	},
}

var vehicleRemoveCmd = &cobra.Command{
	Use:   "remove [plate]",
	Short: "Remove a vehicle regardless of its state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		api := newAPIClient()
		if err := api.do("DELETE", "/vehicles/"+url.PathEscape(args[0]), nil, nil); err != nil {
			fail(err)
		}
		fmt.Printf("Removed %s\n", args[0])
	},
}

func parsePrice(raw string) float64 {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Printf("Invalid price %q\n", raw)
		os.Exit(1)
	}
	return price
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}

func init() {
	vehicleCmd.AddCommand(vehicleAddCmd)
	vehicleCmd.AddCommand(vehicleFindCmd)
	vehicleCmd.AddCommand(vehicleSellCmd)
	vehicleCmd.AddCommand(vehicleHandoverCmd)
	vehicleCmd.AddCommand(vehicleRemoveCmd)
	RootCmd.AddCommand(vehicleCmd)
}
