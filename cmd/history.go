package cmd

import (
	"fmt"

	"key-manager/feature/keys/history"

	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd prints recent key movements from the movement log.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent key movements",
	Run: func(cmd *cobra.Command, args []string) {
		api := newAPIClient()

		var events []history.KeyEvent
		path := fmt.Sprintf("/history?limit=%d", historyLimit)
		if err := api.do("GET", path, nil, &events); err != nil {
			fail(err)
		}

		if len(events) == 0 {
			fmt.Println("No movements recorded")
			return
		}
		for _, e := range events {
			fmt.Printf("%s  %-12s %-12s slot=%-4s %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.Plate, e.Slot, e.Detail)
		}
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum number of movements to show")
	RootCmd.AddCommand(historyCmd)
}
