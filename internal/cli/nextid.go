package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/tabvault/internal/tabid"
	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

var nextIDCount int

var nextIDCmd = &cobra.Command{
	Use:   "next-id",
	Short: "Reserve tab ids",
	Long: `Scan every window's state and reserve the next tab ids.

Reserved ids are recorded, so later runs never hand them out again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if nextIDCount < 1 {
			return fmt.Errorf("--count must be at least 1, got %d", nextIDCount)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close(cmd)

		// Loading window 0 seeds the allocator from every window.
		store, err := a.newStore(0, tabmodel.NewMemorySelector())
		if err != nil {
			return err
		}
		store.LoadState(false)

		ids := make([]int, 0, nextIDCount)
		for i := 0; i < nextIDCount; i++ {
			id, err := a.ids.GenerateValidID(tabid.InvalidTabID)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]interface{}{"ids": ids})
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), strconv.Itoa(id))
		}
		return nil
	},
}

func init() {
	nextIDCmd.Flags().IntVarP(&nextIDCount, "count", "n", 1, "Number of ids to reserve")
}
