package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

var clearWindow int

// clearCmd deletes a window's state file and its tab files.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete a window's saved state",
	Long: `Delete a window's state file and every tab file it lists.

Other windows' files are not touched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close(cmd)

		store, err := a.newStore(clearWindow, tabmodel.NewMemorySelector())
		if err != nil {
			return err
		}
		store.WaitForMigrationToFinish()
		if err := store.ClearState(); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]interface{}{
				"window":  clearWindow,
				"cleared": true,
			})
		}

		newPrinter(cmd.OutOrStdout()).Success(fmt.Sprintf("Cleared window %d", clearWindow))
		return nil
	},
}

func init() {
	clearCmd.Flags().IntVarP(&clearWindow, "window", "w", 0, "Window index")
}
