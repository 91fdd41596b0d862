package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/tabvault/internal/persist"
)

var (
	closeWindow int
	closeID     int
)

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close a tab and delete its tab file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close(cmd)

		store, sel, err := a.openWindow(context.Background(), closeWindow, false)
		if err != nil {
			return err
		}

		tab, ok := sel.CloseTab(closeID)
		if !ok {
			return fmt.Errorf("%w: %d in window %d", persist.ErrTabNotFound, closeID, closeWindow)
		}
		if err := store.RemoveTabFromQueues(tab.ID(), tab.IsIncognito()); err != nil {
			return err
		}
		if err := store.SaveState(); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), viewWindow(closeWindow, store.RestoredTabCount(), sel))
		}

		newPrinter(cmd.OutOrStdout()).Success(fmt.Sprintf("Closed tab %d in window %d", closeID, closeWindow))
		return nil
	},
}

func init() {
	closeCmd.Flags().IntVarP(&closeWindow, "window", "w", 0, "Window index")
	closeCmd.Flags().IntVar(&closeID, "id", -1, "Id of the tab to close")
}
