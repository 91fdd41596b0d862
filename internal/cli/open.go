package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

var (
	openTabWindow int
	openURL       string
	openIncognito bool
	openState     string
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a new tab in a window and save it",
	Long: `Restore a window, open a new tab with a freshly allocated id, and save the
window. The id is unique across every window sharing the state directory.

--state sets the tab's saved navigation state; it is stored as-is.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if openURL == "" {
			return fmt.Errorf("--url is required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close(cmd)

		store, sel, err := a.openWindow(context.Background(), openTabWindow, false)
		if err != nil {
			return err
		}

		id, err := a.ids.GenerateValidID(tabmodel.MaxID(sel))
		if err != nil {
			return fmt.Errorf("failed to allocate tab id: %w", err)
		}

		var navState []byte
		if openState != "" {
			navState = []byte(openState)
		}
		if err := sel.AddTab(tabmodel.NewTab(id, openIncognito, openURL, navState)); err != nil {
			return err
		}
		if err := store.AddTabToSaveQueue(id); err != nil {
			return err
		}
		if err := store.SaveState(); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), tabView{
				ID:         id,
				Incognito:  openIncognito,
				URL:        openURL,
				StateBytes: len(navState),
			})
		}

		newPrinter(cmd.OutOrStdout()).Success(fmt.Sprintf("Opened tab %d in window %d", id, openTabWindow))
		return nil
	},
}

func init() {
	openCmd.Flags().IntVarP(&openTabWindow, "window", "w", 0, "Window index")
	openCmd.Flags().StringVar(&openURL, "url", "", "URL of the new tab")
	openCmd.Flags().BoolVar(&openIncognito, "incognito", false, "Open an incognito tab")
	openCmd.Flags().StringVar(&openState, "state", "", "Navigation state to store for the tab")
}
