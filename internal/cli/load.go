package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

var (
	loadWindow          int
	loadIgnoreIncognito bool
)

// tabView describes one tab in command output.
type tabView struct {
	ID         int    `json:"id"`
	Incognito  bool   `json:"incognito"`
	URL        string `json:"url"`
	Active     bool   `json:"active"`
	StateBytes int    `json:"stateBytes"`
}

// windowView describes a restored window in command output.
type windowView struct {
	Window   int       `json:"window"`
	Restored int       `json:"restored"`
	Tabs     []tabView `json:"tabs"`
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Restore a window and list its tabs",
	Long: `Load a window's state file, restore its tabs, and list them.

With --ignore-incognito, incognito tabs are dropped and their tab files deleted.
A missing or unreadable state file restores an empty window.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close(cmd)

		store, sel, err := a.openWindow(context.Background(), loadWindow, loadIgnoreIncognito)
		if err != nil {
			return err
		}

		view := viewWindow(loadWindow, store.RestoredTabCount(), sel)
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), view)
		}
		printWindow(newPrinter(cmd.OutOrStdout()), view)
		return nil
	},
}

func init() {
	loadCmd.Flags().IntVarP(&loadWindow, "window", "w", 0, "Window index")
	loadCmd.Flags().BoolVar(&loadIgnoreIncognito, "ignore-incognito", false, "Drop incognito tabs")
}

// viewWindow builds the output view of a selector.
func viewWindow(window, restored int, sel tabmodel.Selector) windowView {
	view := windowView{Window: window, Restored: restored, Tabs: []tabView{}}
	for _, list := range sel.Models() {
		for i := 0; i < list.Count(); i++ {
			tab := list.TabAt(i)
			view.Tabs = append(view.Tabs, tabView{
				ID:         tab.ID(),
				Incognito:  tab.IsIncognito(),
				URL:        tab.URL(),
				Active:     i == list.ActiveIndex(),
				StateBytes: len(tab.State()),
			})
		}
	}
	return view
}

func printWindow(out *printer, view windowView) {
	out.Section(fmt.Sprintf("Window %d", view.Window))
	if len(view.Tabs) == 0 {
		out.EmptyState("No tabs.")
		return
	}

	rows := make([][]string, 0, len(view.Tabs))
	for _, tab := range view.Tabs {
		kind := "regular"
		if tab.Incognito {
			kind = "incognito"
		}
		active := ""
		if tab.Active {
			active = "*"
		}
		rows = append(rows, []string{active, strconv.Itoa(tab.ID), kind, tab.URL, strconv.Itoa(tab.StateBytes)})
	}
	out.Table([]string{"", "ID", "KIND", "URL", "STATE"}, rows)
	out.Blank()
	out.Info(fmt.Sprintf("Restored %s", countNoun(view.Restored, "tab", "tabs")))
}
