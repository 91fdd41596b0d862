package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupDryRun bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete tab files no window references",
	Long: `Delete tab files in the state directory that no window state file lists.

Nothing is deleted while any state file is unreadable.
Use --dry-run to preview what would be deleted without actually deleting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close(cmd)

		p, err := a.policy(0)
		if err != nil {
			return err
		}
		removed, err := p.Cleanup(cleanupDryRun)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]interface{}{
				"dryRun":  cleanupDryRun,
				"removed": removed,
			})
		}

		out := newPrinter(cmd.OutOrStdout())
		if len(removed) == 0 {
			out.Section("Cleanup")
			out.EmptyState("No orphaned tab files found.")
			return nil
		}
		if cleanupDryRun {
			out.Section("Dry Run")
			out.Info(fmt.Sprintf("Would delete %s:", countNoun(len(removed), "tab file", "tab files")))
			out.List(removed, 1)
			out.Blank()
			out.Warning("Run without --dry-run to actually delete these files.")
			return nil
		}
		out.Success(fmt.Sprintf("Deleted %s", countNoun(len(removed), "orphaned tab file", "orphaned tab files")))
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Preview what would be deleted without deleting")
}
