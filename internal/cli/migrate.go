package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move legacy tab state into the state directory",
	Long: `Move the legacy state file and tab files from the root directory into the
per-window state directory.

Migration runs at most once: when the completion flag is already set this is a
no-op. If the state directory already holds state, the legacy files are left
where they are and the flag is still set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close(cmd)

		result := a.migrator.Migrate()

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}

		out := newPrinter(cmd.OutOrStdout())
		switch {
		case result.AlreadyDone:
			out.Info("Migration already completed.")
		case result.Skipped:
			out.Warning("State directory already populated; legacy files left in place.")
		case len(result.Moved) == 0 && len(result.Failed) == 0:
			out.Success("No legacy files to migrate.")
		default:
			out.Success(fmt.Sprintf("Migrated %s", countNoun(len(result.Moved), "file", "files")))
			out.List(result.Moved, 1)
		}
		if len(result.Failed) > 0 {
			out.Warning(fmt.Sprintf("Failed to move %s (left in %s):", countNoun(len(result.Failed), "file", "files"), a.paths.Legacy))
			out.List(result.Failed, 1)
		}
		if !result.FlagSet && !result.AlreadyDone {
			out.Warning("Could not record completion; migration will run again next time.")
		}
		return nil
	},
}
