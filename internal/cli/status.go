package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/tabvault/internal/prefs"
	"github.com/danieljhkim/tabvault/internal/state"
)

// windowStatus summarizes one state file.
type windowStatus struct {
	Index     int    `json:"index"`
	File      string `json:"file"`
	Regular   int    `json:"regular"`
	Incognito int    `json:"incognito"`
	MaxID     int    `json:"maxId"`
	Error     string `json:"error,omitempty"`
}

// statusResult is the output of the status command.
type statusResult struct {
	Root           string         `json:"root"`
	StateDir       string         `json:"stateDir"`
	Migrated       bool           `json:"migrated"`
	MigratedAt     string         `json:"migratedAt,omitempty"`
	NeedsMigration bool           `json:"needsMigration"`
	LegacyFiles    []string       `json:"legacyFiles"`
	Windows        []windowStatus `json:"windows"`
	TabFiles       int            `json:"tabFiles"`
	Orphans        []string       `json:"orphans"`
	NextTabID      *int           `json:"nextTabId,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration and window state",
	Long: `Display the migration status, every window state file with its tab counts,
and tab files that no state file references.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close(cmd)

		result, err := collectStatus(a)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), result)
		}

		out := newPrinter(cmd.OutOrStdout())
		out.Section("Storage")
		out.LabelValue("Root", result.Root)
		out.LabelValue("State directory", result.StateDir)
		if result.Migrated {
			out.LabelValueWithColor("Migration", "completed "+result.MigratedAt, successColor)
		} else if result.NeedsMigration {
			out.LabelValueWithColor("Migration", "pending", warningColor)
			out.List(result.LegacyFiles, 2)
		} else {
			out.LabelValue("Migration", "not needed")
		}
		if result.NextTabID != nil {
			out.LabelValue("Next tab id", strconv.Itoa(*result.NextTabID))
		}

		out.Section("Windows")
		if len(result.Windows) == 0 {
			out.EmptyState("No window state files.")
		} else {
			rows := make([][]string, 0, len(result.Windows))
			for _, w := range result.Windows {
				if w.Error != "" {
					rows = append(rows, []string{strconv.Itoa(w.Index), w.File, "-", "-", w.Error})
					continue
				}
				rows = append(rows, []string{
					strconv.Itoa(w.Index), w.File,
					strconv.Itoa(w.Regular), strconv.Itoa(w.Incognito), strconv.Itoa(w.MaxID),
				})
			}
			out.Table([]string{"WINDOW", "FILE", "REGULAR", "INCOGNITO", "MAX ID"}, rows)
		}

		out.Blank()
		out.Info(fmt.Sprintf("%s on disk", countNoun(result.TabFiles, "tab file", "tab files")))
		if len(result.Orphans) > 0 {
			out.Warning(fmt.Sprintf("%s not referenced by any window (run 'tabvault cleanup')",
				countNoun(len(result.Orphans), "tab file", "tab files")))
		}
		return nil
	},
}

// collectStatus gathers the status report without changing anything on disk.
func collectStatus(a *app) (*statusResult, error) {
	p, err := a.policy(0)
	if err != nil {
		return nil, err
	}
	legacy, err := a.migrator.LegacyFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy files: %w", err)
	}

	result := &statusResult{
		Root:           a.paths.Root,
		StateDir:       a.paths.State,
		Migrated:       a.migrator.Completed(),
		MigratedAt:     a.prefs.String(prefs.KeyMigrationCompletedAt),
		NeedsMigration: a.migrator.NeedsMigration(),
		LegacyFiles:    legacy,
		Windows:        []windowStatus{},
		Orphans:        []string{},
	}
	if next, ok := a.prefs.Int(prefs.KeyNextTabID); ok {
		result.NextTabID = &next
	}

	files := p.Store()
	indices, err := files.WindowIndices()
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]bool)
	malformed := false
	for _, i := range indices {
		ws := windowStatus{Index: i, File: state.StateFileName(i), MaxID: -1}
		w, err := files.ReadWindow(i)
		switch {
		case err == nil:
			ws.Regular, ws.Incognito = w.Count()
			ws.MaxID = w.MaxID()
			for _, tab := range w.Tabs {
				referenced[state.TabFileName(tab.ID, tab.Incognito)] = true
			}
		case errors.Is(err, os.ErrNotExist):
			continue
		default:
			ws.Error = err.Error()
			malformed = true
		}
		result.Windows = append(result.Windows, ws)
	}

	tabFiles, err := files.TabFiles()
	if err != nil {
		return nil, err
	}
	result.TabFiles = len(tabFiles)

	// Orphans are unknowable while a state file cannot be read.
	if !malformed {
		orphans, err := p.OrphanTabFiles(referenced)
		if err != nil {
			return nil, err
		}
		for _, f := range orphans {
			result.Orphans = append(result.Orphans, f.Name)
		}
	}
	return result, nil
}
