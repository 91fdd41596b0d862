// Package policy decides where tab state lives and owns the one-time move
// from the legacy flat layout to the per-window state directory.
//
// A TabbedPolicy is bound to one window index. The policy for index 0 is
// the only one that triggers migration; every other index only waits for a
// migration somebody else started.
package policy

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/danieljhkim/tabvault/internal/fsops"
	"github.com/danieljhkim/tabvault/internal/state"
)

// MigrationWindow is the window index whose policy triggers migration.
const MigrationWindow = 0

// ErrInvalidWindowIndex is returned for a window index outside 0..max-1.
var ErrInvalidWindowIndex = errors.New("invalid window index")

// TabbedPolicy resolves the storage of one window.
type TabbedPolicy struct {
	index    int
	fs       fsops.FS
	migrator *Migrator
	store    *state.FileStateStore
	log      *zap.Logger
}

// NewTabbedPolicy creates the policy for window index. maxWindows bounds the
// accepted indices.
func NewTabbedPolicy(index, maxWindows int, m *Migrator) (*TabbedPolicy, error) {
	if index < 0 || index >= maxWindows {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrInvalidWindowIndex, index, maxWindows)
	}
	return &TabbedPolicy{
		index:    index,
		fs:       m.fs,
		migrator: m,
		store:    state.NewFileStateStore(m.fs, m.stateDir),
		log:      m.log.With(zap.Int("window", index)),
	}, nil
}

// Index returns the window index.
func (p *TabbedPolicy) Index() int {
	return p.index
}

// StateDirectory returns the current state directory, creating it if needed.
func (p *TabbedPolicy) StateDirectory() (string, error) {
	if err := p.fs.MkdirAll(p.migrator.stateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return p.migrator.stateDir, nil
}

// LegacyDirectory returns the legacy flat directory.
func (p *TabbedPolicy) LegacyDirectory() string {
	return p.migrator.legacyDir
}

// StateFileName returns this window's state file name.
func (p *TabbedPolicy) StateFileName() string {
	return state.StateFileName(p.index)
}

// Store returns the state store over the current state directory.
func (p *TabbedPolicy) Store() state.StateStore {
	return p.store
}

// NeedsMigration reports whether a migration would move anything.
func (p *TabbedPolicy) NeedsMigration() bool {
	return p.migrator.NeedsMigration()
}

// PerformInitialization starts the background migration if this is the
// triggering window. It never blocks.
func (p *TabbedPolicy) PerformInitialization() bool {
	if p.index != MigrationWindow {
		return false
	}
	started := p.migrator.Start()
	if started {
		p.log.Debug("migration scheduled")
	}
	return started
}

// WaitForMigration blocks until the process's migration has finished. A
// sibling window that waits before window 0 exists starts the shared pass
// itself, so it never reads or writes the state directory ahead of it.
func (p *TabbedPolicy) WaitForMigration() {
	if p.migrator.Start() {
		p.log.Debug("migration started by waiting window")
	}
	p.migrator.Wait()
}

// StateFileNames lists every state file in the state directory.
func (p *TabbedPolicy) StateFileNames() ([]string, error) {
	indices, err := p.store.WindowIndices()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(indices))
	for _, i := range indices {
		names = append(names, state.StateFileName(i))
	}
	return names, nil
}

// ReferencedTabs returns the tab file names listed by any state file. An
// unreadable state file is an error, since its tabs cannot be accounted for.
func (p *TabbedPolicy) ReferencedTabs() (map[string]bool, error) {
	indices, err := p.store.WindowIndices()
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	for _, i := range indices {
		ws, err := p.store.ReadWindow(i)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", state.StateFileName(i), err)
		}
		for _, tab := range ws.Tabs {
			referenced[state.TabFileName(tab.ID, tab.Incognito)] = true
		}
	}
	return referenced, nil
}

// OrphanTabFiles lists tab files that are not in referenced.
func (p *TabbedPolicy) OrphanTabFiles(referenced map[string]bool) ([]state.TabFile, error) {
	files, err := p.store.TabFiles()
	if err != nil {
		return nil, err
	}
	orphans := []state.TabFile{}
	for _, f := range files {
		if !referenced[f.Name] {
			orphans = append(orphans, f)
		}
	}
	return orphans, nil
}

// Cleanup deletes tab files that no state file references and returns the
// names removed. With dryRun set nothing is deleted.
func (p *TabbedPolicy) Cleanup(dryRun bool) ([]string, error) {
	referenced, err := p.ReferencedTabs()
	if err != nil {
		return nil, err
	}
	orphans, err := p.OrphanTabFiles(referenced)
	if err != nil {
		return nil, err
	}

	removed := []string{}
	for _, f := range orphans {
		if !dryRun {
			if err := p.store.DeleteTab(f.ID, f.Incognito); err != nil {
				return removed, err
			}
			p.log.Debug("removed orphan tab file", zap.String("file", f.Name))
		}
		removed = append(removed, f.Name)
	}
	return removed, nil
}

// LegacyTabFiles lists tab files still in the legacy directory.
func (p *TabbedPolicy) LegacyTabFiles() ([]state.TabFile, error) {
	names, err := p.migrator.LegacyFiles()
	if err != nil {
		return nil, err
	}
	files := []state.TabFile{}
	for _, name := range names {
		if id, incognito, ok := state.ParseTabFileName(name); ok {
			files = append(files, state.TabFile{Name: name, ID: id, Incognito: incognito})
		}
	}
	return files, nil
}
