// Package config manages tabvault configuration and filesystem paths.
//
// The root directory holds the legacy flat layout (tab files and the single
// legacy state file sit directly under it). The current layout lives one level
// down in the tabbed state directory, shared by every window. Locations can be
// customized via environment variables; behavior settings come from an
// optional config.yaml under the root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// DefaultStateDirName is the name of the tabbed state directory under Root.
const DefaultStateDirName = "tabs"

// Paths contains all the filesystem paths used by tabvault.
type Paths struct {
	// Root is the application-private base directory (default: ~/.tabvault).
	// It is also the legacy layout directory.
	Root string

	// Legacy is the directory searched for pre-migration files.
	Legacy string

	// State is the current-layout directory holding state and tab files
	State string

	// Prefs is the path to the key-value preferences file
	Prefs string

	// Config is the path to the optional settings file
	Config string

	// Log is the path to the log file
	Log string
}

// env holds the environment overrides for Paths.
type env struct {
	Root     string `envconfig:"ROOT"`
	StateDir string `envconfig:"STATE_DIR" default:"tabs"`
}

// DefaultPaths returns the default paths for tabvault.
// Paths can be overridden with environment variables:
//   - TABVAULT_ROOT: override the root directory
//   - TABVAULT_STATE_DIR: override the tabbed state directory name
func DefaultPaths() (*Paths, error) {
	var e env
	if err := envconfig.Process("tabvault", &e); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	root := e.Root
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".tabvault")
	}

	return NewPaths(root, e.StateDir), nil
}

// NewPaths builds the layout under root. An empty stateDir selects
// DefaultStateDirName.
func NewPaths(root, stateDir string) *Paths {
	if stateDir == "" {
		stateDir = DefaultStateDirName
	}
	return &Paths{
		Root:   root,
		Legacy: root,
		State:  filepath.Join(root, stateDir),
		Prefs:  filepath.Join(root, "prefs.yaml"),
		Config: filepath.Join(root, "config.yaml"),
		Log:    filepath.Join(root, "tabvault.log"),
	}
}

// EnsureDirectories creates the root directory if it doesn't exist.
// The state directory is created on demand by the persistence policy.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.Root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.Root, err)
	}
	return nil
}
