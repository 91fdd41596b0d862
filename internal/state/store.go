package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/danieljhkim/tabvault/internal/fsops"
)

// StateStore provides an interface for persisting window and tab state.
type StateStore interface {
	// Dir returns the directory holding the files.
	Dir() string

	// ReadWindow reads and decodes the state file for a window.
	// Returns os.ErrNotExist if the file doesn't exist.
	ReadWindow(index int) (*WindowState, error)

	// WriteWindow atomically writes raw state file bytes for a window.
	WriteWindow(index int, data []byte) error

	// DeleteWindow deletes the state file for a window.
	DeleteWindow(index int) error

	// ReadTab reads a tab file.
	// Returns os.ErrNotExist if the file doesn't exist.
	ReadTab(id int, incognito bool) ([]byte, error)

	// WriteTab atomically writes a tab file.
	WriteTab(id int, incognito bool, data []byte) error

	// DeleteTab deletes a tab file. Deleting a missing file is not an error.
	DeleteTab(id int, incognito bool) error

	// WindowIndices lists the window indices that have a state file.
	WindowIndices() ([]int, error)

	// TabFiles lists every tab file present.
	TabFiles() ([]TabFile, error)
}

// TabFile identifies one tab file on disk.
type TabFile struct {
	Name      string
	ID        int
	Incognito bool
}

// FileStateStore implements StateStore over a single directory.
type FileStateStore struct {
	fs  fsops.FS
	dir string
}

// NewFileStateStore creates a new FileStateStore rooted at dir.
func NewFileStateStore(fs fsops.FS, dir string) *FileStateStore {
	return &FileStateStore{
		fs:  fs,
		dir: dir,
	}
}

// Dir returns the directory holding the files.
func (s *FileStateStore) Dir() string {
	return s.dir
}

func (s *FileStateStore) path(name string) (string, error) {
	if err := s.fs.ValidateIdentifier(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// ReadWindow reads and decodes the state file for a window.
func (s *FileStateStore) ReadWindow(index int) (*WindowState, error) {
	path, err := s.path(StateFileName(index))
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	return Decode(data)
}

// WriteWindow atomically writes raw state file bytes for a window.
func (s *FileStateStore) WriteWindow(index int, data []byte) error {
	path, err := s.path(StateFileName(index))
	if err != nil {
		return err
	}
	if err := s.fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// DeleteWindow deletes the state file for a window.
func (s *FileStateStore) DeleteWindow(index int) error {
	path, err := s.path(StateFileName(index))
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// ReadTab reads a tab file.
func (s *FileStateStore) ReadTab(id int, incognito bool) ([]byte, error) {
	path, err := s.path(TabFileName(id, incognito))
	if err != nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read tab file: %w", err)
	}
	return data, nil
}

// WriteTab atomically writes a tab file.
func (s *FileStateStore) WriteTab(id int, incognito bool, data []byte) error {
	path, err := s.path(TabFileName(id, incognito))
	if err != nil {
		return err
	}
	if err := s.fs.AtomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write tab file: %w", err)
	}
	return nil
}

// DeleteTab deletes a tab file.
func (s *FileStateStore) DeleteTab(id int, incognito bool) error {
	path, err := s.path(TabFileName(id, incognito))
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete tab file: %w", err)
	}
	return nil
}

// WindowIndices lists the window indices that have a state file, ascending.
func (s *FileStateStore) WindowIndices() ([]int, error) {
	names, err := s.fs.Glob(s.dir, StateFilePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list state files: %w", err)
	}

	indices := []int{}
	for _, name := range names {
		if index, ok := ParseStateFileName(name); ok {
			indices = append(indices, index)
		}
	}
	sort.Ints(indices)
	return indices, nil
}

// TabFiles lists every tab file present, ordered by name.
func (s *FileStateStore) TabFiles() ([]TabFile, error) {
	pattern := fmt.Sprintf("{%s,%s}*", RegularTabPrefix, IncognitoTabPrefix)
	names, err := s.fs.Glob(s.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list tab files: %w", err)
	}

	files := []TabFile{}
	for _, name := range names {
		id, incognito, ok := ParseTabFileName(name)
		if !ok {
			continue
		}
		files = append(files, TabFile{Name: name, ID: id, Incognito: incognito})
	}
	return files, nil
}
