// Package prefs provides the application-level key-value preference storage.
//
// Preferences are a flat YAML map persisted at a single path. Every write
// rewrites the file atomically, so a crash leaves either the old or the new
// map on disk. The migration completion flag and the persisted tab id
// counter both live here.
package prefs

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/tabvault/internal/fsops"
)

// Well-known preference keys.
const (
	// KeyHasRunFileMigration is set once the legacy layout migration has completed.
	KeyHasRunFileMigration = "has_run_file_migration"

	// KeyMigrationCompletedAt records when the migration flag was set.
	KeyMigrationCompletedAt = "migration_completed_at"

	// KeyNextTabID is the persisted next tab id counter.
	KeyNextTabID = "next_tab_id"
)

// Store reads and writes preferences.
type Store interface {
	// Bool returns the value for key, or def if unset or not a bool.
	Bool(key string, def bool) bool

	// SetBool persists a bool value.
	SetBool(key string, value bool) error

	// Int returns the value for key and whether it was set as an int.
	Int(key string) (int, bool)

	// SetInt persists an int value.
	SetInt(key string, value int) error

	// String returns the value for key, or "" if unset.
	String(key string) string

	// SetString persists a string value.
	SetString(key, value string) error
}

// FileStore implements Store backed by a YAML file.
type FileStore struct {
	fs   fsops.FS
	path string

	mu     sync.Mutex
	values map[string]interface{}
	loaded bool
}

// NewFileStore creates a FileStore persisted at path. The file is read lazily.
func NewFileStore(fs fsops.FS, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// loadLocked reads the file once. A missing file is an empty map; an
// unreadable or corrupt file is reported and treated as empty so callers
// degrade rather than fail.
// Caller must hold mu.
func (s *FileStore) loadLocked() error {
	if s.loaded {
		return nil
	}
	s.values = make(map[string]interface{})
	s.loaded = true

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read preferences: %w", err)
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil {
		s.values = make(map[string]interface{})
		return fmt.Errorf("failed to parse preferences: %w", err)
	}
	if s.values == nil {
		s.values = make(map[string]interface{})
	}
	return nil
}

// get returns the raw value for key.
func (s *FileStore) get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Read errors leave an empty map; lookups then report unset.
	_ = s.loadLocked()
	v, ok := s.values[key]
	return v, ok
}

// set stores value under key and rewrites the file.
func (s *FileStore) set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.loadLocked()
	prev, hadPrev := s.values[key]
	s.values[key] = value

	data, err := yaml.Marshal(s.values)
	if err != nil {
		s.restoreLocked(key, prev, hadPrev)
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		s.restoreLocked(key, prev, hadPrev)
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}

// restoreLocked undoes an in-memory update after a failed write.
func (s *FileStore) restoreLocked(key string, prev interface{}, hadPrev bool) {
	if hadPrev {
		s.values[key] = prev
	} else {
		delete(s.values, key)
	}
}

// Bool returns the value for key, or def if unset or not a bool.
func (s *FileStore) Bool(key string, def bool) bool {
	v, ok := s.get(key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// SetBool persists a bool value.
func (s *FileStore) SetBool(key string, value bool) error {
	return s.set(key, value)
}

// Int returns the value for key and whether it was set as an int.
func (s *FileStore) Int(key string) (int, bool) {
	v, ok := s.get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	default:
		return 0, false
	}
}

// SetInt persists an int value.
func (s *FileStore) SetInt(key string, value int) error {
	return s.set(key, value)
}

// String returns the value for key, or "" if unset.
func (s *FileStore) String(key string) string {
	v, ok := s.get(key)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		// yaml.v3 decodes unquoted RFC3339 scalars as timestamps
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// SetString persists a string value.
func (s *FileStore) SetString(key, value string) error {
	return s.set(key, value)
}

// MemoryStore implements Store in memory, for tests and dry runs.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]interface{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]interface{})}
}

func (m *MemoryStore) Bool(key string, def bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.values[key].(bool); ok {
		return b
	}
	return def
}

func (m *MemoryStore) SetBool(key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Int(key string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.values[key].(int)
	return n, ok
}

func (m *MemoryStore) SetInt(key string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) String(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, _ := m.values[key].(string)
	return s
}

func (m *MemoryStore) SetString(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
