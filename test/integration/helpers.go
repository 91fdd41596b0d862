package integration

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/tabvault/internal/clock"
	"github.com/danieljhkim/tabvault/internal/config"
	"github.com/danieljhkim/tabvault/internal/fsops"
	"github.com/danieljhkim/tabvault/internal/metrics"
	"github.com/danieljhkim/tabvault/internal/persist"
	"github.com/danieljhkim/tabvault/internal/policy"
	"github.com/danieljhkim/tabvault/internal/prefs"
	"github.com/danieljhkim/tabvault/internal/state"
	"github.com/danieljhkim/tabvault/internal/tabid"
	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

// testFS is a filesystem implementation that keeps files in memory.
// Migration and restore touch it from several goroutines.
type testFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

func newTestFS() *testFS {
	return &testFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (fs *testFS) Exists(path string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, hasFile := fs.files[path]
	return hasFile || fs.dirs[path], nil
}

func (fs *testFS) Lstat(path string) (os.FileInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if data, ok := fs.files[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), size: int64(len(data))}, nil
	}
	if fs.dirs[path] {
		return &mockFileInfo{name: filepath.Base(path), isDir: true}, nil
	}
	return nil, &os.PathError{Op: "lstat", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.mkdirAllLocked(path)
	return nil
}

func (fs *testFS) mkdirAllLocked(path string) {
	for p := path; ; p = filepath.Dir(p) {
		fs.dirs[p] = true
		if parent := filepath.Dir(p); parent == p {
			return
		}
	}
}

func (fs *testFS) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.files[path]; ok {
		delete(fs.files, path)
		return nil
	}
	if fs.dirs[path] {
		delete(fs.dirs, path)
		return nil
	}
	return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) Rename(oldpath, newpath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, ok := fs.files[oldpath]
	if !ok || !fs.dirs[filepath.Dir(newpath)] {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrNotExist}
	}
	delete(fs.files, oldpath)
	fs.files[newpath] = data
	return nil
}

func (fs *testFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.mkdirAllLocked(filepath.Dir(path))
	fs.files[path] = append([]byte(nil), data...)
	return nil
}

func (fs *testFS) ReadFile(path string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if content, ok := fs.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
}

func (fs *testFS) ListFiles(dir string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	names := []string{}
	for p := range fs.files {
		if filepath.Dir(p) == dir {
			names = append(names, filepath.Base(p))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (fs *testFS) Glob(dir, pattern string) ([]string, error) {
	names, err := fs.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	matches := []string{}
	for _, name := range names {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, name)
		}
	}
	return matches, nil
}

func (fs *testFS) ValidateIdentifier(id string) error {
	return fsops.NewRealFS().ValidateIdentifier(id)
}

// put writes a file directly, bypassing the FS interface.
func (fs *testFS) put(path string, data []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.mkdirAllLocked(filepath.Dir(path))
	fs.files[path] = data
}

func (fs *testFS) has(path string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.files[path]
	return ok
}

// mockFileInfo implements os.FileInfo
type mockFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (m *mockFileInfo) Name() string { return m.name }
func (m *mockFileInfo) Size() int64  { return m.size }
func (m *mockFileInfo) Mode() os.FileMode {
	if m.isDir {
		return os.ModeDir | 0755
	}
	return 0644
}
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// testEnv is one simulated browser process over a shared disk and
// preference store.
type testEnv struct {
	paths    config.Paths
	fs       *fsops.FaultFS
	disk     *testFS
	prefs    *prefs.MemoryStore
	clock    *clock.FakeClock
	reg      *prometheus.Registry
	metrics  *metrics.Metrics
	migrator *policy.Migrator
	ids      *tabid.Allocator
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	disk := newTestFS()
	_ = disk.MkdirAll("/test", 0755)
	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return newProcess(disk, prefs.NewMemoryStore(), clk)
}

// restart simulates relaunching the browser over the same disk.
func (e *testEnv) restart() *testEnv {
	return newProcess(e.disk, e.prefs, e.clock)
}

func newProcess(disk *testFS, p *prefs.MemoryStore, clk *clock.FakeClock) *testEnv {
	paths := *config.NewPaths("/test", "")
	fs := fsops.NewFaultFS(disk)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return &testEnv{
		paths:    paths,
		fs:       fs,
		disk:     disk,
		prefs:    p,
		clock:    clk,
		reg:      reg,
		metrics:  m,
		migrator: policy.NewMigrator(fs, paths, p, policy.WithMetrics(m), policy.WithClock(clk)),
		ids:      tabid.New(tabid.WithCounterStore(tabid.PrefsCounter{Prefs: p})),
	}
}

func (e *testEnv) newStore(t *testing.T, window int, sel tabmodel.Restorer) *persist.Store {
	t.Helper()
	p, err := policy.NewTabbedPolicy(window, 3, e.migrator)
	require.NoError(t, err)
	return persist.New(p, sel, e.ids, persist.WithMetrics(e.metrics), persist.WithClock(e.clock))
}

// writeLegacyLayout lays out a pre-migration profile: one state file and a
// tab file per entry, directly under the root.
func (e *testEnv) writeLegacyLayout(t *testing.T, activeIndex int, entries ...state.TabEntry) {
	t.Helper()
	w := state.NewWindowState()
	w.ActiveIndex = activeIndex
	w.Tabs = append(w.Tabs, entries...)
	data, err := w.Encode()
	require.NoError(t, err)
	e.disk.put(filepath.Join(e.paths.Legacy, state.LegacyStateFileName), data)
	for _, entry := range entries {
		name := state.TabFileName(entry.ID, entry.Incognito)
		e.disk.put(filepath.Join(e.paths.Legacy, name), []byte("nav:"+name))
	}
}

func (e *testEnv) statePath(name string) string {
	return filepath.Join(e.paths.State, name)
}

func (e *testEnv) legacyPath(name string) string {
	return filepath.Join(e.paths.Legacy, name)
}
