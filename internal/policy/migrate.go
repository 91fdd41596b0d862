package policy

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/danieljhkim/tabvault/internal/clock"
	"github.com/danieljhkim/tabvault/internal/config"
	"github.com/danieljhkim/tabvault/internal/fsops"
	"github.com/danieljhkim/tabvault/internal/logging"
	"github.com/danieljhkim/tabvault/internal/metrics"
	"github.com/danieljhkim/tabvault/internal/prefs"
	"github.com/danieljhkim/tabvault/internal/state"
)

// MigrationResult describes what one migration pass did.
type MigrationResult struct {
	// AlreadyDone is set when the persisted flag was found set; nothing ran.
	AlreadyDone bool `json:"alreadyDone"`

	// Skipped is set when the current directory already held state, so the
	// legacy files were left untouched.
	Skipped bool `json:"skipped"`

	// Moved lists the legacy file names that were moved.
	Moved []string `json:"moved"`

	// Failed lists the legacy file names whose move failed.
	Failed []string `json:"failed"`

	// FlagSet reports whether the completion flag was persisted.
	FlagSet bool `json:"flagSet"`
}

// Migrator moves the legacy flat layout into the current state directory.
//
// One Migrator is shared by every policy in a process. The migration runs at
// most once per Migrator, on a background goroutine, and at most once ever
// thanks to the persisted flag.
type Migrator struct {
	fs        fsops.FS
	legacyDir string
	stateDir  string
	prefs     prefs.Store
	clock     clock.Clock
	metrics   *metrics.Metrics
	log       *zap.Logger

	once     sync.Once
	waitOnce sync.Once
	wg       conc.WaitGroup
	done     chan struct{}

	mu      sync.Mutex
	started bool
	result  MigrationResult
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Migrator) { m.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Migrator) { m.metrics = mt }
}

// WithClock sets the clock used to timestamp completion.
func WithClock(c clock.Clock) Option {
	return func(m *Migrator) { m.clock = c }
}

// NewMigrator creates a Migrator for the legacy and state directories in paths.
func NewMigrator(fs fsops.FS, paths config.Paths, p prefs.Store, opts ...Option) *Migrator {
	m := &Migrator{
		fs:        fs,
		legacyDir: paths.Legacy,
		stateDir:  paths.State,
		prefs:     p,
		clock:     &clock.RealClock{},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logging.Component(m.log, "migration")
	return m
}

// Completed reports whether the persisted migration flag is set.
func (m *Migrator) Completed() bool {
	return m.prefs.Bool(prefs.KeyHasRunFileMigration, false)
}

// NeedsMigration reports whether the flag is unset and the legacy directory
// holds at least one file the migration would move.
func (m *Migrator) NeedsMigration() bool {
	if m.Completed() {
		return false
	}
	names, err := m.LegacyFiles()
	if err != nil {
		m.log.Warn("failed to list legacy directory", zap.String("dir", m.legacyDir), zap.Error(err))
		return false
	}
	return len(names) > 0
}

// LegacyFiles lists the legacy state file and legacy tab files, sorted.
func (m *Migrator) LegacyFiles() ([]string, error) {
	names, err := m.fs.ListFiles(m.legacyDir)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, name := range names {
		if state.IsLegacyFile(name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// Start launches the migration in the background. Only the first call has any
// effect; it reports whether this call started it.
func (m *Migrator) Start() bool {
	started := false
	m.once.Do(func() {
		m.mu.Lock()
		m.started = true
		m.mu.Unlock()
		started = true

		m.wg.Go(func() {
			defer close(m.done)
			res := m.run()
			m.mu.Lock()
			m.result = res
			m.mu.Unlock()
		})
	})
	return started
}

// Wait blocks until a started migration has finished. It returns at once if
// no migration was started.
func (m *Migrator) Wait() {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if !started {
		return
	}

	<-m.done
	m.waitOnce.Do(func() {
		if r := m.wg.WaitAndRecover(); r != nil {
			m.log.Error("migration panicked", zap.String("panic", r.String()))
		}
	})
}

// Migrate runs the migration (if not already run) and waits for it.
func (m *Migrator) Migrate() MigrationResult {
	m.Start()
	m.Wait()
	return m.Result()
}

// Result returns the outcome of the finished migration. It is the zero value
// until the migration has completed.
func (m *Migrator) Result() MigrationResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.result
	res.Moved = append([]string(nil), m.result.Moved...)
	res.Failed = append([]string(nil), m.result.Failed...)
	return res
}

// run performs one migration pass.
func (m *Migrator) run() MigrationResult {
	var res MigrationResult

	if m.Completed() {
		res.AlreadyDone = true
		m.metrics.MigrationRun(metrics.RunAlreadyDone)
		m.log.Debug("migration already completed")
		return res
	}

	populated, err := m.stateDirPopulated()
	if err != nil {
		// Unknown contents: moving could overwrite current state.
		m.log.Warn("failed to inspect state directory, skipping migration",
			zap.String("dir", m.stateDir), zap.Error(err))
		populated = true
	}

	switch {
	case populated:
		res.Skipped = true
		m.metrics.MigrationRun(metrics.RunSkippedExist)
		m.log.Info("state directory already populated, skipping migration", zap.String("dir", m.stateDir))
	default:
		m.moveLegacyFiles(&res)
	}

	res.FlagSet = m.markCompleted()
	return res
}

func (m *Migrator) stateDirPopulated() (bool, error) {
	names, err := m.fs.ListFiles(m.stateDir)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if state.IsStateOrTabFile(name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Migrator) moveLegacyFiles(res *MigrationResult) {
	names, err := m.LegacyFiles()
	if err != nil {
		m.log.Warn("failed to list legacy directory", zap.String("dir", m.legacyDir), zap.Error(err))
		m.metrics.MigrationRun(metrics.RunNothingToDo)
		return
	}
	if len(names) == 0 {
		m.metrics.MigrationRun(metrics.RunNothingToDo)
		m.log.Debug("no legacy files to migrate")
		return
	}

	if err := m.fs.MkdirAll(m.stateDir, 0755); err != nil {
		m.log.Warn("failed to create state directory", zap.String("dir", m.stateDir), zap.Error(err))
		res.Failed = append(res.Failed, names...)
		for range names {
			m.metrics.MigrationFile(metrics.FileFailed)
		}
		m.metrics.MigrationRun(metrics.RunMigrated)
		return
	}

	for _, name := range names {
		target := currentName(name)
		src := filepath.Join(m.legacyDir, name)
		dst := filepath.Join(m.stateDir, target)

		if err := m.fs.Rename(src, dst); err != nil {
			res.Failed = append(res.Failed, name)
			m.metrics.MigrationFile(metrics.FileFailed)
			m.log.Warn("failed to move legacy file",
				zap.String("file", name), zap.String("target", target), zap.Error(err))
			continue
		}
		res.Moved = append(res.Moved, name)
		m.metrics.MigrationFile(metrics.FileMoved)
	}

	m.metrics.MigrationRun(metrics.RunMigrated)
	m.log.Info("migrated legacy files",
		zap.Int("moved", len(res.Moved)), zap.Int("failed", len(res.Failed)))
}

// markCompleted persists the flag. Failures are logged; the migration is then
// attempted again on the next launch.
func (m *Migrator) markCompleted() bool {
	if err := m.prefs.SetBool(prefs.KeyHasRunFileMigration, true); err != nil {
		m.log.Warn("failed to persist migration flag", zap.Error(err))
		return false
	}
	if err := m.prefs.SetString(prefs.KeyMigrationCompletedAt, m.clock.Now().UTC().Format(time.RFC3339)); err != nil {
		m.log.Warn("failed to record migration time", zap.Error(err))
	}
	return true
}

// currentName maps a legacy file name to its current-layout name.
func currentName(legacy string) string {
	if legacy == state.LegacyStateFileName {
		return state.StateFileName(0)
	}
	return legacy
}

// String summarizes the result for logs and CLI output.
func (r MigrationResult) String() string {
	switch {
	case r.AlreadyDone:
		return "already migrated"
	case r.Skipped:
		return "skipped (state directory already populated)"
	default:
		return fmt.Sprintf("moved %d, failed %d", len(r.Moved), len(r.Failed))
	}
}
