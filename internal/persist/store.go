// Package persist implements the per-window load/save lifecycle of tab state.
//
// A Store is bound to one window (through its policy) and one tab collection.
// Constructing a Store schedules the legacy layout migration when the window
// is the triggering one; LoadState waits for it, reads the window's state
// file and queues the tabs it lists; RestoreTabs then brings those tabs back
// into the collection. Failures on the load path never surface as errors: a
// missing or unreadable state file yields an empty window.
package persist

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danieljhkim/tabvault/internal/clock"
	"github.com/danieljhkim/tabvault/internal/logging"
	"github.com/danieljhkim/tabvault/internal/metrics"
	"github.com/danieljhkim/tabvault/internal/policy"
	"github.com/danieljhkim/tabvault/internal/state"
	"github.com/danieljhkim/tabvault/internal/tabid"
	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

var (
	// ErrNotLoaded is returned by operations that need LoadState to have run.
	ErrNotLoaded = errors.New("state not loaded")

	// ErrTabNotFound is returned when a tab id is not in the tab collection.
	ErrTabNotFound = errors.New("tab not found")
)

// DefaultRestoreConcurrency bounds parallel tab file reads during restore.
const DefaultRestoreConcurrency = 4

// Observer receives load and restore progress. Callbacks run on the goroutine
// calling LoadState or RestoreTabs.
type Observer interface {
	// OnDetailsRead is called for every tab entry queued for restore.
	// isStandardActiveIndex is set for the active regular tab.
	OnDetailsRead(tab state.TabEntry, isStandardActiveIndex bool)

	// OnInitialized is called once the state file has been read, with the
	// number of tabs queued.
	OnInitialized(tabCount int)

	// OnStateLoaded is called when LoadState has finished.
	OnStateLoaded()

	// OnTabRestored is called after each tab is restored.
	OnTabRestored(done, total int)
}

// NopObserver ignores every callback. Embed it to implement only some.
type NopObserver struct{}

func (NopObserver) OnDetailsRead(state.TabEntry, bool) {}
func (NopObserver) OnInitialized(int)                  {}
func (NopObserver) OnStateLoaded()                     {}
func (NopObserver) OnTabRestored(int, int)             {}

// pendingTab is a state file entry waiting to be restored.
type pendingTab struct {
	entry  state.TabEntry
	index  int // position in its list when saved
	active bool
}

// Store persists and restores the tabs of one window.
type Store struct {
	policy   *policy.TabbedPolicy
	files    state.StateStore
	selector tabmodel.Restorer
	ids      *tabid.Allocator

	log         *zap.Logger
	metrics     *metrics.Metrics
	observer    Observer
	clock       clock.Clock
	concurrency int
	activeFirst bool
	instance    string

	mu            sync.Mutex
	loaded        bool
	pending       []pendingTab
	loadedIDs     []int
	restoredCount int
	saveQueue     []int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock sets the clock used to time restores.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithRestoreConcurrency bounds parallel tab file reads. Values below 1 are
// ignored.
func WithRestoreConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithActiveTabFirst restores each list's active tab before the others.
func WithActiveTabFirst(enabled bool) Option {
	return func(s *Store) { s.activeFirst = enabled }
}

// New creates a Store for the window of p and schedules migration if p is the
// triggering window. It does not block.
func New(p *policy.TabbedPolicy, sel tabmodel.Restorer, ids *tabid.Allocator, opts ...Option) *Store {
	s := &Store{
		policy:      p,
		files:       p.Store(),
		selector:    sel,
		ids:         ids,
		observer:    NopObserver{},
		clock:       &clock.RealClock{},
		concurrency: DefaultRestoreConcurrency,
		activeFirst: true,
		instance:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.Component(s.log, "persist").With(
		zap.Int("window", p.Index()),
		zap.String("instance", s.instance),
	)

	p.PerformInitialization()
	return s
}

// InstanceID identifies this Store in logs.
func (s *Store) InstanceID() string {
	return s.instance
}

// WindowIndex returns the window this Store persists.
func (s *Store) WindowIndex() int {
	return s.policy.Index()
}

// WaitForMigrationToFinish blocks until a started migration has completed.
// It returns at once if none was started or it already finished.
func (s *Store) WaitForMigrationToFinish() {
	s.policy.WaitForMigration()
}

// RestoredTabCount returns the number of tabs this window's state file listed
// for restoration, after incognito filtering.
func (s *Store) RestoredTabCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoredCount
}

// LoadedTabIDs returns the ids listed in this window's state file, in file
// order, including skipped incognito tabs.
func (s *Store) LoadedTabIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.loadedIDs...)
}

// PendingCount returns the number of tabs queued but not yet restored.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
