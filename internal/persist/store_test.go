package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/tabvault/internal/config"
	"github.com/danieljhkim/tabvault/internal/fsops"
	"github.com/danieljhkim/tabvault/internal/metrics"
	"github.com/danieljhkim/tabvault/internal/policy"
	"github.com/danieljhkim/tabvault/internal/prefs"
	"github.com/danieljhkim/tabvault/internal/state"
	"github.com/danieljhkim/tabvault/internal/tabid"
	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

type env struct {
	paths    config.Paths
	fs       *fsops.FaultFS
	prefs    prefs.Store
	metrics  *metrics.Metrics
	migrator *policy.Migrator
	ids      *tabid.Allocator
	files    *state.FileStateStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvAt(t, t.TempDir(), prefs.NewMemoryStore())
}

// newEnvAt simulates a fresh process over an existing root.
func newEnvAt(t *testing.T, root string, p prefs.Store) *env {
	t.Helper()
	paths := *config.NewPaths(root, "")
	fs := fsops.NewFaultFS(fsops.NewRealFS())
	m := metrics.New(prometheus.NewRegistry())
	return &env{
		paths:    paths,
		fs:       fs,
		prefs:    p,
		metrics:  m,
		migrator: policy.NewMigrator(fs, paths, p, policy.WithMetrics(m)),
		ids:      tabid.New(),
		files:    state.NewFileStateStore(fs, paths.State),
	}
}

func (e *env) newStore(t *testing.T, index int, sel tabmodel.Restorer, opts ...Option) *Store {
	t.Helper()
	p, err := policy.NewTabbedPolicy(index, 3, e.migrator)
	require.NoError(t, err)
	return New(p, sel, e.ids, append([]Option{WithMetrics(e.metrics)}, opts...)...)
}

func (e *env) writeWindow(t *testing.T, index int, sel tabmodel.Selector) {
	t.Helper()
	data, err := SerializeSelector(sel)
	require.NoError(t, err)
	require.NoError(t, e.files.WriteWindow(index, data))
}

func populated(t *testing.T, ids tabmodel.IDSource, regular, incognito int) *tabmodel.MemorySelector {
	t.Helper()
	sel, err := tabmodel.NewPopulatedSelector(ids, regular, incognito)
	require.NoError(t, err)
	return sel
}

func seeded(maxSeen int) *tabid.Allocator {
	a := tabid.New()
	a.Seed(maxSeen)
	return a
}

func tabExists(e *env, id int, incognito bool) bool {
	_, err := os.Stat(filepath.Join(e.paths.State, state.TabFileName(id, incognito)))
	return err == nil
}

func TestStore_FindsMaxIDAcrossWindows(t *testing.T) {
	e := newEnv(t)
	sel0 := populated(t, seeded(10), 1, 1) // ids 11, 12
	sel1 := populated(t, seeded(40), 1, 1) // ids 41, 42
	e.writeWindow(t, 0, sel0)
	e.writeWindow(t, 1, sel1)
	maxID := max(tabmodel.MaxID(sel0), tabmodel.MaxID(sel1))

	_, err := e.ids.GenerateValidID(tabid.InvalidTabID)
	require.ErrorIs(t, err, tabid.ErrNotSeeded)

	store := e.newStore(t, 0, tabmodel.NewMemorySelector())
	store.LoadState(false)

	id, err := e.ids.GenerateValidID(tabid.InvalidTabID)
	require.NoError(t, err)
	assert.Equal(t, maxID+1, id)

	id, err = e.ids.GenerateValidID(tabid.InvalidTabID)
	require.NoError(t, err)
	assert.Equal(t, maxID+2, id)
}

func TestStore_SeedsFromTabFilesAndPrefs(t *testing.T) {
	t.Run("orphan tab file", func(t *testing.T) {
		e := newEnv(t)
		e.writeWindow(t, 0, populated(t, seeded(-1), 2, 0))
		require.NoError(t, e.files.WriteTab(77, true, []byte("x")))

		e.newStore(t, 0, tabmodel.NewMemorySelector()).LoadState(false)

		id, err := e.ids.GenerateValidID(tabid.InvalidTabID)
		require.NoError(t, err)
		assert.Equal(t, 78, id)
	})

	t.Run("persisted counter", func(t *testing.T) {
		e := newEnv(t)
		require.NoError(t, e.prefs.SetInt(prefs.KeyNextTabID, 100))
		e.ids = tabid.New(tabid.WithCounterStore(tabid.PrefsCounter{Prefs: e.prefs}))

		e.newStore(t, 0, tabmodel.NewMemorySelector()).LoadState(false)

		id, err := e.ids.GenerateValidID(tabid.InvalidTabID)
		require.NoError(t, err)
		assert.Equal(t, 100, id)
		next, ok := e.prefs.Int(prefs.KeyNextTabID)
		assert.True(t, ok)
		assert.Equal(t, 101, next)
	})
}

func TestStore_LoadsOnlyOwnWindow(t *testing.T) {
	setup := func(t *testing.T) *env {
		e := newEnv(t)
		writer := seeded(-1)
		e.writeWindow(t, 0, populated(t, writer, 3, 3))
		e.writeWindow(t, 1, populated(t, writer, 2, 1))
		return e
	}

	t.Run("window 0 first", func(t *testing.T) {
		e := setup(t)
		s0 := e.newStore(t, 0, tabmodel.NewMemorySelector())
		s1 := e.newStore(t, 1, tabmodel.NewMemorySelector())
		s0.LoadState(false)
		s1.LoadState(false)

		assert.Equal(t, 6, s0.RestoredTabCount())
		assert.Equal(t, 3, s1.RestoredTabCount())
	})

	t.Run("window 1 first", func(t *testing.T) {
		e := setup(t)
		s1 := e.newStore(t, 1, tabmodel.NewMemorySelector())
		s1.LoadState(false)
		s0 := e.newStore(t, 0, tabmodel.NewMemorySelector())
		s0.LoadState(false)

		assert.Equal(t, 3, s1.RestoredTabCount())
		assert.Equal(t, 6, s0.RestoredTabCount())
		assert.Equal(t, []int{6, 7, 8}, s1.LoadedTabIDs())
	})
}

func TestStore_IgnoreIncognito(t *testing.T) {
	e := newEnv(t)
	writer := seeded(-1)
	sel0 := populated(t, writer, 3, 3) // regular 0-2, incognito 3-5
	sel1 := populated(t, writer, 2, 1) // regular 6-7, incognito 8
	e.writeWindow(t, 0, sel0)
	e.writeWindow(t, 1, sel1)
	for id := 0; id <= 8; id++ {
		incognito := (id >= 3 && id <= 5) || id == 8
		require.NoError(t, e.files.WriteTab(id, incognito, []byte("blob")))
	}

	s0 := e.newStore(t, 0, tabmodel.NewMemorySelector())
	s0.LoadState(true)
	assert.Equal(t, 3, s0.RestoredTabCount())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, s0.LoadedTabIDs())

	for id := 3; id <= 5; id++ {
		assert.False(t, tabExists(e, id, true), "incognito tab %d file should be deleted", id)
	}
	for id := 0; id <= 2; id++ {
		assert.True(t, tabExists(e, id, false), "regular tab %d file should stay", id)
	}
	// Another window's incognito files are not touched.
	assert.True(t, tabExists(e, 8, true))

	s1 := e.newStore(t, 1, tabmodel.NewMemorySelector())
	s1.LoadState(true)
	assert.Equal(t, 2, s1.RestoredTabCount())

	assert.Equal(t, 4.0, testutil.ToFloat64(e.metrics.TabsDiscovered.WithLabelValues("incognito", "skipped")))
	assert.Equal(t, 5.0, testutil.ToFloat64(e.metrics.TabsDiscovered.WithLabelValues("regular", "queued")))
}

func TestStore_LoadStateFailuresLeaveWindowEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		outcome string
	}{
		{"missing", nil, metrics.LoadMissing},
		{"garbage", []byte("not json"), metrics.LoadMalformed},
		{"empty", []byte{}, metrics.LoadMalformed},
		{"future version", []byte(`{"version":9,"tabs":[]}`), metrics.LoadMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			if tt.content != nil {
				require.NoError(t, os.MkdirAll(e.paths.State, 0755))
				require.NoError(t, os.WriteFile(filepath.Join(e.paths.State, state.StateFileName(0)), tt.content, 0644))
			}

			sel := tabmodel.NewMemorySelector()
			store := e.newStore(t, 0, sel)
			store.LoadState(false)

			assert.Equal(t, 0, store.RestoredTabCount())
			assert.Empty(t, store.LoadedTabIDs())
			n, err := store.RestoreTabs(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, n)
			assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.StateLoads.WithLabelValues(tt.outcome)))

			// The allocator is usable after a failed load.
			_, err = e.ids.GenerateValidID(tabid.InvalidTabID)
			assert.NoError(t, err)
		})
	}
}

type recordingSelector struct {
	*tabmodel.MemorySelector
	mu    sync.Mutex
	order []int
}

func (r *recordingSelector) RestoreTab(tab tabmodel.RestoredTab) error {
	r.mu.Lock()
	r.order = append(r.order, tab.ID)
	r.mu.Unlock()
	return r.MemorySelector.RestoreTab(tab)
}

type recordingObserver struct {
	NopObserver
	mu          sync.Mutex
	details     []int
	activeID    int
	initialized int
	loaded      bool
	progress    [][2]int
}

func (o *recordingObserver) OnDetailsRead(tab state.TabEntry, isStandardActiveIndex bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.details = append(o.details, tab.ID)
	if isStandardActiveIndex {
		o.activeID = tab.ID
	}
}

func (o *recordingObserver) OnInitialized(n int) { o.initialized = n }
func (o *recordingObserver) OnStateLoaded()      { o.loaded = true }

func (o *recordingObserver) OnTabRestored(done, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, [2]int{done, total})
}

// savedWindow writes a window with regular tabs 0-2 (1 active) and incognito
// tabs 3-4 (3 active). Tabs 2 and 4 have no tab file.
func savedWindow(t *testing.T, e *env) {
	t.Helper()
	sel := tabmodel.NewMemorySelector()
	for _, rt := range []tabmodel.RestoredTab{
		{ID: 0, URL: "https://a.example", Index: 0},
		{ID: 1, URL: "https://b.example", Index: 1, Active: true},
		{ID: 2, URL: "https://c.example", Index: 2},
		{ID: 3, Incognito: true, URL: "https://d.example", Index: 0, Active: true},
		{ID: 4, Incognito: true, URL: "https://e.example", Index: 1},
	} {
		require.NoError(t, sel.RestoreTab(rt))
	}
	e.writeWindow(t, 0, sel)
	for _, id := range []int{0, 1, 3} {
		require.NoError(t, e.files.WriteTab(id, id == 3, []byte(fmt.Sprintf("state-%d", id))))
	}
}

func ids(l tabmodel.TabList) []int {
	out := []int{}
	for i := 0; i < l.Count(); i++ {
		out = append(out, l.TabAt(i).ID())
	}
	return out
}

func TestStore_RestoreTabs(t *testing.T) {
	e := newEnv(t)
	savedWindow(t, e)

	sel := &recordingSelector{MemorySelector: tabmodel.NewMemorySelector()}
	obs := &recordingObserver{activeID: -1}
	store := e.newStore(t, 0, sel, WithObserver(obs), WithRestoreConcurrency(2))
	store.LoadState(false)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, obs.details)
	assert.Equal(t, 1, obs.activeID)
	assert.Equal(t, 5, obs.initialized)
	assert.True(t, obs.loaded)
	assert.Equal(t, 5, store.PendingCount())

	n, err := store.RestoreTabs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, store.PendingCount())
	assert.Equal(t, 5, store.RestoredTabCount())

	assert.Equal(t, []int{1, 3, 0, 2, 4}, sel.order)
	assert.Equal(t, [][2]int{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5}}, obs.progress)

	models := sel.Models()
	assert.Equal(t, []int{0, 1, 2}, ids(models[0]))
	assert.Equal(t, 1, models[0].ActiveIndex())
	assert.Equal(t, []int{3, 4}, ids(models[1]))
	assert.Equal(t, 0, models[1].ActiveIndex())

	tab, ok := sel.TabByID(1)
	require.True(t, ok)
	assert.Equal(t, "state-1", string(tab.State()))
	assert.Equal(t, "https://b.example", tab.URL())

	tab, ok = sel.TabByID(2)
	require.True(t, ok)
	assert.Nil(t, tab.State())
	assert.Equal(t, "https://c.example", tab.URL())

	assert.Equal(t, 3.0, testutil.ToFloat64(e.metrics.TabsRestored.WithLabelValues("file")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.TabsRestored.WithLabelValues("url")))
	assert.Equal(t, 1, testutil.CollectAndCount(e.metrics.RestoreDuration))
}

func TestStore_RestoreTabsInSavedOrder(t *testing.T) {
	e := newEnv(t)
	savedWindow(t, e)

	sel := &recordingSelector{MemorySelector: tabmodel.NewMemorySelector()}
	store := e.newStore(t, 0, sel, WithActiveTabFirst(false))
	store.LoadState(false)
	_, err := store.RestoreTabs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, sel.order)
	assert.Equal(t, 1, sel.Models()[0].ActiveIndex())
}

func TestStore_RestoreTabsSkipsDuplicates(t *testing.T) {
	e := newEnv(t)
	savedWindow(t, e)

	sel := tabmodel.NewMemorySelector()
	require.NoError(t, sel.AddTab(tabmodel.NewTab(2, false, "https://open.example", nil)))
	store := e.newStore(t, 0, sel)
	store.LoadState(false)

	n, err := store.RestoreTabs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 0, store.PendingCount())
}

func TestStore_RestoreTabsBeforeLoad(t *testing.T) {
	e := newEnv(t)
	store := e.newStore(t, 0, tabmodel.NewMemorySelector())

	_, err := store.RestoreTabs(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestStore_RestoreTabsCancelled(t *testing.T) {
	e := newEnv(t)
	savedWindow(t, e)

	sel := tabmodel.NewMemorySelector()
	store := e.newStore(t, 0, sel)
	store.LoadState(false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := store.RestoreTabs(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)
	assert.Equal(t, 5, store.PendingCount())
	regular, incognito := sel.Count()
	assert.Zero(t, regular+incognito)

	// Unrestored entries survive a save.
	require.NoError(t, store.SaveState())
	ws, err := e.files.ReadWindow(0)
	require.NoError(t, err)
	assert.Len(t, ws.Tabs, 5)
}

func TestStore_SaveStateBeforeLoad(t *testing.T) {
	e := newEnv(t)
	savedWindow(t, e)
	before, err := e.files.ReadWindow(0)
	require.NoError(t, err)

	sel := tabmodel.NewMemorySelector()
	store := e.newStore(t, 0, sel)
	require.NoError(t, sel.AddTab(tabmodel.NewTab(40, false, "https://new.example", nil)))
	require.NoError(t, store.AddTabToSaveQueue(40))

	assert.ErrorIs(t, store.SaveState(), ErrNotLoaded)

	after, err := e.files.ReadWindow(0)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []int{40}, store.QueuedTabIDs())
}

func TestStore_SaveAndReload(t *testing.T) {
	root := t.TempDir()
	p := prefs.NewMemoryStore()
	e := newEnvAt(t, root, p)

	sel := tabmodel.NewMemorySelector()
	store := e.newStore(t, 0, sel)
	store.LoadState(false)

	var opened []int
	for i := 0; i < 4; i++ {
		id, err := e.ids.GenerateValidID(tabid.InvalidTabID)
		require.NoError(t, err)
		incognito := i == 3
		require.NoError(t, sel.AddTab(tabmodel.NewTab(id, incognito, fmt.Sprintf("https://%d.example", id), []byte(fmt.Sprintf("nav-%d", id)))))
		require.NoError(t, store.AddTabToSaveQueue(id))
		opened = append(opened, id)
	}
	require.NoError(t, store.AddTabToSaveQueue(opened[0]))
	assert.Len(t, store.QueuedTabIDs(), 4)

	require.NoError(t, store.SaveState())
	assert.Empty(t, store.QueuedTabIDs())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.StateSaves.WithLabelValues("ok")))
	assert.Equal(t, 4.0, testutil.ToFloat64(e.metrics.TabFilesWritten))

	// Restart
	e2 := newEnvAt(t, root, p)
	sel2 := tabmodel.NewMemorySelector()
	store2 := e2.newStore(t, 0, sel2)
	store2.LoadState(false)
	assert.Equal(t, opened, store2.LoadedTabIDs())

	n, err := store2.RestoreTabs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	for _, id := range opened {
		tab, ok := sel2.TabByID(id)
		require.True(t, ok, "tab %d", id)
		assert.Equal(t, fmt.Sprintf("https://%d.example", id), tab.URL())
		assert.Equal(t, fmt.Sprintf("nav-%d", id), string(tab.State()))
	}
	assert.True(t, sel2.Models()[1].TabAt(0).IsIncognito())

	next, err := e2.ids.GenerateValidID(tabid.InvalidTabID)
	require.NoError(t, err)
	assert.Equal(t, opened[len(opened)-1]+1, next)
}

func TestStore_SaveKeepsUnrestoredTabs(t *testing.T) {
	e := newEnv(t)
	savedWindow(t, e)

	sel := tabmodel.NewMemorySelector()
	store := e.newStore(t, 0, sel)
	store.LoadState(false)

	require.NoError(t, sel.AddTab(tabmodel.NewTab(9, false, "https://new.example", nil)))
	require.NoError(t, store.SaveState())

	ws, err := e.files.ReadWindow(0)
	require.NoError(t, err)
	got := []int{}
	for _, tab := range ws.Tabs {
		got = append(got, tab.ID)
	}
	assert.Equal(t, []int{9, 0, 1, 2, 3, 4}, got)
}

func TestStore_SaveStateWriteFailure(t *testing.T) {
	e := newEnv(t)
	sel := tabmodel.NewMemorySelector()
	store := e.newStore(t, 0, sel)
	store.LoadState(false)

	require.NoError(t, sel.AddTab(tabmodel.NewTab(1, false, "u", []byte("s"))))
	require.NoError(t, store.AddTabToSaveQueue(1))

	e.fs.FailWrite(state.TabFileName(1, false), errors.New("disk full"))
	assert.Error(t, store.SaveState())
	assert.Equal(t, []int{1}, store.QueuedTabIDs())

	e.fs.FailWrite(state.StateFileName(0), errors.New("disk full"))
	e.fs.FailWrite(state.TabFileName(1, false), nil)
	assert.Error(t, store.SaveState())
	assert.Equal(t, 2.0, testutil.ToFloat64(e.metrics.StateSaves.WithLabelValues("error")))
}

func TestStore_AddTabToSaveQueueUnknownTab(t *testing.T) {
	e := newEnv(t)
	store := e.newStore(t, 0, tabmodel.NewMemorySelector())

	err := store.AddTabToSaveQueue(42)
	assert.ErrorIs(t, err, ErrTabNotFound)
	assert.Empty(t, store.QueuedTabIDs())
}

func TestStore_RemoveTabFromQueues(t *testing.T) {
	e := newEnv(t)
	savedWindow(t, e)

	sel := tabmodel.NewMemorySelector()
	store := e.newStore(t, 0, sel)
	store.LoadState(false)

	require.NoError(t, store.RemoveTabFromQueues(3, true))
	assert.False(t, tabExists(e, 3, true))
	assert.Equal(t, 4, store.PendingCount())

	// Removing a tab without a file is fine.
	require.NoError(t, store.RemoveTabFromQueues(2, false))

	n, err := store.RestoreTabs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, ok := sel.TabByID(3)
	assert.False(t, ok)
}

func TestStore_ClearState(t *testing.T) {
	e := newEnv(t)
	savedWindow(t, e)
	require.NoError(t, e.files.WriteTab(50, false, []byte("other window")))

	store := e.newStore(t, 0, tabmodel.NewMemorySelector())
	store.LoadState(false)
	require.NoError(t, store.ClearState())

	_, err := e.files.ReadWindow(0)
	assert.ErrorIs(t, err, os.ErrNotExist)
	for _, id := range []int{0, 1} {
		assert.False(t, tabExists(e, id, false))
	}
	assert.False(t, tabExists(e, 3, true))
	assert.True(t, tabExists(e, 50, false))
	assert.Equal(t, 0, store.RestoredTabCount())
	assert.Equal(t, 0, store.PendingCount())

	// Clearing again is a no-op.
	assert.NoError(t, store.ClearState())
}

func TestStore_MigratesLegacyLayoutOnConstruction(t *testing.T) {
	e := newEnv(t)
	legacy := populated(t, seeded(-1), 2, 1)
	data, err := SerializeSelector(legacy)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.paths.Legacy, state.LegacyStateFileName), data, 0644))
	for id, incognito := range map[int]bool{0: false, 1: false, 2: true} {
		require.NoError(t, os.WriteFile(filepath.Join(e.paths.Legacy, state.TabFileName(id, incognito)), []byte("old"), 0600))
	}

	// A sibling window constructed first does not schedule the migration,
	// but waiting on it runs the pass before the window touches the state dir.
	s1 := e.newStore(t, 1, tabmodel.NewMemorySelector())
	assert.False(t, e.prefs.Bool(prefs.KeyHasRunFileMigration, false))
	s1.WaitForMigrationToFinish()
	assert.True(t, e.prefs.Bool(prefs.KeyHasRunFileMigration, false))
	assert.NoFileExists(t, filepath.Join(e.paths.Legacy, state.LegacyStateFileName))

	sel := tabmodel.NewMemorySelector()
	s0 := e.newStore(t, 0, sel)
	s0.WaitForMigrationToFinish()

	s0.LoadState(false)
	assert.Equal(t, 3, s0.RestoredTabCount())
	n, err := s0.RestoreTabs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tab, ok := sel.TabByID(2)
	require.True(t, ok)
	assert.Equal(t, "old", string(tab.State()))

	s1.LoadState(false)
	assert.Equal(t, 0, s1.RestoredTabCount())
}

func TestStore_ConcurrentWindows(t *testing.T) {
	e := newEnv(t)
	writer := seeded(-1)
	e.writeWindow(t, 0, populated(t, writer, 2, 2))
	e.writeWindow(t, 1, populated(t, writer, 1, 0))
	e.writeWindow(t, 2, populated(t, writer, 3, 1))
	maxID := writer.MaxSeen()

	stores := make([]*Store, 3)
	for i := range stores {
		stores[i] = e.newStore(t, i, tabmodel.NewMemorySelector())
	}

	var wg sync.WaitGroup
	for _, s := range stores {
		wg.Add(1)
		go func(s *Store) {
			defer wg.Done()
			s.LoadState(false)
			_, err := s.RestoreTabs(context.Background())
			assert.NoError(t, err)
		}(s)
	}
	wg.Wait()

	assert.Equal(t, 4, stores[0].RestoredTabCount())
	assert.Equal(t, 1, stores[1].RestoredTabCount())
	assert.Equal(t, 4, stores[2].RestoredTabCount())

	seen := map[int]bool{}
	for i := 0; i < 10; i++ {
		id, err := e.ids.GenerateValidID(tabid.InvalidTabID)
		require.NoError(t, err)
		assert.Greater(t, id, maxID)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestStore_InstanceIDs(t *testing.T) {
	e := newEnv(t)
	a := e.newStore(t, 0, tabmodel.NewMemorySelector())
	b := e.newStore(t, 1, tabmodel.NewMemorySelector())

	assert.NotEmpty(t, a.InstanceID())
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
	assert.Equal(t, 1, b.WindowIndex())
}
