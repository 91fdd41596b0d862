package persist

import (
	"errors"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/danieljhkim/tabvault/internal/metrics"
	"github.com/danieljhkim/tabvault/internal/state"
)

// scans collapses concurrent max-id scans of the same state directory.
var scans singleflight.Group

// LoadState waits for migration, seeds the id allocator, and reads this
// window's state file, queueing its tabs for restore. Incognito entries are
// skipped when ignoreIncognito is set and their tab files deleted.
//
// A missing or malformed state file leaves the window empty; nothing is
// returned because the window is usable either way.
func (s *Store) LoadState(ignoreIncognito bool) {
	s.WaitForMigrationToFinish()
	s.seedAllocator()

	index := s.policy.Index()
	ws, err := s.files.ReadWindow(index)
	switch {
	case err == nil:
		s.metrics.StateLoad(metrics.LoadOK)
	case errors.Is(err, os.ErrNotExist):
		s.metrics.StateLoad(metrics.LoadMissing)
		s.log.Debug("no state file, starting empty", zap.String("file", s.policy.StateFileName()))
	case errors.Is(err, state.ErrMalformedState):
		s.metrics.StateLoad(metrics.LoadMalformed)
		s.log.Warn("malformed state file, starting empty", zap.String("file", s.policy.StateFileName()), zap.Error(err))
	default:
		s.metrics.StateLoad(metrics.LoadIOError)
		s.log.Warn("failed to read state file, starting empty", zap.String("file", s.policy.StateFileName()), zap.Error(err))
	}
	if err != nil {
		ws = state.NewWindowState()
	}

	pending, loadedIDs, skipped := s.queue(ws, ignoreIncognito)
	for _, tab := range skipped {
		if err := s.files.DeleteTab(tab.ID, true); err != nil {
			s.log.Warn("failed to delete skipped incognito tab file", zap.Int("tab", tab.ID), zap.Error(err))
			continue
		}
		s.metrics.TabFileDeleted()
	}

	s.mu.Lock()
	s.loaded = true
	s.pending = pending
	s.loadedIDs = loadedIDs
	s.restoredCount = len(pending)
	s.mu.Unlock()

	for _, p := range pending {
		s.observer.OnDetailsRead(p.entry, p.active && !p.entry.Incognito)
	}
	s.observer.OnInitialized(len(pending))
	s.log.Info("state loaded",
		zap.Int("queued", len(pending)), zap.Int("skipped", len(skipped)))
	s.observer.OnStateLoaded()
}

// queue splits the entries of ws into tabs to restore and incognito tabs to
// drop.
func (s *Store) queue(ws *state.WindowState, ignoreIncognito bool) (pending []pendingTab, ids []int, skipped []state.TabEntry) {
	var regular, incognito int
	for _, tab := range ws.Tabs {
		ids = append(ids, tab.ID)

		index, active := regular, regular == ws.ActiveIndex
		if tab.Incognito {
			index, active = incognito, incognito == ws.ActiveIncognitoIndex
			incognito++
		} else {
			regular++
		}

		if tab.Incognito && ignoreIncognito {
			skipped = append(skipped, tab)
			s.metrics.TabDiscovered(true, "skipped")
			continue
		}
		pending = append(pending, pendingTab{entry: tab, index: index, active: active})
		s.metrics.TabDiscovered(tab.Incognito, "queued")
	}
	return pending, ids, skipped
}

// seedAllocator raises the allocator to the largest id found in any state
// file, any tab file name, or the legacy directory.
func (s *Store) seedAllocator() {
	key := s.files.Dir() + "|" + s.policy.LegacyDirectory()
	v, _, _ := scans.Do(key, func() (interface{}, error) {
		return s.scanMaxID(), nil
	})
	maxID := v.(int)
	s.ids.Seed(maxID)
	s.log.Debug("allocator seeded from disk", zap.Int("maxID", maxID))
}

// scanMaxID returns the largest tab id on disk, or -1. Unreadable files are
// logged and skipped.
func (s *Store) scanMaxID() int {
	maxID := -1
	raise := func(id int) {
		if id > maxID {
			maxID = id
		}
	}

	indices, err := s.files.WindowIndices()
	if err != nil {
		s.log.Warn("failed to list state files", zap.Error(err))
	}
	for _, i := range indices {
		ws, err := s.files.ReadWindow(i)
		if err != nil {
			s.log.Warn("failed to read state file for id scan", zap.Int("index", i), zap.Error(err))
			continue
		}
		raise(ws.MaxID())
	}

	tabs, err := s.files.TabFiles()
	if err != nil {
		s.log.Warn("failed to list tab files", zap.Error(err))
	}
	for _, f := range tabs {
		raise(f.ID)
	}

	legacy, err := s.policy.LegacyTabFiles()
	if err != nil {
		s.log.Warn("failed to list legacy tab files", zap.Error(err))
	}
	for _, f := range legacy {
		raise(f.ID)
	}
	return maxID
}
