package persist

import (
	"context"
	"errors"
	"os"
	"slices"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/danieljhkim/tabvault/internal/clock"
	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

// RestoreTabs restores the tabs queued by LoadState into the tab collection
// and returns how many were restored.
//
// Tab files are read with bounded concurrency; a missing or unreadable tab
// file restores the tab from its URL alone. Tabs are handed to the collection
// in saved order, except that each list's active tab goes first when
// active-tab-first is enabled.
func (s *Store) RestoreTabs(ctx context.Context) (int, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return 0, ErrNotLoaded
	}
	order := s.restoreOrder(s.pending)
	s.mu.Unlock()

	start := s.clock.Now()
	blobs, err := s.readTabFiles(ctx, order)
	if err != nil {
		return 0, err
	}

	handled := make(map[int]bool, len(order))
	restored := 0
	for i, t := range order {
		if err := ctx.Err(); err != nil {
			s.dropPending(handled)
			return restored, err
		}
		handled[t.entry.ID] = true

		err := s.selector.RestoreTab(tabmodel.RestoredTab{
			ID:        t.entry.ID,
			Incognito: t.entry.Incognito,
			URL:       t.entry.URL,
			State:     blobs[i],
			Index:     t.index,
			Active:    t.active,
		})
		if err != nil {
			s.log.Warn("failed to restore tab", zap.Int("tab", t.entry.ID), zap.Error(err))
			continue
		}
		restored++

		source := "file"
		if blobs[i] == nil {
			source = "url"
		}
		s.metrics.TabRestored(source)
		s.observer.OnTabRestored(i+1, len(order))
	}

	s.dropPending(handled)
	s.metrics.ObserveRestore(clock.Since(s.clock, start))
	s.log.Info("tabs restored", zap.Int("restored", restored), zap.Int("queued", len(order)))
	return restored, nil
}

// restoreOrder returns a copy of pending with active tabs moved to the front
// when active-tab-first is enabled.
func (s *Store) restoreOrder(pending []pendingTab) []pendingTab {
	order := make([]pendingTab, 0, len(pending))
	if s.activeFirst {
		for _, p := range pending {
			if p.active {
				order = append(order, p)
			}
		}
	}
	for _, p := range pending {
		if !s.activeFirst || !p.active {
			order = append(order, p)
		}
	}
	return order
}

// readTabFiles reads the tab file of every tab in order. Slots stay nil for
// tabs without a readable file.
func (s *Store) readTabFiles(ctx context.Context, order []pendingTab) ([][]byte, error) {
	blobs := make([][]byte, len(order))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.concurrency)
	for i, t := range order {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := s.files.ReadTab(t.entry.ID, t.entry.Incognito)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					s.log.Warn("failed to read tab file", zap.Int("tab", t.entry.ID), zap.Error(err))
				}
				return nil
			}
			blobs[i] = data
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return blobs, nil
}

// dropPending removes handled tabs from the pending queue.
func (s *Store) dropPending(handled map[int]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = slices.DeleteFunc(s.pending, func(p pendingTab) bool {
		return handled[p.entry.ID]
	})
}
