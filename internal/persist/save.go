package persist

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/danieljhkim/tabvault/internal/state"
)

// AddTabToSaveQueue marks a tab whose tab file must be written on the next
// SaveState.
func (s *Store) AddTabToSaveQueue(tabID int) error {
	if _, ok := s.selector.TabByID(tabID); !ok {
		return fmt.Errorf("%w: %d", ErrTabNotFound, tabID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.saveQueue, tabID) {
		s.saveQueue = append(s.saveQueue, tabID)
	}
	return nil
}

// RemoveTabFromQueues forgets a closed tab and deletes its tab file.
func (s *Store) RemoveTabFromQueues(tabID int, incognito bool) error {
	s.mu.Lock()
	s.saveQueue = slices.DeleteFunc(s.saveQueue, func(id int) bool { return id == tabID })
	s.pending = slices.DeleteFunc(s.pending, func(p pendingTab) bool { return p.entry.ID == tabID })
	s.mu.Unlock()

	if err := s.files.DeleteTab(tabID, incognito); err != nil {
		return err
	}
	s.metrics.TabFileDeleted()
	return nil
}

// QueuedTabIDs returns the ids waiting for their tab file to be written.
func (s *Store) QueuedTabIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.saveQueue...)
}

// SaveState writes the queued tab files, then this window's state file.
// Tabs loaded but not yet restored are kept in the state file after the
// collection's own tabs. Saving before LoadState fails with ErrNotLoaded so
// an unread state file is never overwritten.
func (s *Store) SaveState() error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if !loaded {
		return ErrNotLoaded
	}

	if err := s.flushTabFiles(); err != nil {
		s.metrics.StateSave("error")
		return err
	}

	ws := windowState(s.selector)
	present := make(map[int]bool, len(ws.Tabs))
	for _, tab := range ws.Tabs {
		present[tab.ID] = true
	}
	s.mu.Lock()
	for _, p := range s.pending {
		if !present[p.entry.ID] {
			ws.Tabs = append(ws.Tabs, p.entry)
		}
	}
	s.mu.Unlock()

	data, err := ws.Encode()
	if err != nil {
		s.metrics.StateSave("error")
		return err
	}
	if err := s.files.WriteWindow(s.policy.Index(), data); err != nil {
		s.metrics.StateSave("error")
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.metrics.StateSave("ok")
	s.log.Debug("state saved", zap.Int("tabs", len(ws.Tabs)))
	return nil
}

// flushTabFiles writes the tab file of every queued tab still open. Written
// and vanished tabs leave the queue; failed ones stay for the next save.
func (s *Store) flushTabFiles() error {
	s.mu.Lock()
	queue := append([]int(nil), s.saveQueue...)
	s.mu.Unlock()

	done := make(map[int]bool, len(queue))
	var firstErr error
	for _, id := range queue {
		tab, ok := s.selector.TabByID(id)
		if !ok {
			done[id] = true
			continue
		}
		if err := s.files.WriteTab(id, tab.IsIncognito(), tab.State()); err != nil {
			s.log.Warn("failed to write tab file", zap.Int("tab", id), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.metrics.TabFileWritten()
		done[id] = true
	}

	s.mu.Lock()
	s.saveQueue = slices.DeleteFunc(s.saveQueue, func(id int) bool { return done[id] })
	s.mu.Unlock()

	if firstErr != nil {
		return fmt.Errorf("failed to save tab files: %w", firstErr)
	}
	return nil
}

// ClearState deletes this window's state file and the tab files it lists,
// and empties the queues.
func (s *Store) ClearState() error {
	index := s.policy.Index()

	ws, err := s.files.ReadWindow(index)
	switch {
	case err == nil:
		for _, tab := range ws.Tabs {
			if err := s.files.DeleteTab(tab.ID, tab.Incognito); err != nil {
				return err
			}
			s.metrics.TabFileDeleted()
		}
	case errors.Is(err, os.ErrNotExist), errors.Is(err, state.ErrMalformedState):
	default:
		return fmt.Errorf("failed to read state before clearing: %w", err)
	}

	if err := s.files.DeleteWindow(index); err != nil {
		return err
	}

	s.mu.Lock()
	s.pending = nil
	s.saveQueue = nil
	s.loadedIDs = nil
	s.restoredCount = 0
	s.mu.Unlock()

	s.log.Info("state cleared")
	return nil
}
