// Package tabmodel defines the tab collection contract the persistent store
// consumes, plus an in-memory implementation.
//
// A Selector groups tab lists (one regular, one incognito). The store only
// enumerates lists and tabs to serialize them and appends tabs back on
// restore; everything else about tabs is the owner's business.
package tabmodel

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateTab is returned when restoring or adding a tab whose id is
// already present.
var ErrDuplicateTab = errors.New("duplicate tab id")

// Tab is one open tab.
type Tab interface {
	ID() int
	IsIncognito() bool
	URL() string
	// State returns the serialized navigation state, or nil if none.
	State() []byte
}

// TabList is an ordered list of tabs of one kind.
type TabList interface {
	IsIncognito() bool
	Count() int
	TabAt(i int) Tab
	// ActiveIndex returns the position of the active tab, or -1.
	ActiveIndex() int
}

// Selector enumerates the tab lists of one window.
type Selector interface {
	Models() []TabList
	TabByID(id int) (Tab, bool)
}

// RestoredTab carries one tab back from disk into a Selector.
type RestoredTab struct {
	ID        int
	Incognito bool
	URL       string
	// State is nil when the tab file was missing or unreadable.
	State []byte
	// Index is the tab's position in its list when saved. Tabs may be
	// restored in any order; the list keeps them sorted by Index.
	Index int
	// Active marks the tab that was active in its list when saved.
	Active bool
}

// Restorer is a Selector that accepts restored tabs.
type Restorer interface {
	Selector
	RestoreTab(tab RestoredTab) error
}

// MemoryTab is a Tab held in memory.
type MemoryTab struct {
	id        int
	incognito bool
	url       string
	state     []byte
	order     int
}

// NewTab creates a MemoryTab.
func NewTab(id int, incognito bool, url string, state []byte) *MemoryTab {
	return &MemoryTab{id: id, incognito: incognito, url: url, state: state}
}

func (t *MemoryTab) ID() int           { return t.id }
func (t *MemoryTab) IsIncognito() bool { return t.incognito }
func (t *MemoryTab) URL() string       { return t.url }
func (t *MemoryTab) State() []byte     { return t.state }

// MemoryList is a TabList held in memory.
type MemoryList struct {
	incognito bool
	tabs      []*MemoryTab
	active    int
}

func (l *MemoryList) IsIncognito() bool { return l.incognito }
func (l *MemoryList) Count() int        { return len(l.tabs) }
func (l *MemoryList) TabAt(i int) Tab   { return l.tabs[i] }
func (l *MemoryList) ActiveIndex() int  { return l.active }

// MemorySelector is a Restorer held in memory. Models returns the regular
// list first. It is safe for concurrent use; the lists it returns are
// snapshots.
type MemorySelector struct {
	mu        sync.RWMutex
	regular   *MemoryList
	incognito *MemoryList
}

// NewMemorySelector creates an empty MemorySelector.
func NewMemorySelector() *MemorySelector {
	return &MemorySelector{
		regular:   &MemoryList{active: -1},
		incognito: &MemoryList{incognito: true, active: -1},
	}
}

// IDSource mints tab ids.
type IDSource interface {
	GenerateValidID(currentMax int) (int, error)
}

// NewPopulatedSelector creates a selector with the given number of regular and
// incognito tabs, taking ids from ids. The first tab of each list is active.
func NewPopulatedSelector(ids IDSource, regular, incognito int) (*MemorySelector, error) {
	s := NewMemorySelector()
	for i := 0; i < regular+incognito; i++ {
		id, err := ids.GenerateValidID(-1)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate tab id: %w", err)
		}
		isIncognito := i >= regular
		url := fmt.Sprintf("about:blank#%d", id)
		if err := s.AddTab(NewTab(id, isIncognito, url, nil)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemorySelector) list(incognito bool) *MemoryList {
	if incognito {
		return s.incognito
	}
	return s.regular
}

// Models returns snapshots of the regular and incognito lists, in that order.
func (s *MemorySelector) Models() []TabList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []TabList{snapshot(s.regular), snapshot(s.incognito)}
}

func snapshot(l *MemoryList) *MemoryList {
	tabs := make([]*MemoryTab, len(l.tabs))
	copy(tabs, l.tabs)
	return &MemoryList{incognito: l.incognito, tabs: tabs, active: l.active}
}

// TabByID finds a tab in either list.
func (s *MemorySelector) TabByID(id int) (Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(id)
}

func (s *MemorySelector) findLocked(id int) (*MemoryTab, bool) {
	for _, l := range []*MemoryList{s.regular, s.incognito} {
		for _, t := range l.tabs {
			if t.id == id {
				return t, true
			}
		}
	}
	return nil, false
}

// AddTab appends a tab to its list. The first tab added to an empty list
// becomes active.
func (s *MemorySelector) AddTab(tab *MemoryTab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findLocked(tab.id); ok {
		return fmt.Errorf("%w: %d", ErrDuplicateTab, tab.id)
	}
	l := s.list(tab.incognito)
	tab.order = 0
	if n := len(l.tabs); n > 0 {
		tab.order = l.tabs[n-1].order + 1
	}
	l.insert(len(l.tabs), tab)
	return nil
}

// RestoreTab inserts a restored tab at its saved position relative to the
// tabs already restored, making it active if it was active when saved.
func (s *MemorySelector) RestoreTab(tab RestoredTab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findLocked(tab.ID); ok {
		return fmt.Errorf("%w: %d", ErrDuplicateTab, tab.ID)
	}
	l := s.list(tab.Incognito)
	t := NewTab(tab.ID, tab.Incognito, tab.URL, tab.State)
	t.order = tab.Index

	pos := len(l.tabs)
	for i, existing := range l.tabs {
		if existing.order > t.order {
			pos = i
			break
		}
	}
	l.insert(pos, t)
	if tab.Active {
		l.active = pos
	}
	return nil
}

// insert places tab at pos, keeping the active tab active.
func (l *MemoryList) insert(pos int, tab *MemoryTab) {
	l.tabs = append(l.tabs, nil)
	copy(l.tabs[pos+1:], l.tabs[pos:])
	l.tabs[pos] = tab
	switch {
	case l.active < 0:
		l.active = 0
	case l.active >= pos:
		l.active++
	}
}

// CloseTab removes a tab and returns it.
func (s *MemorySelector) CloseTab(id int) (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range []*MemoryList{s.regular, s.incognito} {
		for i, t := range l.tabs {
			if t.id != id {
				continue
			}
			l.tabs = append(l.tabs[:i], l.tabs[i+1:]...)
			switch {
			case len(l.tabs) == 0:
				l.active = -1
			case l.active > i || l.active >= len(l.tabs):
				l.active--
			}
			return t, true
		}
	}
	return nil, false
}

// Count returns the number of regular and incognito tabs.
func (s *MemorySelector) Count() (regular, incognito int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.regular.tabs), len(s.incognito.tabs)
}

// MaxID returns the largest tab id held, or -1.
func MaxID(sel Selector) int {
	max := -1
	for _, l := range sel.Models() {
		for i := 0; i < l.Count(); i++ {
			if id := l.TabAt(i).ID(); id > max {
				max = id
			}
		}
	}
	return max
}
