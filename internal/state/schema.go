package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentVersion is the state file format version written by this package.
const CurrentVersion = 1

// NoActiveIndex marks a model with no active tab.
const NoActiveIndex = -1

// ErrMalformedState indicates a state file that exists but cannot be decoded.
var ErrMalformedState = errors.New("malformed state file")

// WindowState is the decoded state file of one window.
type WindowState struct {
	// Version is the format version
	Version int `json:"version"`

	// ActiveIndex is the position of the active tab among the regular tabs
	ActiveIndex int `json:"activeIndex"`

	// ActiveIncognitoIndex is the position of the active tab among the incognito tabs
	ActiveIncognitoIndex int `json:"activeIncognitoIndex"`

	// Tabs lists every tab in save order
	Tabs []TabEntry `json:"tabs"`
}

// TabEntry describes one tab listed in a state file.
type TabEntry struct {
	// ID is the tab id, unique across all windows
	ID int `json:"id"`

	// Incognito marks a private tab
	Incognito bool `json:"incognito"`

	// URL is the last committed URL, used when the tab file is unavailable
	URL string `json:"url,omitempty"`
}

// NewWindowState creates an empty WindowState.
func NewWindowState() *WindowState {
	return &WindowState{
		Version:              CurrentVersion,
		ActiveIndex:          NoActiveIndex,
		ActiveIncognitoIndex: NoActiveIndex,
		Tabs:                 []TabEntry{},
	}
}

// MaxID returns the largest tab id listed, or -1 if there are none.
func (w *WindowState) MaxID() int {
	max := -1
	for _, tab := range w.Tabs {
		if tab.ID > max {
			max = tab.ID
		}
	}
	return max
}

// Count returns the number of regular and incognito tabs.
func (w *WindowState) Count() (regular, incognito int) {
	for _, tab := range w.Tabs {
		if tab.Incognito {
			incognito++
		} else {
			regular++
		}
	}
	return regular, incognito
}

// Encode serializes the state. The output is deterministic for equal input.
func (w *WindowState) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal window state: %w", err)
	}
	return data, nil
}

// Decode parses state file bytes. Anything that is not a supported
// WindowState yields an error wrapping ErrMalformedState.
func Decode(data []byte) (*WindowState, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedState)
	}

	var w WindowState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if w.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedState, w.Version)
	}
	for _, tab := range w.Tabs {
		if tab.ID < 0 {
			return nil, fmt.Errorf("%w: negative tab id %d", ErrMalformedState, tab.ID)
		}
	}
	if w.Tabs == nil {
		w.Tabs = []TabEntry{}
	}
	return &w, nil
}
