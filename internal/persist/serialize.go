package persist

import (
	"github.com/danieljhkim/tabvault/internal/state"
	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

// SerializeSelector encodes the tabs of sel as state file bytes. Tabs are
// listed model by model, each in list order. It touches no files.
func SerializeSelector(sel tabmodel.Selector) ([]byte, error) {
	return windowState(sel).Encode()
}

// windowState builds the state of sel. When several lists share a kind their
// tabs are concatenated and the first active tab of that kind wins.
func windowState(sel tabmodel.Selector) *state.WindowState {
	ws := state.NewWindowState()
	var regular, incognito int

	for _, list := range sel.Models() {
		offset := regular
		if list.IsIncognito() {
			offset = incognito
		}
		if active := list.ActiveIndex(); active >= 0 && active < list.Count() {
			if list.IsIncognito() && ws.ActiveIncognitoIndex == state.NoActiveIndex {
				ws.ActiveIncognitoIndex = offset + active
			}
			if !list.IsIncognito() && ws.ActiveIndex == state.NoActiveIndex {
				ws.ActiveIndex = offset + active
			}
		}

		for i := 0; i < list.Count(); i++ {
			tab := list.TabAt(i)
			ws.Tabs = append(ws.Tabs, state.TabEntry{
				ID:        tab.ID(),
				Incognito: list.IsIncognito(),
				URL:       tab.URL(),
			})
		}
		if list.IsIncognito() {
			incognito += list.Count()
		} else {
			regular += list.Count()
		}
	}
	return ws
}
