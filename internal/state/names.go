package state

import (
	"strconv"
	"strings"
)

const (
	// LegacyStateFileName is the single state file of the pre-migration layout.
	LegacyStateFileName = "tab_state"

	// StateFilePrefix prefixes every current-layout state file; the window
	// index follows in decimal.
	StateFilePrefix = "tab_state"

	// RegularTabPrefix prefixes the tab file of a regular tab.
	RegularTabPrefix = "tab"

	// IncognitoTabPrefix prefixes the tab file of an incognito tab.
	IncognitoTabPrefix = "cryptonito"
)

// StateFileName returns the state file name for a window index.
func StateFileName(index int) string {
	return StateFilePrefix + strconv.Itoa(index)
}

// ParseStateFileName returns the window index encoded in a current-layout
// state file name.
func ParseStateFileName(name string) (int, bool) {
	suffix, ok := strings.CutPrefix(name, StateFilePrefix)
	if !ok {
		return 0, false
	}
	return parseDecimal(suffix)
}

// TabFileName returns the tab file name for a tab id.
func TabFileName(id int, incognito bool) string {
	if incognito {
		return IncognitoTabPrefix + strconv.Itoa(id)
	}
	return RegularTabPrefix + strconv.Itoa(id)
}

// ParseTabFileName returns the tab id and kind encoded in a tab file name.
// Only a known prefix followed by a plain decimal id is accepted.
func ParseTabFileName(name string) (id int, incognito bool, ok bool) {
	if suffix, found := strings.CutPrefix(name, IncognitoTabPrefix); found {
		id, ok = parseDecimal(suffix)
		return id, true, ok
	}
	if suffix, found := strings.CutPrefix(name, RegularTabPrefix); found {
		id, ok = parseDecimal(suffix)
		return id, false, ok
	}
	return 0, false, false
}

// IsLegacyFile reports whether name is a file the legacy layout migration moves.
func IsLegacyFile(name string) bool {
	if name == LegacyStateFileName {
		return true
	}
	_, _, ok := ParseTabFileName(name)
	return ok
}

// IsStateOrTabFile reports whether name is a current-layout state file or a
// tab file.
func IsStateOrTabFile(name string) bool {
	if _, ok := ParseStateFileName(name); ok {
		return true
	}
	_, _, ok := ParseTabFileName(name)
	return ok
}

// parseDecimal accepts only canonical ASCII decimals, rejecting signs, spaces,
// leading zeros and overflow.
func parseDecimal(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	// tab07 would never be found again under TabFileName(7).
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
