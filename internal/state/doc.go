// Package state manages the on-disk tab state of each window.
//
// Every window owns one state file, a JSON manifest listing the tabs it had
// open (regular and incognito), which tab was active, and the URL of each tab
// so it can be restored without its navigation blob. Each tab additionally
// owns a tab file holding its serialized navigation state, which this package
// treats as opaque bytes.
//
// Key concepts:
//   - WindowState: the decoded state file of one window
//   - TabEntry: one tab listed in a state file
//   - Naming: StateFileName, TabFileName and their parsers define which file
//     names belong to tabvault and which window or tab they describe
//   - StateStore: interface for reading and writing state files and tab files
package state
