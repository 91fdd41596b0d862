// Package metrics records diagnostic counters for migration, state loading,
// tab restoration and saving.
//
// Metrics are registered on a caller-supplied registry so several instances
// can coexist in one process (and in tests). A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Migration file outcomes.
const (
	FileMoved  = "moved"
	FileFailed = "failed"
)

// Migration run outcomes.
const (
	RunMigrated     = "migrated"
	RunSkippedExist = "skipped_existing"
	RunNothingToDo  = "nothing_to_do"
	RunAlreadyDone  = "already_done"
)

// Load outcomes.
const (
	LoadOK        = "ok"
	LoadMissing   = "missing"
	LoadMalformed = "malformed"
	LoadIOError   = "io_error"
)

// Metrics holds all tabvault collectors.
type Metrics struct {
	MigrationRuns   *prometheus.CounterVec
	MigrationFiles  *prometheus.CounterVec
	StateLoads      *prometheus.CounterVec
	TabsDiscovered  *prometheus.CounterVec
	TabsRestored    *prometheus.CounterVec
	RestoreDuration prometheus.Histogram
	StateSaves      *prometheus.CounterVec
	TabFilesWritten prometheus.Counter
	TabFilesDeleted prometheus.Counter
}

// New creates and registers collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MigrationRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabvault_migration_runs_total",
				Help: "Legacy layout migration decisions by outcome",
			},
			[]string{"outcome"},
		),
		MigrationFiles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabvault_migration_files_total",
				Help: "Legacy files processed by migration",
			},
			[]string{"result"},
		),
		StateLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabvault_state_loads_total",
				Help: "State file loads by outcome",
			},
			[]string{"outcome"},
		),
		TabsDiscovered: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabvault_tabs_discovered_total",
				Help: "Tab entries read from state files",
			},
			[]string{"kind", "decision"},
		),
		TabsRestored: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabvault_tabs_restored_total",
				Help: "Tabs restored into a window",
			},
			[]string{"source"},
		),
		RestoreDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tabvault_restore_duration_seconds",
				Help:    "Time to restore all tabs of a window",
				Buckets: prometheus.DefBuckets,
			},
		),
		StateSaves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tabvault_state_saves_total",
				Help: "State file writes by outcome",
			},
			[]string{"outcome"},
		),
		TabFilesWritten: f.NewCounter(
			prometheus.CounterOpts{
				Name: "tabvault_tab_files_written_total",
				Help: "Tab files written",
			},
		),
		TabFilesDeleted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "tabvault_tab_files_deleted_total",
				Help: "Tab files deleted",
			},
		),
	}
}

// Kind returns the label for a tab kind.
func Kind(incognito bool) string {
	if incognito {
		return "incognito"
	}
	return "regular"
}

func (m *Metrics) MigrationRun(outcome string) {
	if m == nil {
		return
	}
	m.MigrationRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) MigrationFile(result string) {
	if m == nil {
		return
	}
	m.MigrationFiles.WithLabelValues(result).Inc()
}

func (m *Metrics) StateLoad(outcome string) {
	if m == nil {
		return
	}
	m.StateLoads.WithLabelValues(outcome).Inc()
}

// TabDiscovered counts a state file entry; decision is "queued" or "skipped".
func (m *Metrics) TabDiscovered(incognito bool, decision string) {
	if m == nil {
		return
	}
	m.TabsDiscovered.WithLabelValues(Kind(incognito), decision).Inc()
}

// TabRestored counts a restored tab; source is "file" or "url".
func (m *Metrics) TabRestored(source string) {
	if m == nil {
		return
	}
	m.TabsRestored.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveRestore(d time.Duration) {
	if m == nil {
		return
	}
	m.RestoreDuration.Observe(d.Seconds())
}

func (m *Metrics) StateSave(outcome string) {
	if m == nil {
		return
	}
	m.StateSaves.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TabFileWritten() {
	if m == nil {
		return
	}
	m.TabFilesWritten.Inc()
}

func (m *Metrics) TabFileDeleted() {
	if m == nil {
		return
	}
	m.TabFilesDeleted.Inc()
}
