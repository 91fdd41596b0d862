package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danieljhkim/tabvault/internal/clock"
	"github.com/danieljhkim/tabvault/internal/config"
	"github.com/danieljhkim/tabvault/internal/fsops"
	"github.com/danieljhkim/tabvault/internal/logging"
	"github.com/danieljhkim/tabvault/internal/metrics"
	"github.com/danieljhkim/tabvault/internal/persist"
	"github.com/danieljhkim/tabvault/internal/policy"
	"github.com/danieljhkim/tabvault/internal/prefs"
	"github.com/danieljhkim/tabvault/internal/tabid"
	"github.com/danieljhkim/tabvault/internal/tabmodel"
)

// app holds the real implementations of every dependency for one command run.
type app struct {
	paths    *config.Paths
	settings *config.Settings
	fs       fsops.FS
	prefs    prefs.Store
	log      *zap.Logger
	reg      *prometheus.Registry
	metrics  *metrics.Metrics
	migrator *policy.Migrator
	ids      *tabid.Allocator
}

// newApp wires the application from the environment and config file.
func newApp() (*app, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	settings, err := config.LoadSettings(paths.Config)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:       settings.Logging.Level,
		Development: settings.Logging.Development,
		OutputPaths: []string{paths.Log},
	}
	if verbose {
		logCfg.Level = "debug"
		logCfg.OutputPaths = append(logCfg.OutputPaths, "stderr")
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	fs := fsops.NewRealFS()
	p := prefs.NewFileStore(fs, paths.Prefs)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	return &app{
		paths:    paths,
		settings: settings,
		fs:       fs,
		prefs:    p,
		log:      log,
		reg:      reg,
		metrics:  m,
		migrator: policy.NewMigrator(fs, *paths, p,
			policy.WithLogger(log),
			policy.WithMetrics(m),
			policy.WithClock(&clock.RealClock{}),
		),
		ids: tabid.New(
			tabid.WithCounterStore(tabid.PrefsCounter{Prefs: p}),
			tabid.WithLogger(log),
		),
	}, nil
}

// close flushes the logger and, with --metrics, dumps the registry to stderr.
func (a *app) close(cmd *cobra.Command) {
	if showMetrics {
		if err := writeMetrics(cmd.ErrOrStderr(), a.reg); err != nil {
			a.log.Warn("failed to write metrics", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// writeMetrics writes every family in reg in the Prometheus text format.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// policy returns the policy for a window.
func (a *app) policy(window int) (*policy.TabbedPolicy, error) {
	return policy.NewTabbedPolicy(window, a.settings.Windows.Max, a.migrator)
}

// newStore creates the persistent store of a window over sel.
func (a *app) newStore(window int, sel tabmodel.Restorer) (*persist.Store, error) {
	p, err := a.policy(window)
	if err != nil {
		return nil, err
	}
	return persist.New(p, sel, a.ids,
		persist.WithLogger(a.log),
		persist.WithMetrics(a.metrics),
		persist.WithRestoreConcurrency(a.settings.Restore.Concurrency),
		persist.WithActiveTabFirst(a.settings.Restore.ActiveTabFirst),
	), nil
}

// openWindow loads and restores a window into a fresh in-memory selector.
func (a *app) openWindow(ctx context.Context, window int, ignoreIncognito bool) (*persist.Store, *tabmodel.MemorySelector, error) {
	sel := tabmodel.NewMemorySelector()
	store, err := a.newStore(window, sel)
	if err != nil {
		return nil, nil, err
	}
	store.LoadState(ignoreIncognito)
	if _, err := store.RestoreTabs(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to restore tabs: %w", err)
	}
	return store, sel, nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
