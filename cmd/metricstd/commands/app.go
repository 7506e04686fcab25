package commands

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/zqshi/metricstd/internal/config"
	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/history"
	"github.com/zqshi/metricstd/internal/logfields"
	"github.com/zqshi/metricstd/internal/metrics"
	"github.com/zqshi/metricstd/internal/notify"
	"github.com/zqshi/metricstd/internal/registry"
)

// app holds what every command builds from the root flags and the
// configuration file.
type app struct {
	cfg      *config.Config
	registry *registry.Registry
	recorder metrics.Recorder
	prom     *metrics.PrometheusRecorder
	logger   *slog.Logger
}

func newApp(g *Global, root *CLI) (*app, error) {
	cfg, err := root.LoadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	if g != nil && g.Logger != nil {
		a.logger = g.Logger
	}
	if cfg.Metrics.Enabled || cfg.Metrics.Textfile != "" || cfg.Watch.MetricsAddr != "" {
		a.prom = metrics.NewPrometheusRecorder(nil)
		a.recorder = a.prom
	}

	a.registry, err = loadRegistry(cfg, root, a.recorder)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// loadRegistry seeds the registry unless disabled, then imports the
// configured export files followed by the --registry files.
func loadRegistry(cfg *config.Config, root *CLI, rec metrics.Recorder) (*registry.Registry, error) {
	var reg *registry.Registry
	if root.NoSeed || !cfg.Registry.SeedEnabled() {
		reg = registry.New(registry.WithRecorder(rec))
	} else {
		reg = registry.NewWithDefaults(registry.WithRecorder(rec))
	}

	files := slices.Concat(cfg.Registry.Files, root.RegistryFiles)
	for _, path := range files {
		if err := importFile(reg, path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func importFile(reg *registry.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read registry export").
			WithContext("path", path).Build()
	}
	res, err := reg.Import(data)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "failed to import registry export").
			WithContext("path", path).Build()
	}
	for _, msg := range res.Errors {
		slog.Warn("Skipped metric definition", logfields.File(path), slog.String("reason", msg))
	}
	return nil
}

// checker builds the consistency checker. The report output and the history
// database are excluded so the tool never scans its own artifacts.
func (a *app) checker(root *CLI) (*consistency.Checker, error) {
	rules, err := a.cfg.Scan.Rules()
	if err != nil {
		return nil, err
	}
	excluded := []string{a.outputPath(root)}
	if a.cfg.History.Enabled {
		excluded = append(excluded, a.cfg.History.Path)
	}
	return consistency.NewChecker(a.registry,
		consistency.WithRules(rules.Exclude(excluded...)),
		consistency.WithRecorder(a.recorder),
		consistency.WithLogger(a.logger),
	), nil
}

// scanRoot picks the path argument, then scan.root from the configuration.
func (a *app) scanRoot(arg string) string {
	if arg != "" {
		return arg
	}
	return a.cfg.Scan.Root
}

// reportFormat resolves --format, then a non-default configured format, then
// markdown for --report and console otherwise.
func (a *app) reportFormat(root *CLI) (consistency.OutputFormat, error) {
	if root.Format != "" {
		return root.outputFormat()
	}
	if a.cfg.Report.Format != "" && a.cfg.Report.Format != consistency.FormatConsole {
		return a.cfg.Report.Format, nil
	}
	if root.Report {
		return consistency.FormatMarkdown, nil
	}
	return consistency.FormatConsole, nil
}

func (a *app) outputPath(root *CLI) string {
	if root.Output != "" {
		return root.Output
	}
	return a.cfg.Report.Output
}

// writeReport renders report to the output file, or to stdout when none is
// configured.
func (a *app) writeReport(g *Global, root *CLI, report *consistency.Report) error {
	format, err := a.reportFormat(root)
	if err != nil {
		return err
	}

	path := a.outputPath(root)
	if path == "" {
		out := g.stdout()
		return consistency.NewFormatter(format, isColorSupported(out)).Format(out, report)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create report directory").
				WithContext("path", dir).Build()
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create report file").
			WithContext("path", path).Build()
	}
	if err := consistency.NewFormatter(format, false).Format(f, report); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write report file").
			WithContext("path", path).Build()
	}
	a.logger.Info("Report written", logfields.Path(path), logfields.Format(string(format)))
	return nil
}

// record stores the report in the history, publishes it and updates the
// metrics textfile. Failures are logged; they never change the outcome of
// the check.
func (a *app) record(ctx context.Context, report *consistency.Report) {
	if a.cfg.History.Enabled {
		if err := a.saveHistory(ctx, report); err != nil {
			a.logger.Warn("Failed to store report history", logfields.Error(err))
		}
	}
	if a.cfg.Notify.NATSURL != "" {
		if err := a.publish(ctx, report); err != nil {
			a.logger.Warn("Failed to publish report", logfields.Error(err))
		}
	}
	if a.prom != nil && a.cfg.Metrics.Textfile != "" {
		if err := a.prom.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Warn("Failed to write metrics textfile",
				logfields.Path(a.cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
}

func (a *app) saveHistory(ctx context.Context, report *consistency.Report) error {
	store, err := history.NewSQLiteStore(a.cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	prev, err := store.Latest(ctx, report.Root)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, report); err != nil {
		return err
	}

	if prev != nil {
		delta := history.Diff(prev, report)
		a.logger.Info("Compared with previous report",
			logfields.ReportID(prev.ID),
			slog.Int("new", len(delta.New)),
			slog.Int("resolved", len(delta.Resolved)),
			slog.Int("unchanged", delta.Unchanged))
	}
	return nil
}

// newPublisher is replaced in tests.
var newPublisher = func(cfg config.NotifyConfig) (notify.Publisher, error) {
	return notify.NewNATSPublisher(cfg.NATSURL, cfg.Subject, cfg.Timeout)
}

// publish sends the report, retrying connection and publish failures per
// notify.retries.
func (a *app) publish(ctx context.Context, report *consistency.Report) error {
	policy := a.cfg.Notify.RetryPolicy()
	return policy.Do(ctx, func(ctx context.Context) error {
		pub, err := newPublisher(a.cfg.Notify)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()

		ctx, cancel := context.WithTimeout(ctx, a.cfg.Notify.Timeout+time.Second)
		defer cancel()
		return pub.Publish(ctx, report)
	}, func(attempt int, err error) {
		a.logger.Warn("Publish failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", policy.Delay(attempt)),
			logfields.Error(err))
	})
}

// writeJSON is shared by the commands that support --format json.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode JSON output").Build()
	}
	return nil
}
