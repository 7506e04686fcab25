package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/history"
	"github.com/zqshi/metricstd/internal/logfields"
	"github.com/zqshi/metricstd/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Path     string        `arg:"" optional:"" help:"Directory to watch. Defaults to scan.root from the configuration"`
	Debounce time.Duration `help:"Quiet period after the last change before re-checking (overrides watch.debounce)"`
	Interval time.Duration `help:"Also re-check on this interval (overrides watch.interval)"`
}

// Run watches until interrupted.
func (c *WatchCmd) Run(g *Global, root *CLI) error {
	if root.Fix {
		return errors.ValidationError("--fix is not supported in watch mode").Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return c.run(ctx, g, root)
}

func (c *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	a, err := newApp(g, root)
	if err != nil {
		return err
	}
	checker, err := a.checker(root)
	if err != nil {
		return err
	}

	opts := watch.Options{
		Debounce: a.cfg.Watch.Debounce,
		Interval: a.cfg.Watch.Interval,
		Logger:   a.logger,
	}
	if c.Debounce > 0 {
		opts.Debounce = c.Debounce
	}
	if c.Interval > 0 {
		opts.Interval = c.Interval
	}

	path := a.scanRoot(c.Path)
	var last *consistency.Report
	run := func(ctx context.Context, reason string) error {
		report, err := checker.Check(ctx, path)
		if err != nil {
			return err
		}
		if err := a.writeReport(g, root, report); err != nil {
			return err
		}
		a.record(ctx, report)

		delta := history.Diff(last, report)
		a.logger.Info("Check complete",
			logfields.Reason(reason),
			logfields.ReportID(report.ID),
			logfields.Count(len(report.Inconsistencies)),
			slog.Int("new", len(delta.New)),
			slog.Int("resolved", len(delta.Resolved)))
		last = report
		return nil
	}

	w, err := watch.New(path, checker.Rules(), run, opts)
	if err != nil {
		return err
	}

	if addr := a.cfg.Watch.MetricsAddr; addr != "" && a.prom != nil {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsMux(a),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("Serving metrics", logfields.Addr(addr))
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Metrics server failed", logfields.Addr(addr), logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return w.Run(ctx)
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.prom.Handler())
	return mux
}
