// Package watch re-runs the consistency check when scanned files change and,
// optionally, on a fixed interval.
//
// Runs are sequential. Triggers that arrive while a run is in progress
// coalesce into a single follow-up run.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/logfields"
)

// Trigger reasons passed to RunFunc.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

// RunFunc performs one check. Errors are logged and do not stop the watcher.
type RunFunc func(ctx context.Context, reason string) error

// Filter selects which directories are watched and which files matter.
// *consistency.Rules satisfies it.
type Filter interface {
	ScansFile(path string) bool
	SkipsDir(name string) bool
}

// Options tune a Watcher.
type Options struct {
	Debounce time.Duration // Quiet window after the last change event
	Interval time.Duration // Periodic re-check; zero disables
	Logger   *slog.Logger
}

// Watcher monitors a source tree.
type Watcher struct {
	root     string
	filter   Filter
	run      RunFunc
	opts     Options
	logger   *slog.Logger
	triggers chan string
}

// New creates a watcher for root.
func New(root string, filter Filter, run RunFunc, opts Options) (*Watcher, error) {
	if filter == nil || run == nil {
		return nil, errors.ValidationError("watch requires a filter and a run function").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve watch root").
			WithContext("root", root).Build()
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, errors.FileSystemError("watch root is not a directory").
			WithContext("root", abs).Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		root:     abs,
		filter:   filter,
		run:      run,
		opts:     opts,
		logger:   logger,
		triggers: make(chan string, 1),
	}, nil
}

// Run watches until ctx is cancelled. It performs an initial run first.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create file watcher").Build()
	}
	defer func() { _ = fsw.Close() }()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}

	if w.opts.Interval > 0 {
		sched, err := w.schedule()
		if err != nil {
			return err
		}
		sched.Start()
		defer func() { _ = sched.Shutdown() }()
	}

	w.logger.Info("Watching for changes",
		logfields.Path(w.root),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))

	w.trigger(ReasonStartup)

	debounce := time.NewTimer(w.opts.Debounce)
	debounce.Stop()
	defer debounce.Stop()
	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watcher")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(fsw, event) {
				debounce.Reset(w.opts.Debounce)
				debounceC = debounce.C
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))

		case <-debounceC:
			debounceC = nil
			w.trigger(ReasonChange)

		case reason := <-w.triggers:
			w.execute(ctx, reason)
		}
	}
}

// schedule registers the periodic re-check with gocron.
func (w *Watcher) schedule() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create gocron scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(w.trigger, ReasonInterval),
		gocron.WithName("metricstd-recheck"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create periodic check job").Build()
	}
	return s, nil
}

// trigger requests a run. A pending request absorbs further ones.
func (w *Watcher) trigger(reason string) {
	select {
	case w.triggers <- reason:
	default:
	}
}

func (w *Watcher) execute(ctx context.Context, reason string) {
	start := time.Now()
	w.logger.Debug("Running check", logfields.Reason(reason))
	if err := w.run(ctx, reason); err != nil {
		w.logger.Error("Check failed", logfields.Reason(reason), logfields.Error(err))
		return
	}
	w.logger.Debug("Check finished",
		logfields.Reason(reason),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}

// handle reacts to one event and reports whether it should schedule a run.
func (w *Watcher) handle(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.skipped(filepath.Base(event.Name)) {
				return false
			}
			if err := w.addTree(fsw, event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
			return true
		}
	}

	if !w.filter.ScansFile(event.Name) {
		return false
	}
	w.logger.Debug("Change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
	return true
}

func (w *Watcher) skipped(name string) bool {
	return strings.HasPrefix(name, ".") || w.filter.SkipsDir(name)
}

// addTree watches dir and every non-skipped directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return errors.WrapError(err, errors.CategoryFileSystem, "failed to walk watch root").
					WithContext("path", path).Build()
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipped(d.Name()) {
			return fs.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", path).Build()
		}
		return nil
	})
}
