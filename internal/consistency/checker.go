package consistency

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/logfields"
	"github.com/zqshi/metricstd/internal/metric"
	"github.com/zqshi/metricstd/internal/metrics"
	"github.com/zqshi/metricstd/internal/validator"
)

const maxLineBytes = 1 << 20

// Registry is the read-only view of the metric registry the checker needs.
type Registry interface {
	All() []*metric.Definition
	HasName(name string) bool
	Len() int
}

// Checker scans source trees against a registry.
type Checker struct {
	registry  Registry
	rules     *Rules
	validator *validator.Validator
	recorder  metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithRules replaces the default rule table.
func WithRules(r *Rules) Option {
	return func(c *Checker) {
		if r != nil {
			c.rules = r
		}
	}
}

// WithValidator sets the validator used for the valid/invalid totals.
func WithValidator(v *validator.Validator) Option {
	return func(c *Checker) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithRecorder reports scan metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Checker) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// NewChecker creates a checker using the embedded rule table unless
// WithRules is given.
func NewChecker(reg Registry, opts ...Option) *Checker {
	c := &Checker{
		registry: reg,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rules == nil {
		c.rules = MustDefaultRules()
	}
	if c.validator == nil {
		c.validator = validator.New(validator.WithClock(c.now))
	}
	return c
}

// Rules returns the active rule table.
func (c *Checker) Rules() *Rules {
	return c.rules
}

// scan accumulates matches for one run. It is discarded on cancellation.
type scan struct {
	root         string
	usages       []Usage
	namingUsages []Usage
	declarations []Usage
	filesScanned int
	filesSkipped int
}

// Check walks root and returns the report. Unreadable files are skipped;
// only a missing root or cancellation aborts the scan.
func (c *Checker) Check(ctx context.Context, root string) (*Report, error) {
	start := time.Now()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot resolve scan root").
			WithContext("path", root).
			Build()
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "scan root not accessible").
			WithContext("path", abs).
			Build()
	}

	s := &scan{root: abs}
	if info.IsDir() {
		err = c.walk(ctx, s)
	} else {
		s.root = filepath.Dir(abs)
		if err = ctx.Err(); err == nil {
			c.scanFile(abs, s)
		}
	}
	if err != nil {
		return nil, err
	}

	report := c.analyze(s)
	c.recorder.ObserveScanDuration(time.Since(start))
	for _, inc := range report.Inconsistencies {
		c.recorder.IncInconsistency(string(inc.Rule), inc.Severity.String())
	}

	c.logger.Info("Consistency check complete",
		logfields.Path(abs),
		logfields.ReportID(report.ID),
		slog.Int("files", report.FilesScanned),
		slog.Int("usages", report.UsageCount),
		logfields.Count(len(report.Inconsistencies)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return report, nil
}

func (c *Checker) walk(ctx context.Context, s *scan) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == s.root {
				return walkErr
			}
			c.logger.Warn("Skipping unreadable path", logfields.Path(path), logfields.Error(walkErr))
			s.filesSkipped++
			c.recorder.IncFilesSkipped("unreadable")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == s.root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || c.rules.SkipsDir(name) {
				return fs.SkipDir
			}
			return nil
		}

		if !c.rules.ScansFile(path) {
			return nil
		}
		c.scanFile(path, s)
		return nil
	})
}

// scanFile applies every pattern to every line of path.
func (c *Checker) scanFile(path string, s *scan) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	f, err := os.Open(path)
	if err != nil {
		c.skip(s, rel, err)
		return
	}
	defer func() { _ = f.Close() }()

	var usages, naming, decls []Usage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		for _, p := range c.rules.UsagePatterns {
			for _, m := range p.re.FindAllStringSubmatch(line, -1) {
				u := Usage{
					File:    rel,
					Line:    lineNo,
					Field:   m[p.fieldGroup],
					Value:   m[p.valueGroup],
					Kind:    p.Kind,
					Context: trimmed,
				}
				if v, err := strconv.ParseFloat(u.Value, 64); err == nil {
					u.Numeric, u.HasNum = v, true
				}
				usages = append(usages, u)
			}
		}

		for _, p := range c.rules.NamingPatterns {
			for range p.re.FindAllStringIndex(line, -1) {
				naming = append(naming, Usage{
					File:    rel,
					Line:    lineNo,
					Field:   p.Token,
					Context: trimmed,
				})
			}
		}

		for _, p := range c.rules.DeclarationPatterns {
			for _, m := range p.re.FindAllStringSubmatch(line, -1) {
				decls = append(decls, Usage{
					File:    rel,
					Line:    lineNo,
					Field:   m[p.nameGroup],
					Context: trimmed,
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		c.skip(s, rel, err)
		return
	}

	s.usages = append(s.usages, usages...)
	s.namingUsages = append(s.namingUsages, naming...)
	s.declarations = append(s.declarations, decls...)
	s.filesScanned++
	c.recorder.IncFilesScanned()
	c.logger.Debug("Scanned file", logfields.File(rel), logfields.Count(len(usages)+len(naming)+len(decls)))
}

func (c *Checker) skip(s *scan, rel string, err error) {
	c.logger.Warn("Skipping unreadable file", logfields.File(rel), logfields.Error(err))
	s.filesSkipped++
	c.recorder.IncFilesSkipped("unreadable")
}

func newReportID() string {
	return uuid.NewString()
}
