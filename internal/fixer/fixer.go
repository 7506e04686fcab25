// Package fixer applies the auto-fixable subset of a consistency report as
// line-scoped source rewrites.
package fixer

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/logfields"
	"github.com/zqshi/metricstd/internal/metrics"
)

// Fixer performs automatic fixes for consistency issues.
type Fixer struct {
	dryRun   bool
	force    bool
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Fixer.
type Option func(*Fixer)

// WithDryRun makes Apply behave like Plan.
func WithDryRun(dryRun bool) Option {
	return func(f *Fixer) { f.dryRun = dryRun }
}

// WithForce allows rewriting files that have uncommitted git changes.
func WithForce(force bool) Option {
	return func(f *Fixer) { f.force = force }
}

// WithRecorder reports fix outcomes.
func WithRecorder(r metrics.Recorder) Option {
	return func(f *Fixer) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fixer) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a fixer.
func New(opts ...Option) *Fixer {
	f := &Fixer{recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Plan computes the edits for every auto-fixable issue without touching files.
func (f *Fixer) Plan(report *consistency.Report) (*FixResult, error) {
	return f.run(context.Background(), report, false)
}

// Apply plans and then writes the edited files. In dry-run mode it is Plan.
func (f *Fixer) Apply(ctx context.Context, report *consistency.Report) (*FixResult, error) {
	return f.run(ctx, report, !f.dryRun)
}

// planned tracks the files an issue edited so write failures can be charged
// back to it.
type planned struct {
	id    string
	files map[string]bool
}

func (f *Fixer) run(ctx context.Context, report *consistency.Report, write bool) (*FixResult, error) {
	if report == nil {
		return nil, errors.ValidationError("no report to fix").Build()
	}

	var guard *worktreeGuard
	if !f.force {
		g, err := openGuard(report.Root)
		if err != nil {
			return nil, err
		}
		guard = g
	}

	res := &FixResult{DryRun: !write}
	files := make(map[string]*sourceFile)
	renames := make(map[string]string)
	var fixed []planned

	for _, inc := range report.AutoFixable() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if inc.Rule != consistency.RuleNamingDrift && inc.Rule != consistency.RuleRangeDrift {
			res.Failed++
			res.detailf("%s: unsupported auto-fix for rule %s", inc.ID, inc.Rule)
			continue
		}

		if dirty := dirtyFile(guard, report.Root, inc); dirty != "" {
			res.Skipped++
			res.detailf("%s: skipped, %s has uncommitted changes (use --force to override)", inc.ID, dirty)
			continue
		}

		var edits []Edit
		var err error
		switch inc.Rule {
		case consistency.RuleNamingDrift:
			edits, err = fixNaming(report.Root, inc, files)
		case consistency.RuleRangeDrift:
			edits, err = fixRange(report.Root, inc, files, renames)
		}
		if err != nil {
			revert(files, edits)
			res.Failed++
			res.Errors = append(res.Errors, err)
			res.detailf("%s: %v", inc.ID, err)
			continue
		}
		if len(edits) == 0 {
			res.Failed++
			res.detailf("%s: no matching text on the recorded lines", inc.ID)
			continue
		}

		if inc.Rule == consistency.RuleNamingDrift {
			renames[inc.From] = inc.To
		}
		p := planned{id: inc.ID, files: make(map[string]bool)}
		for _, e := range edits {
			p.files[e.File] = true
		}
		fixed = append(fixed, p)
		res.Edits = append(res.Edits, edits...)
		res.Fixed++
		res.detailf("%s: %s (%d line%s)", inc.ID, inc.Suggestion, len(edits), pluralize(len(edits)))
	}

	if write {
		failedFiles := make(map[string]bool)
		for _, rel := range res.AffectedFiles() {
			src := files[rel]
			if err := src.write(); err != nil {
				failedFiles[rel] = true
				res.Errors = append(res.Errors, err)
				f.logger.Error("Failed to write fixed file", logfields.File(rel), logfields.Error(err))
				continue
			}
			f.logger.Info("Fixed file", logfields.File(rel))
		}
		for _, p := range fixed {
			for file := range p.files {
				if failedFiles[file] {
					res.Fixed--
					res.Failed++
					res.detailf("%s: write to %s failed", p.id, file)
					break
				}
			}
		}
	}

	f.record(res)
	return res, nil
}

func (f *Fixer) record(res *FixResult) {
	for range res.Fixed {
		f.recorder.IncFixResult(metrics.FixApplied)
	}
	for range res.Failed {
		f.recorder.IncFixResult(metrics.FixFailed)
	}
	for range res.Skipped {
		f.recorder.IncFixResult(metrics.FixSkipped)
	}
}

func dirtyFile(g *worktreeGuard, root string, inc consistency.Inconsistency) string {
	if g == nil {
		return ""
	}
	for _, loc := range inc.Locations {
		if g.dirty(filepath.Join(root, filepath.FromSlash(loc.File))) {
			return loc.File
		}
	}
	return ""
}

func fixNaming(root string, inc consistency.Inconsistency, files map[string]*sourceFile) ([]Edit, error) {
	if inc.From == "" || inc.To == "" {
		return nil, errors.FixError("naming issue has no replacement").WithContext("issue", inc.ID).Build()
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(inc.From) + `\b`)

	var edits []Edit
	for _, loc := range uniqueLines(inc.Locations) {
		src, err := load(root, loc.File, files)
		if err != nil {
			return edits, err
		}
		e, ok, err := src.rewrite(loc.Line, func(line string) string {
			return re.ReplaceAllLiteralString(line, inc.To)
		})
		if err != nil {
			return edits, err
		}
		if ok {
			e.IssueID = inc.ID
			edits = append(edits, e)
		}
	}
	return edits, nil
}

func fixRange(root string, inc consistency.Inconsistency, files map[string]*sourceFile, renames map[string]string) ([]Edit, error) {
	var edits []Edit
	for _, loc := range inc.Locations {
		v, err := strconv.ParseFloat(loc.Value, 64)
		if err != nil || !consistency.InFractionScale(v) {
			continue
		}
		src, err := load(root, loc.File, files)
		if err != nil {
			return edits, err
		}

		fields := []string{regexp.QuoteMeta(loc.Field)}
		if renamed, ok := renames[loc.Field]; ok {
			fields = append(fields, regexp.QuoteMeta(renamed))
		}
		re := regexp.MustCompile(`(\b(?:` + strings.Join(fields, "|") + `)\b["']?\s*[:=]\s*)` + regexp.QuoteMeta(loc.Value) + `\b`)
		repl := "${1}" + percentValue(v)

		e, ok, err := src.rewrite(loc.Line, func(line string) string {
			return re.ReplaceAllString(line, repl)
		})
		if err != nil {
			return edits, err
		}
		if ok {
			e.IssueID = inc.ID
			edits = append(edits, e)
		}
	}
	return edits, nil
}

// revert undoes the in-memory edits of an issue that could not be fixed
// completely, so a later write of the same file does not carry them.
func revert(files map[string]*sourceFile, edits []Edit) {
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		if src, ok := files[e.File]; ok {
			src.lines[e.Line-1] = e.Before
		}
	}
}

// percentValue rescales a 0-1 value to 0-100, trimming float noise.
func percentValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*100*1e6)/1e6, 'f', -1, 64)
}

func uniqueLines(locs []consistency.Location) []consistency.Location {
	seen := make(map[consistency.Location]bool)
	var out []consistency.Location
	for _, l := range locs {
		key := consistency.Location{File: l.File, Line: l.Line}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}

// sourceFile is a file held in memory while edits accumulate.
type sourceFile struct {
	rel   string
	path  string
	lines []string
	mode  os.FileMode
}

func load(root, rel string, files map[string]*sourceFile) (*sourceFile, error) {
	if src, ok := files[rel]; ok {
		return src, nil
	}
	path := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to stat file").
			WithContext("file", rel).Build()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read file").
			WithContext("file", rel).Build()
	}
	src := &sourceFile{
		rel:   rel,
		path:  path,
		lines: strings.Split(string(data), "\n"),
		mode:  info.Mode().Perm(),
	}
	files[rel] = src
	return src, nil
}

// rewrite applies fn to a 1-based line and reports whether it changed.
func (s *sourceFile) rewrite(lineNo int, fn func(string) string) (Edit, bool, error) {
	if lineNo < 1 || lineNo > len(s.lines) {
		return Edit{}, false, errors.FixError("line out of range").
			WithContext("file", s.rel).WithContext("line", lineNo).Build()
	}
	before := s.lines[lineNo-1]
	after := fn(before)
	if after == before {
		return Edit{}, false, nil
	}
	s.lines[lineNo-1] = after
	return Edit{File: s.rel, Line: lineNo, Before: before, After: after}, true, nil
}

// write replaces the file through a temporary sibling and rename.
func (s *sourceFile) write() error {
	tempPath := s.path + ".metricstd.tmp"
	if err := os.WriteFile(tempPath, []byte(strings.Join(s.lines, "\n")), s.mode); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write temporary file").
			WithContext("file", s.rel).Build()
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to replace file").
			WithContext("file", s.rel).Build()
	}
	return nil
}
