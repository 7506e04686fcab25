package consistency

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/metrics"
	"github.com/zqshi/metricstd/internal/registry"
)

var fixedNow = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestChecker(t *testing.T, opts ...Option) *Checker {
	t.Helper()
	reg := registry.NewWithDefaults(registry.WithClock(func() time.Time { return fixedNow }))
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewChecker(reg, opts...)
}

func check(t *testing.T, root string) *Report {
	t.Helper()
	report, err := newTestChecker(t).Check(context.Background(), root)
	require.NoError(t, err)
	return report
}

func byRule(r *Report, rule Rule) []Inconsistency {
	var out []Inconsistency
	for _, inc := range r.Inconsistencies {
		if inc.Rule == rule {
			out = append(out, inc)
		}
	}
	return out
}

func TestCheck_CleanTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/api.ts": "export const defaults = {\n  responseTime: 250,\n  successRate: 97.5,\n};\n",
	})

	r := check(t, root)

	assert.Empty(t, r.Inconsistencies)
	assert.Equal(t, 1, r.FilesScanned)
	assert.Equal(t, 2, r.UsageCount)
	assert.Equal(t, 11, r.TotalMetrics)
	assert.Equal(t, 11, r.ValidMetrics)
	assert.Zero(t, r.InvalidMetrics)
	assert.Equal(t, []string{"No inconsistencies found; metric usage matches the registry"}, r.Suggestions)
	assert.Equal(t, fixedNow, r.GeneratedAt)
	assert.NotEmpty(t, r.ID)
	_, found := r.HighestSeverity()
	assert.False(t, found)
}

func TestCheck_NamingDrift(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": "const resp_time = 250;\n",
		"b.py": "x = 1\nlog(resp_time)\n",
	})

	r := check(t, root)

	require.Len(t, r.Inconsistencies, 1)
	inc := r.Inconsistencies[0]
	assert.Equal(t, TypeNaming, inc.Type)
	assert.Equal(t, RuleNamingDrift, inc.Rule)
	assert.Equal(t, SeverityHigh, inc.Severity)
	assert.True(t, inc.AutoFixable)
	assert.Equal(t, "resp_time", inc.From)
	assert.Equal(t, "responseTime", inc.To)
	assert.Equal(t, []string{"responseTime"}, inc.AffectedMetrics)
	assert.Equal(t, []Location{
		{File: "a.ts", Line: 1, Field: "resp_time"},
		{File: "b.py", Line: 2, Field: "resp_time"},
	}, inc.Locations)
	assert.Contains(t, r.Suggestions, "1 high-priority issues found; address them first")
	assert.Contains(t, r.Suggestions, "Auto-fix recommended for 1 naming problems (run with --fix)")
}

func TestCheck_RangeDrift(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts":        "const cfg = { successRate: 0.95 };\n",
		"b.json":      "{\n  \"successRate\": 95\n}\n",
		"c.go":        "successRate := 0\n",
		"notes.txt":   "successRate: 0.5\n",
		"README.md":   "successRate: 0.5\n",
		"deep/d.yaml": "success_rate: 80\n",
	})

	r := check(t, root)

	ranges := byRule(r, RuleRangeDrift)
	require.Len(t, ranges, 1)
	inc := ranges[0]
	assert.Equal(t, TypeFormat, inc.Type)
	assert.Equal(t, SeverityMedium, inc.Severity)
	assert.True(t, inc.AutoFixable)
	assert.Equal(t, []string{"successRate", "success_rate"}, inc.AffectedMetrics)
	assert.Equal(t, "a.ts", inc.Locations[0].File)
	assert.Equal(t, "0.95", inc.Locations[0].Value)
	assert.Len(t, inc.Locations, 3)
	assert.Equal(t, 4, r.FilesScanned)
}

func TestCheck_UnitDrift(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": "timeout({ responseTime: 2.5 })\n",
		"b.ts": "const opts = { responseTime: 2500 }\nconst other = { responseTime: 300 }\n",
	})

	r := check(t, root)

	units := byRule(r, RuleUnitDrift)
	require.Len(t, units, 1)
	inc := units[0]
	assert.Equal(t, SeverityHigh, inc.Severity)
	assert.False(t, inc.AutoFixable)
	assert.Equal(t, []string{"responseTime"}, inc.AffectedMetrics)
	assert.Equal(t, []Location{
		{File: "a.ts", Line: 1, Field: "responseTime", Value: "2.5"},
		{File: "b.ts", Line: 1, Field: "responseTime", Value: "2500"},
	}, inc.Locations)
}

func TestCheck_MissingStandard(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": "const s = { checkoutLatency: 120, responseTime: 250 };\nconst t = { cartCost: 9.99, checkoutLatency: 130 };\n",
	})

	r := check(t, root)

	require.Len(t, r.Inconsistencies, 1)
	inc := r.Inconsistencies[0]
	assert.Equal(t, TypeMissing, inc.Type)
	assert.Equal(t, SeverityLow, inc.Severity)
	assert.False(t, inc.AutoFixable)
	assert.Equal(t, []string{"cartCost", "checkoutLatency"}, inc.AffectedMetrics)
	assert.Equal(t, []Location{
		{File: "a.ts", Line: 2, Field: "cartCost", Value: "9.99"},
		{File: "a.ts", Line: 1, Field: "checkoutLatency", Value: "120"},
	}, inc.Locations)
	assert.Contains(t, r.Suggestions, "Register standard definitions for 2 unregistered fields")
}

func TestCheck_DuplicateDeclarations(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts":     "export interface MetricDefinition {\n  id: string;\n}\n",
		"b/b.ts":   "interface MetricDefinition {\n  id: string;\n}\n",
		"c/c.go":   "type MetricSnapshot struct{}\n",
		"d/d.java": "class Widget {}\n",
	})

	r := check(t, root)

	dups := byRule(r, RuleDuplicate)
	require.Len(t, dups, 1)
	assert.Equal(t, "duplicate-MetricDefinition", dups[0].ID)
	assert.Equal(t, SeverityMedium, dups[0].Severity)
	assert.Equal(t, TypeDuplicate, dups[0].Type)
	assert.Len(t, dups[0].Locations, 2)
}

func TestCheck_SortsBySeverity(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts": "const a = { successRate: 0.9, checkoutLatency: 5 };\nconst resp_time = 1;\n",
		"b.ts": "const b = { successRate: 90 };\n",
	})

	r := check(t, root)

	require.Len(t, r.Inconsistencies, 3)
	assert.Equal(t, SeverityHigh, r.Inconsistencies[0].Severity)
	assert.Equal(t, SeverityMedium, r.Inconsistencies[1].Severity)
	assert.Equal(t, SeverityLow, r.Inconsistencies[2].Severity)

	highest, ok := r.HighestSeverity()
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, highest)
	assert.Len(t, r.AutoFixable(), 2)
}

func TestCheck_SkipsConfiguredAndHiddenDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"node_modules/lib/x.ts": "const resp_time = 1;\n",
		".cache/y.ts":           "const resp_time = 1;\n",
		"generated/z.ts":        "const resp_time = 1;\n",
		"src/ok.ts":             "const ok = 1;\n",
	})

	c := newTestChecker(t, WithRules(MustDefaultRules().Extend([]string{"generated"}, nil)))
	r, err := c.Check(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, r.Inconsistencies)
	assert.Equal(t, 1, r.FilesScanned)
}

func TestCheck_UnreadableFileIsSkipped(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.ts": "const resp_time = 1;\n",
	})
	require.NoError(t, os.Symlink(filepath.Join(root, "does-not-exist.ts"), filepath.Join(root, "broken.ts")))

	r := check(t, root)

	assert.Equal(t, 1, r.FilesScanned)
	assert.Equal(t, 1, r.FilesSkipped)
	require.Len(t, r.Inconsistencies, 1)
}

func TestCheck_SingleFileRoot(t *testing.T) {
	root := writeTree(t, map[string]string{"only.ts": "const succRate = 1;\n"})

	r := check(t, filepath.Join(root, "only.ts"))

	assert.Equal(t, root, r.Root)
	require.Len(t, r.Inconsistencies, 1)
	assert.Equal(t, "successRate", r.Inconsistencies[0].To)
}

func TestCheck_Cancellation(t *testing.T) {
	root := writeTree(t, map[string]string{"a.ts": "const resp_time = 1;\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := newTestChecker(t).Check(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, r)
}

func TestCheck_MissingRoot(t *testing.T) {
	_, err := newTestChecker(t).Check(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

type recordingRecorder struct {
	metrics.NoopRecorder
	scanned, skipped int
	issues           map[string]int
}

func (r *recordingRecorder) IncFilesScanned()        { r.scanned++ }
func (r *recordingRecorder) IncFilesSkipped(string) { r.skipped++ }
func (r *recordingRecorder) IncInconsistency(issueType, severity string) {
	r.issues[issueType+"/"+severity]++
}

func TestCheck_RecordsMetrics(t *testing.T) {
	rec := &recordingRecorder{issues: map[string]int{}}
	root := writeTree(t, map[string]string{"a.ts": "const resp_time = 1;\n"})
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.ts"), filepath.Join(root, "b.ts")))

	_, err := newTestChecker(t, WithRecorder(rec)).Check(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.scanned)
	assert.Equal(t, 1, rec.skipped)
	assert.Equal(t, 1, rec.issues["naming_drift/high"])
}
