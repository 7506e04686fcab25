package consistency

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zqshi/metricstd/internal/foundation/errors"
)

func TestDefaultRules(t *testing.T) {
	r, err := DefaultRules()
	require.NoError(t, err)

	assert.NotEmpty(t, r.UsagePatterns)
	assert.NotEmpty(t, r.DeclarationPatterns)
	assert.True(t, r.ScansFile("src/app.TS"))
	assert.False(t, r.ScansFile("README.md"))
	assert.False(t, r.ScansFile("dir.ts/Makefile"))
	assert.True(t, r.SkipsDir("node_modules"))

	canonical, ok := r.Canonical("respTime")
	require.True(t, ok)
	assert.Equal(t, "responseTime", canonical)
	assert.True(t, r.IsNamingToken("session_count"))
	assert.False(t, r.IsNamingToken("responseTime"))
}

func TestRules_Exclude(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.json")
	base := MustDefaultRules()
	r := base.Exclude(report, "")

	assert.False(t, r.ScansFile(report))
	assert.True(t, r.ScansFile(filepath.Join(dir, "api.json")))
	assert.True(t, base.ScansFile(report), "original rules are unchanged")

	// Relative paths resolve against the working directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel := base.Exclude("out/report.json")
	assert.False(t, rel.ScansFile(filepath.Join(wd, "out", "report.json")))
}

func TestChecker_SkipsExcludedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "api.ts"), []byte("const responseTime = 250;\n"), 0o644))
	report := filepath.Join(root, "report.json")
	require.NoError(t, os.WriteFile(report, []byte(`{"from": "respTime", "to": "responseTime"}`+"\n"), 0o644))

	checker := newTestChecker(t, WithRules(MustDefaultRules().Exclude(report)))
	res, err := checker.Check(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, res.FilesScanned)
	assert.Empty(t, res.Inconsistencies)
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"no extensions", "skip_dirs: [x]\n", "at least one extension"},
		{"bad kind", "extensions: [.ts]\nusage_patterns:\n  - name: p\n    kind: weight\n    regex: '(?P<field>a)(?P<value>1)'\n", "unknown kind"},
		{"missing groups", "extensions: [.ts]\nusage_patterns:\n  - name: p\n    kind: time\n    regex: 'a'\n", "field and value groups"},
		{"bad regex", "extensions: [.ts]\nnaming_patterns:\n  - token: a\n    regex: '('\n    canonical: b\n", "naming_patterns[0]"},
		{"no canonical", "extensions: [.ts]\nnaming_patterns:\n  - token: a\n    regex: 'a'\n", "needs token and canonical"},
		{"declaration group", "extensions: [.ts]\ndeclaration_patterns:\n  - regex: 'Metric'\n", "name group"},
		{"not yaml", "extensions: [", "invalid rules YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `extensions: [txt]
usage_patterns:
  - name: latency
    kind: time
    regex: '(?P<field>lat)=(?P<value>\d+)'
naming_patterns:
  - token: lat
    regex: '\blat\b'
    canonical: responseTime
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.True(t, r.ScansFile("log.txt"))
	assert.Len(t, r.UsagePatterns, 1)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	path, ok := errors.ContextString(err, "path")
	assert.True(t, ok)
	assert.Contains(t, path, "missing.yaml")
}

func TestRules_ExtendDoesNotMutateOriginal(t *testing.T) {
	base := MustDefaultRules()
	ext := base.Extend([]string{"gen"}, []string{"tmpl"})

	assert.True(t, ext.SkipsDir("gen"))
	assert.True(t, ext.ScansFile("a.tmpl"))
	assert.False(t, base.SkipsDir("gen"))
	assert.False(t, base.ScansFile("a.tmpl"))
}
