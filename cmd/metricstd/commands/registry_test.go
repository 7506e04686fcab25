package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/metric"
	"github.com/zqshi/metricstd/internal/registry"
	"github.com/zqshi/metricstd/internal/validator"
)

const extraDefinition = `{
  "version": "1.0.0",
  "metrics": [
    {
      "id": "quality_defect_rate",
      "name": "defectRate",
      "displayName": "Defect Rate",
      "category": "quality",
      "level": "L2",
      "description": "Share of shipped changes that caused a defect",
      "formula": "defects / changes",
      "unit": "percentage",
      "dataType": "float",
      "format": {"display": "percentage"},
      "precision": 2,
      "qualityThresholds": {"excellent": 10, "good": 5, "warning": 2, "critical": 1},
      "direction": "lower_is_better",
      "governance": {"owner": "qa-team", "reviewCycle": "monthly", "lastReviewed": "2026-09-01", "approvalStatus": "approved"},
      "version": "1.0.0",
      "domain": ["engineering"],
      "tags": ["quality", "sla"]
    },
    {"id": "broken"}
  ]
}`

func writeExport(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "extra.json")
	writeFile(t, path, content)
	return path
}

func TestRegistryExport(t *testing.T) {
	e := newTestEnv(t, nil)
	require.NoError(t, (&RegistryExportCmd{}).Run(e.global, e.cli(t, "")))

	var doc registry.Document
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &doc))
	assert.Equal(t, registry.ExportFormatVersion, doc.Version)
	assert.Len(t, doc.Metrics, len(registry.DefaultDefinitions()))

	// --output writes the same document to a file.
	cli := e.cli(t, "")
	cli.Output = filepath.Join(e.dir, "export.json")
	e.out.Reset()
	require.NoError(t, (&RegistryExportCmd{}).Run(e.global, cli))
	assert.Empty(t, e.out.String())
	data, err := os.ReadFile(cli.Output)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
}

func TestRegistryImport(t *testing.T) {
	e := newTestEnv(t, nil)
	path := writeExport(t, e.dir, extraDefinition)
	cli := e.cli(t, "")
	cli.NoSeed = true
	cli.Output = filepath.Join(e.dir, "merged.json")

	err := (&RegistryImportCmd{Files: []string{path}}).Run(e.global, cli)

	assert.Equal(t, ExitFindings, exitCode(err))
	assert.Contains(t, e.out.String(), "1 imported, 1 rejected")
	assert.Contains(t, e.out.String(), "metrics[1]")
	assert.Contains(t, e.out.String(), "Registry: 1 definitions (1 new)")

	data, err := os.ReadFile(cli.Output)
	require.NoError(t, err)
	var doc registry.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Metrics, 1)
	assert.Equal(t, "quality_defect_rate", doc.Metrics[0].ID)
}

func TestRegistryImport_BadPayload(t *testing.T) {
	e := newTestEnv(t, nil)
	path := writeExport(t, e.dir, `[1, 2]`)

	err := (&RegistryImportCmd{Files: []string{path}}).Run(e.global, e.cli(t, ""))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestRegistrySearch(t *testing.T) {
	e := newTestEnv(t, nil)
	cli := e.cli(t, "")
	cli.RegistryFiles = []string{writeExport(t, e.dir, extraDefinition)}
	cli.Format = "json"

	cmd := &RegistrySearchCmd{Category: "QUALITY", Tag: []string{"sla"}}
	require.NoError(t, cmd.Run(e.global, cli))

	var res registry.SearchResult
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &res))
	require.NotZero(t, res.Total)
	for _, def := range res.Metrics {
		assert.Equal(t, metric.CategoryQuality, def.Category)
		assert.True(t, def.HasTag("sla"))
	}
	assert.Equal(t, res.Total, res.Facets.Categories[metric.CategoryQuality])

	// Text output lists the imported definition.
	cli.Format = ""
	e.out.Reset()
	require.NoError(t, (&RegistrySearchCmd{Text: "defect"}).Run(e.global, cli))
	assert.Contains(t, e.out.String(), "quality_defect_rate")
	assert.Contains(t, e.out.String(), "1 match\n")
}

func TestRegistrySearch_InvalidFilter(t *testing.T) {
	e := newTestEnv(t, nil)
	err := (&RegistrySearchCmd{Level: "L9"}).Run(e.global, e.cli(t, ""))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestRegistryStats(t *testing.T) {
	e := newTestEnv(t, nil)
	cli := e.cli(t, "")
	cli.Format = "json"
	require.NoError(t, (&RegistryStatsCmd{}).Run(e.global, cli))

	var stats registry.Stats
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &stats))
	assert.Equal(t, len(registry.DefaultDefinitions()), stats.Total)

	sum := 0
	for _, n := range stats.ByCategory {
		sum += n
	}
	assert.Equal(t, stats.Total, sum)

	cli.Format = ""
	e.out.Reset()
	require.NoError(t, (&RegistryStatsCmd{}).Run(e.global, cli))
	assert.Contains(t, e.out.String(), "Categories:")
	assert.Contains(t, e.out.String(), "Levels:")
}

func TestValidate_Registry(t *testing.T) {
	e := newTestEnv(t, nil)
	require.NoError(t, (&ValidateCmd{}).Run(e.global, e.cli(t, "")))
	assert.Contains(t, e.out.String(), "Validating registry")
	assert.Contains(t, e.out.String(), "0 invalid")
}

func TestValidate_File(t *testing.T) {
	e := newTestEnv(t, nil)
	path := writeExport(t, e.dir, `{"metrics": [
    {
      "id": "invalid_id_format",
      "name": "respTime",
      "displayName": "Response Time",
      "category": "performance",
      "level": "L3",
      "description": "API response time",
      "formula": "avg(duration)",
      "unit": "ms",
      "dataType": "integer",
      "format": {"display": "duration"},
      "precision": 0,
      "qualityThresholds": {"excellent": 3000, "good": 1000, "warning": 500, "critical": 200},
      "direction": "lower_is_better",
      "governance": {"owner": "platform", "reviewCycle": "monthly", "lastReviewed": "2026-09-01", "approvalStatus": "approved"},
      "version": "1.0.0",
      "domain": ["platform"],
      "tags": ["latency"]
    }
  ]}`)
	cli := e.cli(t, "")
	cli.Format = "json"

	err := (&ValidateCmd{File: path}).Run(e.global, cli)

	assert.Equal(t, ExitSevere, exitCode(err))
	var out struct {
		Source  string            `json:"source"`
		Summary validator.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(e.out.Bytes(), &out))
	assert.Equal(t, path, out.Source)
	assert.Equal(t, 1, out.Summary.Invalid)
	require.Len(t, out.Summary.Results, 1)
	assert.False(t, out.Summary.Results[0].IsValid)
	assert.NotEmpty(t, out.Summary.Results[0].Errors)
}

func TestValidate_MissingFile(t *testing.T) {
	e := newTestEnv(t, nil)
	err := (&ValidateCmd{File: filepath.Join(e.dir, "nope.json")}).Run(e.global, e.cli(t, ""))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}
