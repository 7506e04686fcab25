package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zqshi/metricstd/internal/metric"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func validDefinition() *metric.Definition {
	return &metric.Definition{
		ID:          "business_agent_successRate",
		Name:        "successRate",
		DisplayName: "Success Rate",
		Category:    metric.CategoryBusiness,
		Level:       metric.LevelCoreBusiness,
		Domain:      []string{"agent"},
		Description: "Share of tasks completed successfully",
		Formula:     "successfulTasks / totalTasks * 100 (0 when totalTasks is zero)",
		Unit:        metric.UnitPercentage,
		DataType:    metric.DataTypeFloat,
		Format:      metric.Format{Display: metric.DisplayPercentage},
		Precision:   2,
		QualityThresholds: metric.QualityThresholds{
			Excellent: 95, Good: 90, Warning: 80, Critical: 70,
		},
		Governance: metric.Governance{
			Owner:          "data-team",
			ReviewCycle:    metric.ReviewQuarterly,
			LastReviewed:   "2026-01-15",
			ApprovalStatus: metric.ApprovalApproved,
		},
		Version: "1.0.0",
		Tags:    []string{"core", "agent"},
	}
}

func findingsFor(findings []Finding, rule string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}

func TestValidate_CompleteDefinitionScoresFull(t *testing.T) {
	r := newTestValidator().Validate(validDefinition())

	assert.True(t, r.IsValid)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, "business_agent_successRate", r.ID)
}

func TestValidate_MalformedDefinition(t *testing.T) {
	def := validDefinition()
	def.ID = "invalid_id_format"
	def.Name = "respTime"
	def.Category = ""
	def.Unit = metric.UnitMilliseconds
	def.DataType = metric.DataTypeInteger
	def.Format = metric.Format{Display: metric.DisplayDuration}
	def.Direction = metric.LowerIsBetter
	def.QualityThresholds = metric.QualityThresholds{Excellent: 3000, Good: 1000, Warning: 500, Critical: 200}

	r := newTestValidator().Validate(def)

	require.False(t, r.IsValid)
	assert.Less(t, r.Score, 100)

	required := findingsFor(r.Errors, "required")
	require.Len(t, required, 1)
	assert.Equal(t, "category", required[0].Field)

	idErrs := findingsFor(r.Errors, "id-format")
	require.Len(t, idErrs, 1)
	assert.Contains(t, idErrs[0].Message, "respTime")

	naming := findingsFor(r.Errors, "naming")
	require.Len(t, naming, 1)
	assert.Contains(t, naming[0].Message, `"resp"`)
	assert.Equal(t, "responseTime", naming[0].Suggestion)
}

func TestValidate_ThresholdsValidIffStrictlyDescending(t *testing.T) {
	tests := []struct {
		name  string
		q     metric.QualityThresholds
		valid bool
	}{
		{"descending", metric.QualityThresholds{Excellent: 99, Good: 95, Warning: 90, Critical: 80}, true},
		{"equal pair", metric.QualityThresholds{Excellent: 95, Good: 95, Warning: 90, Critical: 80}, false},
		{"ascending", metric.QualityThresholds{Excellent: 70, Good: 80, Warning: 90, Critical: 95}, false},
		{"inverted tail", metric.QualityThresholds{Excellent: 95, Good: 90, Warning: 70, Critical: 80}, false},
	}
	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			def.QualityThresholds = tt.q
			r := v.Validate(def)
			assert.Equal(t, tt.valid, r.IsValid)
			assert.Equal(t, !tt.valid, len(findingsFor(r.Errors, "thresholds")) > 0)
		})
	}
}

func TestValidate_DirectionDoesNotRelaxThresholdOrder(t *testing.T) {
	v := newTestValidator()
	for _, dir := range []metric.Direction{metric.HigherIsBetter, metric.LowerIsBetter} {
		def := validDefinition()
		def.Direction = dir
		def.QualityThresholds = metric.QualityThresholds{Excellent: 1, Good: 2, Warning: 5, Critical: 10}

		r := v.Validate(def)
		assert.False(t, r.IsValid, dir)
		assert.Len(t, findingsFor(r.Errors, "thresholds"), 1, dir)

		def.QualityThresholds = metric.QualityThresholds{Excellent: 10, Good: 5, Warning: 2, Critical: 1}
		r = v.Validate(def)
		assert.Empty(t, findingsFor(r.Errors, "thresholds"), dir)
	}
}

func TestValidate_DeprecatedStatusIsNotPenalized(t *testing.T) {
	def := validDefinition()
	def.Governance.ApprovalStatus = metric.ApprovalDeprecated

	r := newTestValidator().Validate(def)
	assert.True(t, r.IsValid)
	assert.Empty(t, r.Warnings)
	assert.Equal(t, 100, r.Score)
}

func TestValidate_PercentageThresholdBounds(t *testing.T) {
	def := validDefinition()
	def.QualityThresholds = metric.QualityThresholds{Excellent: 120, Good: 90, Warning: 80, Critical: 70}

	r := newTestValidator().Validate(def)
	errs := findingsFor(r.Errors, "thresholds")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "outside [0, 100]")
}

func TestValidate_Version(t *testing.T) {
	def := validDefinition()
	def.Version = "v1.0"

	r := newTestValidator().Validate(def)
	require.Len(t, findingsFor(r.Errors, "version"), 1)
	assert.False(t, r.IsValid)
}

func TestValidate_UnitSuffixConventions(t *testing.T) {
	tests := []struct {
		name       string
		metricName string
		unit       metric.Unit
		suggestion string
	}{
		{"time", "response", metric.UnitMilliseconds, "responseTime"},
		{"ratio", "success", metric.UnitPercentage, "successRate"},
		{"count", "sessions", metric.UnitCount, "totalSessions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			def.Name = tt.metricName
			def.ID = "business_agent_" + tt.metricName
			def.Unit = tt.unit
			def.DataType = metric.DataTypeInteger
			def.Format = metric.Format{Display: metric.DisplayNumber}
			if tt.unit == metric.UnitPercentage {
				def.Format.Display = metric.DisplayPercentage
			}

			r := newTestValidator().Validate(def)
			warns := findingsFor(r.Warnings, "naming")
			require.Len(t, warns, 1)
			assert.Equal(t, tt.suggestion, warns[0].Suggestion)
			assert.True(t, r.IsValid)
		})
	}
}

func TestValidate_NonCamelCaseName(t *testing.T) {
	def := validDefinition()
	def.Name = "success_rate"
	def.ID = "business_agent_success_rate"

	r := newTestValidator().Validate(def)
	naming := findingsFor(r.Errors, "naming")
	require.NotEmpty(t, naming)
	assert.Equal(t, "successRate", naming[0].Suggestion)
}

func TestValidate_Coherence(t *testing.T) {
	t.Run("boolean unit needs boolean data", func(t *testing.T) {
		def := validDefinition()
		def.Unit = metric.UnitBoolean
		def.Name = "successRate"
		def.Format = metric.Format{Display: metric.DisplayBoolean}
		def.QualityThresholds = metric.QualityThresholds{Excellent: 1, Good: 0.75, Warning: 0.5, Critical: 0.25}

		r := newTestValidator().Validate(def)
		require.Len(t, findingsFor(r.Errors, "unit-coherence"), 1)
	})

	t.Run("percentage shown as number", func(t *testing.T) {
		def := validDefinition()
		def.Format = metric.Format{Display: metric.DisplayNumber}

		r := newTestValidator().Validate(def)
		warns := findingsFor(r.Warnings, "unit-coherence")
		require.Len(t, warns, 1)
		assert.Equal(t, "percentage", warns[0].Suggestion)
	})

	t.Run("count stored as float", func(t *testing.T) {
		def := validDefinition()
		def.Name = "totalSessions"
		def.ID = "business_agent_totalSessions"
		def.Unit = metric.UnitCount
		def.Format = metric.Format{Display: metric.DisplayNumber}
		def.QualityThresholds = metric.QualityThresholds{Excellent: 1000, Good: 500, Warning: 100, Critical: 10}

		r := newTestValidator().Validate(def)
		require.Len(t, findingsFor(r.Warnings, "unit-coherence"), 1)
	})
}

func TestValidate_FormulaHeuristics(t *testing.T) {
	def := validDefinition()
	def.Formula = "successfulTasks / totalTasks"

	r := newTestValidator().Validate(def)
	warns := findingsFor(r.Warnings, "formula")
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Message, "zero-denominator")

	def.Formula = "42"
	r = newTestValidator().Validate(def)
	require.Len(t, findingsFor(r.Warnings, "formula"), 1)
}

func TestValidate_Governance(t *testing.T) {
	t.Run("stale review", func(t *testing.T) {
		def := validDefinition()
		def.Governance.LastReviewed = "2025-06-01"

		r := newTestValidator().Validate(def)
		require.Len(t, findingsFor(r.Warnings, "governance"), 1)
		assert.True(t, r.IsValid)
		assert.Equal(t, 95, r.Score)
	})

	t.Run("monthly review within window", func(t *testing.T) {
		def := validDefinition()
		def.Governance.ReviewCycle = metric.ReviewMonthly
		def.Governance.LastReviewed = "2026-02-01T09:00:00Z"

		r := newTestValidator().Validate(def)
		assert.Empty(t, findingsFor(r.Warnings, "governance"))
	})

	t.Run("unparseable date", func(t *testing.T) {
		def := validDefinition()
		def.Governance.LastReviewed = "last spring"

		r := newTestValidator().Validate(def)
		require.Len(t, findingsFor(r.Errors, "governance"), 1)
	})
}

func TestValidate_Tags(t *testing.T) {
	def := validDefinition()
	def.Tags = []string{"Agent-Ops"}

	r := newTestValidator().Validate(def)
	warns := findingsFor(r.Warnings, "tags")
	require.Len(t, warns, 2)
	assert.Equal(t, "agent_ops", warns[0].Suggestion)
}

func TestValidate_EmptyDefinitionScoreFloorsAtZero(t *testing.T) {
	r := newTestValidator().Validate(&metric.Definition{})

	assert.False(t, r.IsValid)
	assert.Equal(t, 0, r.Score)
	assert.Len(t, findingsFor(r.Errors, "required"), len(metric.RequiredFields)-1)

	assert.Equal(t, 0, newTestValidator().Validate(nil).Score)
}

func TestValidate_InvalidEnums(t *testing.T) {
	def := validDefinition()
	def.Unit = "furlongs"
	def.Level = "L9"

	r := newTestValidator().Validate(def)
	fields := []string{}
	for _, f := range findingsFor(r.Errors, "required") {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"unit", "level"}, fields)
}

func TestValidateAll(t *testing.T) {
	bad := validDefinition()
	bad.Version = "one"

	s := newTestValidator().ValidateAll([]*metric.Definition{validDefinition(), bad})
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Valid)
	assert.Equal(t, 1, s.Invalid)
	require.Len(t, s.Results, 2)
}

type alwaysWarn struct{}

func (alwaysWarn) Name() string { return "custom" }
func (alwaysWarn) Check(*metric.Definition) []Finding {
	return []Finding{{Message: "custom finding"}}
}

func TestWithRules(t *testing.T) {
	r := New(WithClock(func() time.Time { return fixedNow }), WithRules(alwaysWarn{})).Validate(validDefinition())

	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "custom", r.Warnings[0].Rule)
	assert.Equal(t, 95, r.Score)
}

func TestSplitWords(t *testing.T) {
	tests := map[string][]string{
		"respTime":       {"resp", "Time"},
		"avgResponseMs":  {"avg", "Response", "Ms"},
		"HTTPStatusCode": {"HTTP", "Status", "Code"},
		"error_count":    {"error", "count"},
		"p99Latency":     {"p99", "Latency"},
	}
	for in, want := range tests {
		assert.Equal(t, want, SplitWords(in), in)
	}
	assert.Equal(t, "httpStatusCode", ToCamelCase("HTTPStatusCode"))
}
