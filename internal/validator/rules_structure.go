package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zqshi/metricstd/internal/metric"
)

var (
	idPattern      = regexp.MustCompile(`^[a-z]+_[a-z]+_[a-zA-Z]+$`)
	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// RequiredRule reports every missing required field and every enum value
// outside its closed set.
type RequiredRule struct{}

func (r *RequiredRule) Name() string { return "required" }

func (r *RequiredRule) Check(def *metric.Definition) []Finding {
	var findings []Finding
	for _, field := range metric.MissingFields(def) {
		findings = append(findings, Finding{
			Level:   LevelError,
			Field:   field,
			Message: fmt.Sprintf("required field %q is missing", field),
		})
	}

	invalid := func(field string, value any, valid bool) {
		if valid {
			return
		}
		findings = append(findings, Finding{
			Level:   LevelError,
			Field:   field,
			Message: fmt.Sprintf("%s %q is not a recognized value", field, value),
		})
	}
	if def.Category != "" {
		invalid("category", def.Category, def.Category.Valid())
	}
	if def.Level != "" {
		invalid("level", def.Level, def.Level.Valid())
	}
	if def.Unit != "" {
		invalid("unit", def.Unit, def.Unit.Valid())
	}
	if def.DataType != "" {
		invalid("dataType", def.DataType, def.DataType.Valid())
	}
	if def.Format.Display != "" {
		invalid("format.display", def.Format.Display, def.Format.Display.Valid())
	}
	if def.Governance.ReviewCycle != "" {
		invalid("governance.reviewCycle", def.Governance.ReviewCycle, def.Governance.ReviewCycle.Valid())
	}
	if def.Governance.ApprovalStatus != "" {
		invalid("governance.approvalStatus", def.Governance.ApprovalStatus, def.Governance.ApprovalStatus.Valid())
	}
	if def.Direction != "" {
		invalid("direction", def.Direction, def.Direction == metric.HigherIsBetter || def.Direction == metric.LowerIsBetter)
	}

	if def.Precision < 0 {
		findings = append(findings, Finding{
			Level:   LevelError,
			Field:   "precision",
			Message: fmt.Sprintf("precision must not be negative, got %d", def.Precision),
		})
	}
	if def.Range != nil && def.Range.Min > def.Range.Max {
		findings = append(findings, Finding{
			Level:   LevelError,
			Field:   "range",
			Message: fmt.Sprintf("range min %g exceeds max %g", def.Range.Min, def.Range.Max),
		})
	}
	return findings
}

// IDFormatRule checks the {category}_{domain}_{name} id layout.
type IDFormatRule struct{}

func (r *IDFormatRule) Name() string { return "id-format" }

func (r *IDFormatRule) Check(def *metric.Definition) []Finding {
	if def.ID == "" {
		return nil
	}
	expected := expectedID(def)

	if !idPattern.MatchString(def.ID) {
		return []Finding{{
			Level:      LevelError,
			Field:      "id",
			Message:    fmt.Sprintf("id %q does not match the {category}_{domain}_{name} format", def.ID),
			Suggestion: expected,
		}}
	}

	var findings []Finding
	if def.Category != "" && !strings.HasPrefix(def.ID, string(def.Category)+"_") {
		findings = append(findings, Finding{
			Level:      LevelError,
			Field:      "id",
			Message:    fmt.Sprintf("id %q does not start with category %q", def.ID, def.Category),
			Suggestion: expected,
		})
	}
	if def.Name != "" && !strings.HasSuffix(def.ID, "_"+def.Name) {
		findings = append(findings, Finding{
			Level:      LevelError,
			Field:      "id",
			Message:    fmt.Sprintf("id %q does not end with name %q", def.ID, def.Name),
			Suggestion: expected,
		})
	}
	return findings
}

// expectedID proposes an id from the category, first domain and name, or ""
// when any of them is missing.
func expectedID(def *metric.Definition) string {
	if def.Category == "" || def.Name == "" || len(def.Domain) == 0 {
		return ""
	}
	return fmt.Sprintf("%s_%s_%s", def.Category, strings.ToLower(def.Domain[0]), def.Name)
}

// CoherenceRule cross-checks unit, data type and display format.
type CoherenceRule struct{}

func (r *CoherenceRule) Name() string { return "unit-coherence" }

func (r *CoherenceRule) Check(def *metric.Definition) []Finding {
	if def.Unit == "" {
		return nil
	}
	var findings []Finding

	if def.Unit == metric.UnitBoolean && def.DataType != "" && def.DataType != metric.DataTypeBoolean {
		findings = append(findings, Finding{
			Level:      LevelError,
			Field:      "dataType",
			Message:    fmt.Sprintf("unit boolean requires data type boolean, got %q", def.DataType),
			Suggestion: string(metric.DataTypeBoolean),
		})
	}
	if def.Unit.IsIntegral() && def.DataType == metric.DataTypeFloat {
		findings = append(findings, Finding{
			Level:      LevelWarning,
			Field:      "dataType",
			Message:    fmt.Sprintf("unit %q counts whole values but data type is float", def.Unit),
			Suggestion: string(metric.DataTypeInteger),
		})
	}

	display := def.Format.Display
	if display == "" {
		return findings
	}
	switch {
	case def.Unit == metric.UnitPercentage && display != metric.DisplayPercentage:
		findings = append(findings, Finding{
			Level:      LevelWarning,
			Field:      "format.display",
			Message:    fmt.Sprintf("unit percentage is displayed as %q", display),
			Suggestion: string(metric.DisplayPercentage),
		})
	case def.Unit.Class() == metric.UnitClassCurrency && display != metric.DisplayCurrency:
		findings = append(findings, Finding{
			Level:      LevelWarning,
			Field:      "format.display",
			Message:    fmt.Sprintf("currency unit %q is displayed as %q", def.Unit, display),
			Suggestion: string(metric.DisplayCurrency),
		})
	}
	return findings
}

// ThresholdRule checks breakpoint ordering and percentage bounds.
type ThresholdRule struct{}

func (r *ThresholdRule) Name() string { return "thresholds" }

func (r *ThresholdRule) Check(def *metric.Definition) []Finding {
	q := def.QualityThresholds
	if q.IsZero() {
		return nil
	}
	var findings []Finding

	if !q.Ordered() {
		findings = append(findings, Finding{
			Level:   LevelError,
			Field:   "qualityThresholds",
			Message: fmt.Sprintf("quality thresholds %v must satisfy excellent > good > warning > critical", q.Values()),
		})
	}

	if def.Unit == metric.UnitPercentage {
		for _, v := range q.Values() {
			if v < 0 || v > 100 {
				findings = append(findings, Finding{
					Level:   LevelError,
					Field:   "qualityThresholds",
					Message: fmt.Sprintf("percentage threshold %g is outside [0, 100]", v),
				})
				break
			}
		}
	}
	return findings
}

// VersionRule requires semantic versions.
type VersionRule struct{}

func (r *VersionRule) Name() string { return "version" }

func (r *VersionRule) Check(def *metric.Definition) []Finding {
	if def.Version == "" || versionPattern.MatchString(def.Version) {
		return nil
	}
	return []Finding{{
		Level:      LevelError,
		Field:      "version",
		Message:    fmt.Sprintf("version %q is not in MAJOR.MINOR.PATCH form", def.Version),
		Suggestion: "1.0.0",
	}}
}
