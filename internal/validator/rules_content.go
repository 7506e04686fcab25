package validator

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zqshi/metricstd/internal/metric"
)

var (
	operatorPattern = regexp.MustCompile(`[+\-*/÷×()]`)
	variablePattern = regexp.MustCompile(`[A-Za-z_]`)
	divisionPattern = regexp.MustCompile(`[/÷]`)
	guardPattern    = regexp.MustCompile(`(?i)(zero|!=\s*0|≠\s*0|>\s*0|nullif|guard|denominator|safe_div)`)
	tagPattern      = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// RecognizedTags are the top-level tags every definition should carry at
// least one of.
var RecognizedTags = []string{
	"core", "kpi", "business", "performance", "quality", "cost",
	"user", "system", "security", "technical", "monitoring",
}

// FormulaRule applies light heuristics to the formula text.
type FormulaRule struct{}

func (r *FormulaRule) Name() string { return "formula" }

func (r *FormulaRule) Check(def *metric.Definition) []Finding {
	if def.Formula == "" {
		return nil
	}
	var findings []Finding
	if !operatorPattern.MatchString(def.Formula) && !variablePattern.MatchString(def.Formula) {
		findings = append(findings, Finding{
			Level:   LevelWarning,
			Field:   "formula",
			Message: fmt.Sprintf("formula %q contains neither an operator nor a variable", def.Formula),
		})
	}
	if divisionPattern.MatchString(def.Formula) && !guardPattern.MatchString(def.Formula) {
		findings = append(findings, Finding{
			Level:      LevelWarning,
			Field:      "formula",
			Message:    "formula divides without stating a zero-denominator guard",
			Suggestion: "document the result when the denominator is 0",
		})
	}
	return findings
}

// reviewWindow is the review cadence; reviews older than 1.5 windows are stale.
var reviewWindow = map[metric.ReviewCycle]time.Duration{
	metric.ReviewMonthly:   30 * 24 * time.Hour,
	metric.ReviewQuarterly: 90 * 24 * time.Hour,
	metric.ReviewYearly:    365 * 24 * time.Hour,
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

// ParseDate accepts RFC 3339 timestamps and bare dates.
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// GovernanceRule checks the review date and flags overdue reviews.
type GovernanceRule struct {
	Now func() time.Time
}

func (r *GovernanceRule) Name() string { return "governance" }

func (r *GovernanceRule) Check(def *metric.Definition) []Finding {
	g := def.Governance
	if g.LastReviewed == "" {
		return nil
	}
	reviewed, err := ParseDate(g.LastReviewed)
	if err != nil {
		return []Finding{{
			Level:      LevelError,
			Field:      "governance.lastReviewed",
			Message:    fmt.Sprintf("lastReviewed %q is not a valid date", g.LastReviewed),
			Suggestion: "use YYYY-MM-DD",
		}}
	}

	var findings []Finding
	window, ok := reviewWindow[g.ReviewCycle]
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	if ok && now().Sub(reviewed) > window*3/2 {
		findings = append(findings, Finding{
			Level:      LevelWarning,
			Field:      "governance.lastReviewed",
			Message:    fmt.Sprintf("%s review last done %s is overdue", g.ReviewCycle, g.LastReviewed),
			Suggestion: "schedule a governance review",
		})
	}
	return findings
}

// TagRule checks tag spelling and requires one recognized top-level tag.
type TagRule struct{}

func (r *TagRule) Name() string { return "tags" }

func (r *TagRule) Check(def *metric.Definition) []Finding {
	if len(def.Tags) == 0 {
		return nil
	}
	var findings []Finding
	recognized := false
	for _, tag := range def.Tags {
		if !tagPattern.MatchString(tag) {
			findings = append(findings, Finding{
				Level:      LevelWarning,
				Field:      "tags",
				Message:    fmt.Sprintf("tag %q should be lower_snake_case", tag),
				Suggestion: toSnake(tag),
			})
		}
		for _, known := range RecognizedTags {
			if tag == known {
				recognized = true
			}
		}
	}
	if !recognized {
		findings = append(findings, Finding{
			Level:      LevelWarning,
			Field:      "tags",
			Message:    "no recognized top-level tag present",
			Suggestion: fmt.Sprintf("add one of %v", RecognizedTags),
		})
	}
	return findings
}

func toSnake(s string) string {
	return strings.ToLower(strings.Join(SplitWords(s), "_"))
}
