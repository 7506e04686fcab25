// Package consistency scans a source tree for metric field usages and
// reports where they drift from the registered standard.
//
// The scan is a line-oriented textual heuristic driven by a YAML rule table,
// not a parser. A scan is single-threaded and stops at the first context
// cancellation, discarding partial results.
package consistency

import (
	"encoding/json"
	"fmt"
	"time"
)

// Severity ranks an inconsistency.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the severity name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, candidate := range Severities() {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", name)
}

// Severities lists every severity from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// IssueType is the coarse inconsistency classification.
type IssueType string

const (
	TypeNaming     IssueType = "naming"
	TypeFormat     IssueType = "format"
	TypeDependency IssueType = "dependency"
	TypeDuplicate  IssueType = "duplicate"
	TypeMissing    IssueType = "missing"
)

// Rule names the analysis that produced an inconsistency.
type Rule string

const (
	RuleNamingDrift     Rule = "naming_drift"
	RuleUnitDrift       Rule = "unit_drift"
	RuleRangeDrift      Rule = "range_drift"
	RuleDuplicate       Rule = "duplicate_definition"
	RuleMissingStandard Rule = "missing_standard"
)

// Usage is one pattern match in a scanned file.
type Usage struct {
	File    string    `json:"file"`
	Line    int       `json:"line"`
	Field   string    `json:"field"`
	Value   string    `json:"value,omitempty"`
	Numeric float64   `json:"numeric,omitempty"`
	HasNum  bool      `json:"-"`
	Kind    FieldKind `json:"kind,omitempty"`
	Context string    `json:"context"`
}

// Location points at a line involved in an inconsistency. Field and Value
// carry the literal text found there so a fixer can target it.
type Location struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// String renders file:line.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Inconsistency is one finding of an analysis.
type Inconsistency struct {
	ID              string     `json:"id"`
	Type            IssueType  `json:"type"`
	Rule            Rule       `json:"rule"`
	Severity        Severity   `json:"severity"`
	Description     string     `json:"description"`
	AffectedMetrics []string   `json:"affectedMetrics"`
	Locations       []Location `json:"locations"`
	Suggestion      string     `json:"suggestion"`
	AutoFixable     bool       `json:"autoFixable"`

	// From and To describe a naming replacement.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Report is the outcome of a scan.
type Report struct {
	ID              string          `json:"id"`
	Root            string          `json:"root"`
	TotalMetrics    int             `json:"totalMetrics"`
	ValidMetrics    int             `json:"validMetrics"`
	InvalidMetrics  int             `json:"invalidMetrics"`
	FilesScanned    int             `json:"filesScanned"`
	FilesSkipped    int             `json:"filesSkipped"`
	UsageCount      int             `json:"usageCount"`
	Inconsistencies []Inconsistency `json:"inconsistencies"`
	Suggestions     []string        `json:"suggestions"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// CountBySeverity counts inconsistencies per severity.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, inc := range r.Inconsistencies {
		counts[inc.Severity]++
	}
	return counts
}

// HighestSeverity returns the most severe finding and false when the report
// is clean.
func (r *Report) HighestSeverity() (Severity, bool) {
	if len(r.Inconsistencies) == 0 {
		return SeverityLow, false
	}
	highest := SeverityLow
	for _, inc := range r.Inconsistencies {
		if inc.Severity > highest {
			highest = inc.Severity
		}
	}
	return highest, true
}

// AutoFixable returns the inconsistencies marked auto-fixable, in report order.
func (r *Report) AutoFixable() []Inconsistency {
	var out []Inconsistency
	for _, inc := range r.Inconsistencies {
		if inc.AutoFixable {
			out = append(out, inc)
		}
	}
	return out
}
