// Package validator scores metric definitions against the naming, unit,
// threshold, versioning, governance and tagging conventions.
package validator

import "github.com/zqshi/metricstd/internal/metric"

// Level distinguishes hard errors from advisory warnings.
type Level int

const (
	// LevelWarning findings lower the score but never invalidate a definition.
	LevelWarning Level = iota
	// LevelError findings invalidate the definition.
	LevelError
)

// String returns the human-readable level name.
func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Finding is a single problem reported by a rule.
type Finding struct {
	Level      Level  `json:"-"`
	Rule       string `json:"rule"`
	Field      string `json:"field,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Result is the outcome of validating one definition.
type Result struct {
	ID       string    `json:"id"`
	IsValid  bool      `json:"isValid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
	Score    int       `json:"score"`
}

// Rule checks one aspect of a definition.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check returns every finding for def; it must not mutate def.
	Check(def *metric.Definition) []Finding
}

const (
	errorPenalty   = 15
	warningPenalty = 5
)

// score starts at 100 and subtracts per finding, floored at zero.
func score(errs, warns int) int {
	s := 100 - errs*errorPenalty - warns*warningPenalty
	if s < 0 {
		return 0
	}
	return s
}
