package validator

import (
	"time"

	"github.com/zqshi/metricstd/internal/metric"
)

// Validator runs a fixed rule set. It holds no state besides its rules and
// clock, so one instance may be shared.
type Validator struct {
	rules []Rule
	now   func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the time source used for governance staleness.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithRules appends extra rules after the built-in ones.
func WithRules(rules ...Rule) Option {
	return func(v *Validator) { v.rules = append(v.rules, rules...) }
}

// New creates a validator with the built-in rules.
func New(opts ...Option) *Validator {
	v := &Validator{now: time.Now}
	clock := func() time.Time { return v.now() }
	v.rules = []Rule{
		&RequiredRule{},
		&IDFormatRule{},
		&NamingRule{},
		&CoherenceRule{},
		&ThresholdRule{},
		&VersionRule{},
		&FormulaRule{},
		&GovernanceRule{Now: clock},
		&TagRule{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate scores def. It never fails: every problem is returned in the result.
func (v *Validator) Validate(def *metric.Definition) Result {
	result := Result{Errors: []Finding{}, Warnings: []Finding{}}
	if def == nil {
		def = &metric.Definition{}
	}
	result.ID = def.ID

	for _, rule := range v.rules {
		for _, f := range rule.Check(def) {
			if f.Rule == "" {
				f.Rule = rule.Name()
			}
			if f.Level == LevelError {
				result.Errors = append(result.Errors, f)
			} else {
				result.Warnings = append(result.Warnings, f)
			}
		}
	}

	result.IsValid = len(result.Errors) == 0
	result.Score = score(len(result.Errors), len(result.Warnings))
	return result
}

// Summary aggregates results over many definitions.
type Summary struct {
	Total   int      `json:"total"`
	Valid   int      `json:"valid"`
	Invalid int      `json:"invalid"`
	Results []Result `json:"results"`
}

// ValidateAll validates every definition in order.
func (v *Validator) ValidateAll(defs []*metric.Definition) Summary {
	s := Summary{Results: make([]Result, 0, len(defs))}
	for _, def := range defs {
		r := v.Validate(def)
		s.Total++
		if r.IsValid {
			s.Valid++
		} else {
			s.Invalid++
		}
		s.Results = append(s.Results, r)
	}
	return s
}

var defaultValidator = New()

// Validate scores def with the built-in rules and the wall clock.
func Validate(def *metric.Definition) Result {
	return defaultValidator.Validate(def)
}
