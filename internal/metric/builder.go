package metric

import (
	"fmt"
	"slices"
	"time"

	"github.com/zqshi/metricstd/internal/foundation/errors"
)

// Builder assembles a Definition through chained setters. Build checks that
// every required field is present and fails on the first one missing.
type Builder struct {
	def          Definition
	precisionSet bool
	now          func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the time source used for the synthetic create record.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder starts an empty definition.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) ID(id string) *Builder                   { b.def.ID = id; return b }
func (b *Builder) Name(name string) *Builder               { b.def.Name = name; return b }
func (b *Builder) DisplayName(name string) *Builder        { b.def.DisplayName = name; return b }
func (b *Builder) Category(c Category) *Builder            { b.def.Category = c; return b }
func (b *Builder) Level(l Level) *Builder                  { b.def.Level = l; return b }
func (b *Builder) Description(text string) *Builder        { b.def.Description = text; return b }
func (b *Builder) Formula(formula string) *Builder         { b.def.Formula = formula; return b }
func (b *Builder) Unit(u Unit) *Builder                    { b.def.Unit = u; return b }
func (b *Builder) DataType(t DataType) *Builder            { b.def.DataType = t; return b }
func (b *Builder) Format(f Format) *Builder                { b.def.Format = f; return b }
func (b *Builder) Direction(d Direction) *Builder          { b.def.Direction = d; return b }
func (b *Builder) Governance(g Governance) *Builder        { b.def.Governance = g; return b }
func (b *Builder) Version(v string) *Builder               { b.def.Version = v; return b }
func (b *Builder) Thresholds(q QualityThresholds) *Builder { b.def.QualityThresholds = q; return b }

// Precision sets the number of decimal places.
func (b *Builder) Precision(p int) *Builder {
	b.def.Precision = p
	b.precisionSet = true
	return b
}

// Range sets the admissible value range.
func (b *Builder) Range(minValue, maxValue float64) *Builder {
	b.def.Range = &Range{Min: minValue, Max: maxValue}
	return b
}

// Domain adds applicability tags.
func (b *Builder) Domain(domains ...string) *Builder {
	b.def.Domain = append(b.def.Domain, domains...)
	return b
}

// Tags adds labels.
func (b *Builder) Tags(tags ...string) *Builder {
	b.def.Tags = append(b.def.Tags, tags...)
	return b
}

// Dependencies adds ids of metrics this one is computed from.
func (b *Builder) Dependencies(ids ...string) *Builder {
	b.def.Dependencies = append(b.def.Dependencies, ids...)
	return b
}

// DerivedMetrics adds ids of metrics computed from this one.
func (b *Builder) DerivedMetrics(ids ...string) *Builder {
	b.def.DerivedMetrics = append(b.def.DerivedMetrics, ids...)
	return b
}

// Change appends a change history record.
func (b *Builder) Change(rec ChangeRecord) *Builder {
	b.def.ChangeHistory = append(b.def.ChangeHistory, rec)
	return b
}

// Metadata sets an opaque extension value.
func (b *Builder) Metadata(key string, value any) *Builder {
	if b.def.Metadata == nil {
		b.def.Metadata = make(map[string]any)
	}
	b.def.Metadata[key] = value
	return b
}

// Build returns the completed definition or a validation error naming the
// first missing required field. The builder can be reused after Build; the
// returned definition shares no state with it.
func (b *Builder) Build() (*Definition, error) {
	if field := missingField(&b.def, b.precisionSet); field != "" {
		return nil, errors.ValidationError(fmt.Sprintf("metric definition missing required field %q", field)).
			WithContext("field", field).
			WithContext("id", b.def.ID).
			Build()
	}

	def := b.def.Clone()
	def.Domain = sortedUnique(def.Domain)
	def.Tags = sortedUnique(def.Tags)
	def.Dependencies = sortedUnique(def.Dependencies)
	def.DerivedMetrics = sortedUnique(def.DerivedMetrics)
	if def.Metadata == nil {
		def.Metadata = map[string]any{}
	}
	if len(def.ChangeHistory) == 0 {
		def.ChangeHistory = []ChangeRecord{{
			Version:     def.Version,
			Date:        b.now().UTC().Format(time.RFC3339),
			Author:      def.Governance.Owner,
			Type:        ChangeCreate,
			Description: "Initial definition",
		}}
	}
	return def, nil
}

func sortedUnique(values []string) []string {
	out := slices.Clone(values)
	if out == nil {
		return []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
