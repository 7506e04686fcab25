// Package metric defines the standardized metric definition model and its builder.
package metric

import (
	"maps"
	"slices"
)

// Category groups definitions by business concern.
type Category string

const (
	CategoryBusiness    Category = "business"
	CategoryPerformance Category = "performance"
	CategoryQuality     Category = "quality"
	CategoryCost        Category = "cost"
	CategoryUser        Category = "user"
	CategorySystem      Category = "system"
	CategorySecurity    Category = "security"
)

// Level ranks a definition by importance.
type Level string

const (
	LevelCoreBusiness        Level = "L1"
	LevelSupportingAnalysis  Level = "L2"
	LevelTechnicalMonitoring Level = "L3"
)

// Description returns the human label for a level.
func (l Level) Description() string {
	switch l {
	case LevelCoreBusiness:
		return "core business"
	case LevelSupportingAnalysis:
		return "supporting analysis"
	case LevelTechnicalMonitoring:
		return "technical monitoring"
	default:
		return "unknown"
	}
}

// Unit is the closed set of measurement units.
type Unit string

const (
	UnitCount         Unit = "count"
	UnitPercentage    Unit = "percentage"
	UnitRatio         Unit = "ratio"
	UnitRate          Unit = "rate"
	UnitMilliseconds  Unit = "ms"
	UnitSeconds       Unit = "s"
	UnitMinutes       Unit = "min"
	UnitHours         Unit = "h"
	UnitDays          Unit = "day"
	UnitBytes         Unit = "bytes"
	UnitKilobytes     Unit = "kb"
	UnitMegabytes     Unit = "mb"
	UnitGigabytes     Unit = "gb"
	UnitTerabytes     Unit = "tb"
	UnitCNY           Unit = "cny"
	UnitUSD           Unit = "usd"
	UnitEUR           Unit = "eur"
	UnitScore         Unit = "score"
	UnitBoolean       Unit = "boolean"
	UnitDimensionless Unit = "dimensionless"
)

// UnitClass groups units that share naming and formatting conventions.
type UnitClass string

const (
	UnitClassTime     UnitClass = "time"
	UnitClassRatio    UnitClass = "ratio"
	UnitClassCount    UnitClass = "count"
	UnitClassCurrency UnitClass = "currency"
	UnitClassDataSize UnitClass = "data_size"
	UnitClassBoolean  UnitClass = "boolean"
	UnitClassOther    UnitClass = "other"
)

// Class returns the unit class.
func (u Unit) Class() UnitClass {
	switch u {
	case UnitMilliseconds, UnitSeconds, UnitMinutes, UnitHours, UnitDays:
		return UnitClassTime
	case UnitPercentage, UnitRatio, UnitRate:
		return UnitClassRatio
	case UnitCount:
		return UnitClassCount
	case UnitCNY, UnitUSD, UnitEUR:
		return UnitClassCurrency
	case UnitBytes, UnitKilobytes, UnitMegabytes, UnitGigabytes, UnitTerabytes:
		return UnitClassDataSize
	case UnitBoolean:
		return UnitClassBoolean
	default:
		return UnitClassOther
	}
}

// IsIntegral reports whether values of the unit are whole numbers.
func (u Unit) IsIntegral() bool {
	return u == UnitCount || u == UnitBytes
}

// DataType is the storage type of a metric value.
type DataType string

const (
	DataTypeInteger   DataType = "integer"
	DataTypeFloat     DataType = "float"
	DataTypeBoolean   DataType = "boolean"
	DataTypeString    DataType = "string"
	DataTypeTimestamp DataType = "timestamp"
)

// DisplayKind tells renderers how to present a value.
type DisplayKind string

const (
	DisplayNumber     DisplayKind = "number"
	DisplayPercentage DisplayKind = "percentage"
	DisplayCurrency   DisplayKind = "currency"
	DisplayDuration   DisplayKind = "duration"
	DisplayBytes      DisplayKind = "bytes"
	DisplayText       DisplayKind = "text"
	DisplayBoolean    DisplayKind = "boolean"
)

// QualityLevel is a classification band derived from QualityThresholds.
type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent"
	QualityGood      QualityLevel = "good"
	QualityWarning   QualityLevel = "warning"
	QualityCritical  QualityLevel = "critical"
)

// Format carries display hints for renderers.
type Format struct {
	Display            DisplayKind             `json:"display"`
	ThousandsSeparator bool                    `json:"thousandsSeparator,omitempty"`
	Prefix             string                  `json:"prefix,omitempty"`
	Suffix             string                  `json:"suffix,omitempty"`
	Colors             map[QualityLevel]string `json:"colors,omitempty"`
}

// Range bounds the admissible values.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// QualityThresholds are the four classification breakpoints.
type QualityThresholds struct {
	Excellent float64 `json:"excellent"`
	Good      float64 `json:"good"`
	Warning   float64 `json:"warning"`
	Critical  float64 `json:"critical"`
}

// IsZero reports whether no breakpoint was set.
func (q QualityThresholds) IsZero() bool {
	return q == QualityThresholds{}
}

// Direction states whether larger values are better.
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// ReviewCycle is the governance review cadence.
type ReviewCycle string

const (
	ReviewMonthly   ReviewCycle = "monthly"
	ReviewQuarterly ReviewCycle = "quarterly"
	ReviewYearly    ReviewCycle = "yearly"
)

// ApprovalStatus is the governance approval state.
type ApprovalStatus string

const (
	ApprovalDraft      ApprovalStatus = "draft"
	ApprovalPending    ApprovalStatus = "pending"
	ApprovalApproved   ApprovalStatus = "approved"
	ApprovalDeprecated ApprovalStatus = "deprecated"
)

// Governance holds ownership, review cadence and approval metadata.
type Governance struct {
	Owner          string         `json:"owner"`
	ReviewCycle    ReviewCycle    `json:"reviewCycle"`
	LastReviewed   string         `json:"lastReviewed"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	Approvers      []string       `json:"approvers,omitempty"`
	ApprovalDate   string         `json:"approvalDate,omitempty"`
}

// ChangeType classifies a change record.
type ChangeType string

const (
	ChangeCreate    ChangeType = "create"
	ChangeUpdate    ChangeType = "update"
	ChangeDeprecate ChangeType = "deprecate"
)

// ChangeRecord is one entry of a definition's change history.
type ChangeRecord struct {
	Version     string     `json:"version"`
	Date        string     `json:"date"`
	Author      string     `json:"author"`
	Type        ChangeType `json:"type"`
	Description string     `json:"description"`
}

// Definition is a single standardized metric's full metadata record.
// Dependencies and DerivedMetrics hold ids only; they are resolved through a
// registry lookup and may dangle.
type Definition struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	DisplayName       string            `json:"displayName"`
	Category          Category          `json:"category"`
	Level             Level             `json:"level"`
	Domain            []string          `json:"domain"`
	Description       string            `json:"description"`
	Formula           string            `json:"formula"`
	Unit              Unit              `json:"unit"`
	DataType          DataType          `json:"dataType"`
	Format            Format            `json:"format"`
	Precision         int               `json:"precision"`
	Range             *Range            `json:"range,omitempty"`
	QualityThresholds QualityThresholds `json:"qualityThresholds"`
	Direction         Direction         `json:"direction,omitempty"`
	Governance        Governance        `json:"governance"`
	Version           string            `json:"version"`
	ChangeHistory     []ChangeRecord    `json:"changeHistory"`
	Dependencies      []string          `json:"dependencies"`
	DerivedMetrics    []string          `json:"derivedMetrics"`
	Tags              []string          `json:"tags"`
	Metadata          map[string]any    `json:"metadata"`
}

// EffectiveDirection returns the direction, defaulting to HigherIsBetter.
func (d *Definition) EffectiveDirection() Direction {
	if d.Direction == "" {
		return HigherIsBetter
	}
	return d.Direction
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	c := *d
	c.Domain = slices.Clone(d.Domain)
	c.Tags = slices.Clone(d.Tags)
	c.Dependencies = slices.Clone(d.Dependencies)
	c.DerivedMetrics = slices.Clone(d.DerivedMetrics)
	c.ChangeHistory = slices.Clone(d.ChangeHistory)
	c.Governance.Approvers = slices.Clone(d.Governance.Approvers)
	c.Format.Colors = maps.Clone(d.Format.Colors)
	c.Metadata = maps.Clone(d.Metadata)
	if d.Range != nil {
		r := *d.Range
		c.Range = &r
	}
	return &c
}

// HasTag reports whether the definition carries tag.
func (d *Definition) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// InDomain reports whether the definition applies to domain.
func (d *Definition) InDomain(domain string) bool {
	return slices.Contains(d.Domain, domain)
}
