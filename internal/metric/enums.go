package metric

import (
	"strings"

	"github.com/zqshi/metricstd/internal/foundation/normalization"
)

var (
	categoryNormalizer = normalization.NewNormalizer("category", map[string]Category{
		"business":    CategoryBusiness,
		"performance": CategoryPerformance,
		"quality":     CategoryQuality,
		"cost":        CategoryCost,
		"user":        CategoryUser,
		"system":      CategorySystem,
		"security":    CategorySecurity,
	}, "")

	levelNormalizer = normalization.WithCustomNormalizer("level", map[string]Level{
		"L1":                   LevelCoreBusiness,
		"CORE-BUSINESS":        LevelCoreBusiness,
		"L2":                   LevelSupportingAnalysis,
		"SUPPORTING-ANALYSIS":  LevelSupportingAnalysis,
		"L3":                   LevelTechnicalMonitoring,
		"TECHNICAL-MONITORING": LevelTechnicalMonitoring,
	}, "", func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) })

	unitNormalizer = normalization.NewNormalizer("unit", map[string]Unit{
		"count":         UnitCount,
		"percentage":    UnitPercentage,
		"ratio":         UnitRatio,
		"rate":          UnitRate,
		"ms":            UnitMilliseconds,
		"s":             UnitSeconds,
		"min":           UnitMinutes,
		"h":             UnitHours,
		"day":           UnitDays,
		"bytes":         UnitBytes,
		"kb":            UnitKilobytes,
		"mb":            UnitMegabytes,
		"gb":            UnitGigabytes,
		"tb":            UnitTerabytes,
		"cny":           UnitCNY,
		"usd":           UnitUSD,
		"eur":           UnitEUR,
		"score":         UnitScore,
		"boolean":       UnitBoolean,
		"dimensionless": UnitDimensionless,
	}, "")

	dataTypeNormalizer = normalization.NewNormalizer("data type", map[string]DataType{
		"integer":   DataTypeInteger,
		"float":     DataTypeFloat,
		"boolean":   DataTypeBoolean,
		"string":    DataTypeString,
		"timestamp": DataTypeTimestamp,
	}, "")

	displayNormalizer = normalization.NewNormalizer("display kind", map[string]DisplayKind{
		"number":     DisplayNumber,
		"percentage": DisplayPercentage,
		"currency":   DisplayCurrency,
		"duration":   DisplayDuration,
		"bytes":      DisplayBytes,
		"text":       DisplayText,
		"boolean":    DisplayBoolean,
	}, "")

	reviewCycleNormalizer = normalization.NewNormalizer("review cycle", map[string]ReviewCycle{
		"monthly":   ReviewMonthly,
		"quarterly": ReviewQuarterly,
		"yearly":    ReviewYearly,
	}, "")

	approvalNormalizer = normalization.NewNormalizer("approval status", map[string]ApprovalStatus{
		"draft":      ApprovalDraft,
		"pending":    ApprovalPending,
		"approved":   ApprovalApproved,
		"deprecated": ApprovalDeprecated,
	}, "")
)

// ParseCategory parses a category name case-insensitively.
func ParseCategory(raw string) (Category, error) { return categoryNormalizer.Parse(raw) }

// ParseLevel accepts L1/L2/L3 or the long level names.
func ParseLevel(raw string) (Level, error) { return levelNormalizer.Parse(raw) }

// ParseUnit parses a unit symbol.
func ParseUnit(raw string) (Unit, error) { return unitNormalizer.Parse(raw) }

// ParseDataType parses a data type name.
func ParseDataType(raw string) (DataType, error) { return dataTypeNormalizer.Parse(raw) }

// ParseReviewCycle parses a review cadence.
func ParseReviewCycle(raw string) (ReviewCycle, error) { return reviewCycleNormalizer.Parse(raw) }

// ParseApprovalStatus parses an approval state.
func ParseApprovalStatus(raw string) (ApprovalStatus, error) { return approvalNormalizer.Parse(raw) }

func (c Category) Valid() bool       { return categoryNormalizer.IsValid(c) }
func (l Level) Valid() bool          { return levelNormalizer.IsValid(l) }
func (u Unit) Valid() bool           { return unitNormalizer.IsValid(u) }
func (t DataType) Valid() bool       { return dataTypeNormalizer.IsValid(t) }
func (k DisplayKind) Valid() bool    { return displayNormalizer.IsValid(k) }
func (r ReviewCycle) Valid() bool    { return reviewCycleNormalizer.IsValid(r) }
func (s ApprovalStatus) Valid() bool { return approvalNormalizer.IsValid(s) }

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryBusiness, CategoryPerformance, CategoryQuality, CategoryCost,
		CategoryUser, CategorySystem, CategorySecurity,
	}
}

// Levels lists every level in rank order.
func Levels() []Level {
	return []Level{LevelCoreBusiness, LevelSupportingAnalysis, LevelTechnicalMonitoring}
}
