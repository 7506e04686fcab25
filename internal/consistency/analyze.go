package consistency

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/zqshi/metricstd/internal/util/sets"
)

const (
	smallTimeBound = 100
	largeTimeBound = 1000
)

func (c *Checker) analyze(s *scan) *Report {
	var incs []Inconsistency
	incs = append(incs, c.namingDrift(s.namingUsages)...)
	incs = append(incs, unitDrift(s.usages)...)
	incs = append(incs, rangeDrift(s.usages)...)
	incs = append(incs, duplicateDeclarations(s.declarations)...)
	if inc, ok := c.missingStandard(s.usages); ok {
		incs = append(incs, inc)
	}
	sort.SliceStable(incs, func(i, j int) bool {
		return incs[i].Severity > incs[j].Severity
	})
	if incs == nil {
		incs = []Inconsistency{}
	}

	summary := c.validator.ValidateAll(c.registry.All())

	report := &Report{
		ID:              newReportID(),
		Root:            s.root,
		TotalMetrics:    c.registry.Len(),
		ValidMetrics:    summary.Valid,
		InvalidMetrics:  summary.Invalid,
		FilesScanned:    s.filesScanned,
		FilesSkipped:    s.filesSkipped,
		UsageCount:      len(s.usages) + len(s.namingUsages) + len(s.declarations),
		Inconsistencies: incs,
		GeneratedAt:     c.now().UTC(),
	}
	report.Suggestions = suggestions(report)
	return report
}

// fieldKey folds spelling variants of one logical field together:
// responseTime, response_time and ResponseTime share a key.
func fieldKey(field string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(field))
}

// groupBy buckets usages by key, returning the keys in ascending order.
func groupBy(usages []Usage, key func(Usage) (string, bool)) ([]string, map[string][]Usage) {
	groups := make(map[string][]Usage)
	for _, u := range usages {
		k, ok := key(u)
		if !ok {
			continue
		}
		groups[k] = append(groups[k], u)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, groups
}

func locations(usages []Usage) []Location {
	out := make([]Location, 0, len(usages))
	for _, u := range usages {
		out = append(out, Location{File: u.File, Line: u.Line, Field: u.Field, Value: u.Value})
	}
	return out
}

func fieldNames(usages []Usage) []string {
	names := sets.New[string]()
	for _, u := range usages {
		names.Add(u.Field)
	}
	return sets.Sorted(names)
}

func values(usages []Usage) string {
	parts := make([]string, 0, len(usages))
	for _, u := range usages {
		parts = append(parts, u.Value)
	}
	return strings.Join(parts, ", ")
}

func (c *Checker) namingDrift(naming []Usage) []Inconsistency {
	tokens, groups := groupBy(naming, func(u Usage) (string, bool) { return u.Field, true })

	var out []Inconsistency
	for _, token := range tokens {
		canonical, ok := c.rules.Canonical(token)
		if !ok {
			continue
		}
		group := groups[token]
		out = append(out, Inconsistency{
			ID:              "naming-" + token,
			Type:            TypeNaming,
			Rule:            RuleNamingDrift,
			Severity:        SeverityHigh,
			Description:     fmt.Sprintf("Non-standard name %q used %d time(s); the standard name is %q", token, len(group), canonical),
			AffectedMetrics: []string{canonical},
			Locations:       locations(group),
			Suggestion:      fmt.Sprintf("Rename %s to %s", token, canonical),
			AutoFixable:     true,
			From:            token,
			To:              canonical,
		})
	}
	return out
}

func numericOfKind(kind FieldKind) func(Usage) (string, bool) {
	return func(u Usage) (string, bool) {
		return fieldKey(u.Field), u.Kind == kind && u.HasNum
	}
}

func unitDrift(usages []Usage) []Inconsistency {
	keys, groups := groupBy(usages, numericOfKind(KindTime))

	var out []Inconsistency
	for _, key := range keys {
		var small, large []Usage
		for _, u := range groups[key] {
			switch {
			case u.Numeric < smallTimeBound:
				small = append(small, u)
			case u.Numeric >= largeTimeBound:
				large = append(large, u)
			}
		}
		if len(small) == 0 || len(large) == 0 {
			continue
		}
		names := fieldNames(groups[key])
		out = append(out, Inconsistency{
			ID:       "unit-" + key,
			Type:     TypeFormat,
			Rule:     RuleUnitDrift,
			Severity: SeverityHigh,
			Description: fmt.Sprintf("Time field %s mixes small values (%s, presumably seconds) with large values (%s, presumably milliseconds)",
				strings.Join(names, "/"), values(small), values(large)),
			AffectedMetrics: names,
			Locations:       locations(append(small, large...)),
			Suggestion:      fmt.Sprintf("Decide on one unit for %s (milliseconds is the registry standard) and convert the other usages by hand", names[0]),
			AutoFixable:     false,
		})
	}
	return out
}

// InFractionScale reports whether v lies in (0, 1].
func InFractionScale(v float64) bool { return v > 0 && v <= 1 }

// InPercentScale reports whether v lies in (1, 100].
func InPercentScale(v float64) bool { return v > 1 && v <= 100 }

func rangeDrift(usages []Usage) []Inconsistency {
	keys, groups := groupBy(usages, numericOfKind(KindRate))

	var out []Inconsistency
	for _, key := range keys {
		var fraction, percent []Usage
		for _, u := range groups[key] {
			switch {
			case InFractionScale(u.Numeric):
				fraction = append(fraction, u)
			case InPercentScale(u.Numeric):
				percent = append(percent, u)
			}
		}
		if len(fraction) == 0 || len(percent) == 0 {
			continue
		}
		names := fieldNames(groups[key])
		out = append(out, Inconsistency{
			ID:       "range-" + key,
			Type:     TypeFormat,
			Rule:     RuleRangeDrift,
			Severity: SeverityMedium,
			Description: fmt.Sprintf("Rate field %s uses both the 0-1 scale (%s) and the 0-100 scale (%s)",
				strings.Join(names, "/"), values(fraction), values(percent)),
			AffectedMetrics: names,
			Locations:       locations(append(fraction, percent...)),
			Suggestion:      fmt.Sprintf("Express %s on the 0-100 scale; multiply the 0-1 values by 100", names[0]),
			AutoFixable:     true,
		})
	}
	return out
}

func duplicateDeclarations(decls []Usage) []Inconsistency {
	names, groups := groupBy(decls, func(u Usage) (string, bool) { return u.Field, true })

	var out []Inconsistency
	for _, name := range names {
		seen := sets.New[string]()
		var distinct []Usage
		for _, u := range groups[name] {
			loc := u.File + ":" + strconv.Itoa(u.Line)
			if seen.Has(loc) {
				continue
			}
			seen.Add(loc)
			distinct = append(distinct, u)
		}
		if len(distinct) < 2 {
			continue
		}
		out = append(out, Inconsistency{
			ID:              "duplicate-" + name,
			Type:            TypeDuplicate,
			Rule:            RuleDuplicate,
			Severity:        SeverityMedium,
			Description:     fmt.Sprintf("Type %s is declared in %d places", name, len(distinct)),
			AffectedMetrics: []string{name},
			Locations:       locations(distinct),
			Suggestion:      fmt.Sprintf("Consolidate %s into one shared declaration and import it", name),
			AutoFixable:     false,
		})
	}
	return out
}

func (c *Checker) missingStandard(usages []Usage) (Inconsistency, bool) {
	fields, groups := groupBy(usages, func(u Usage) (string, bool) {
		return u.Field, !c.registry.HasName(u.Field) && !c.rules.IsNamingToken(u.Field)
	})
	if len(fields) == 0 {
		return Inconsistency{}, false
	}

	locs := make([]Location, 0, len(fields))
	for _, f := range fields {
		first := groups[f][0]
		locs = append(locs, Location{File: first.File, Line: first.Line, Field: first.Field, Value: first.Value})
	}
	return Inconsistency{
		ID:              "missing-standard",
		Type:            TypeMissing,
		Rule:            RuleMissingStandard,
		Severity:        SeverityLow,
		Description:     fmt.Sprintf("%d field(s) have no registered standard definition: %s", len(fields), strings.Join(fields, ", ")),
		AffectedMetrics: fields,
		Locations:       locs,
		Suggestion:      "Register standard definitions for these fields or rename them to registered names",
		AutoFixable:     false,
	}, true
}

func suggestions(r *Report) []string {
	counts := r.CountBySeverity()
	byRule := make(map[Rule]int)
	missing := 0
	for _, inc := range r.Inconsistencies {
		byRule[inc.Rule]++
		if inc.Rule == RuleMissingStandard {
			missing = len(inc.AffectedMetrics)
		}
	}

	var out []string
	if n := counts[SeverityCritical] + counts[SeverityHigh]; n > 0 {
		out = append(out, fmt.Sprintf("%d high-priority issues found; address them first", n))
	}
	if n := byRule[RuleNamingDrift]; n > 0 {
		out = append(out, fmt.Sprintf("Auto-fix recommended for %d naming problems (run with --fix)", n))
	}
	if n := byRule[RuleRangeDrift]; n > 0 {
		out = append(out, fmt.Sprintf("Auto-fix can move %d rate fields to the 0-100 scale", n))
	}
	if n := byRule[RuleUnitDrift]; n > 0 {
		out = append(out, fmt.Sprintf("Review %d time fields with mixed units by hand", n))
	}
	if n := byRule[RuleDuplicate]; n > 0 {
		out = append(out, fmt.Sprintf("Consolidate %d duplicated metric type declarations", n))
	}
	if missing > 0 {
		out = append(out, fmt.Sprintf("Register standard definitions for %d unregistered fields", missing))
	}
	if r.InvalidMetrics > 0 {
		out = append(out, fmt.Sprintf("%d registry definitions fail validation; run metricstd validate", r.InvalidMetrics))
	}
	if len(out) == 0 {
		out = append(out, "No inconsistencies found; metric usage matches the registry")
	}
	return out
}
