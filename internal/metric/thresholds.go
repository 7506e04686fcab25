package metric

// Classify places value into a quality band. Breakpoints are inclusive: a
// value that reaches a breakpoint earns that band.
//
// The breakpoints are always stored in descending order. For LowerIsBetter
// the ladder is read from the low end: a value at or below Critical is
// excellent, at or below Warning good, at or below Good warning, and anything
// higher is critical.
func (q QualityThresholds) Classify(value float64, dir Direction) QualityLevel {
	if dir == LowerIsBetter {
		switch {
		case value <= q.Critical:
			return QualityExcellent
		case value <= q.Warning:
			return QualityGood
		case value <= q.Good:
			return QualityWarning
		default:
			return QualityCritical
		}
	}

	switch {
	case value >= q.Excellent:
		return QualityExcellent
	case value >= q.Good:
		return QualityGood
	case value >= q.Warning:
		return QualityWarning
	default:
		return QualityCritical
	}
}

// Ordered reports whether excellent > good > warning > critical holds strictly.
func (q QualityThresholds) Ordered() bool {
	return q.Excellent > q.Good && q.Good > q.Warning && q.Warning > q.Critical
}

// Values returns the breakpoints in excellent, good, warning, critical order.
func (q QualityThresholds) Values() [4]float64 {
	return [4]float64{q.Excellent, q.Good, q.Warning, q.Critical}
}
