package validator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zqshi/metricstd/internal/metric"
)

var camelCasePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

// ForbiddenAbbreviations maps shorthand words to their spelled-out form.
var ForbiddenAbbreviations = map[string]string{
	"resp": "response",
	"req":  "request",
	"cnt":  "count",
	"amt":  "amount",
	"pct":  "percentage",
	"perc": "percentage",
	"msg":  "message",
	"err":  "error",
	"usr":  "user",
	"sess": "session",
	"tm":   "time",
	"dur":  "duration",
	"calc": "calculated",
	"cfg":  "config",
	"conv": "conversion",
	"succ": "success",
}

var (
	timeSuffixes  = []string{"time", "duration", "latency", "delay"}
	ratioSuffixes = []string{"rate", "ratio", "percentage"}
	countPrefixes = []string{"total", "avg", "max", "min"}
	countSuffixes = []string{"count", "number"}
)

// title upper-cases the first letter. Casers carry state, so one is built
// per call.
func title(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// NamingRule enforces camelCase names, bans abbreviations and checks the
// unit-dependent suffix conventions.
type NamingRule struct{}

func (r *NamingRule) Name() string { return "naming" }

func (r *NamingRule) Check(def *metric.Definition) []Finding {
	name := def.Name
	if name == "" {
		return nil
	}
	var findings []Finding

	if !camelCasePattern.MatchString(name) {
		findings = append(findings, Finding{
			Level:      LevelError,
			Field:      "name",
			Message:    fmt.Sprintf("name %q is not camelCase", name),
			Suggestion: ToCamelCase(name),
		})
	}

	words := SplitWords(name)
	for i, w := range words {
		full, banned := ForbiddenAbbreviations[strings.ToLower(w)]
		if !banned {
			continue
		}
		fixed := make([]string, len(words))
		copy(fixed, words)
		fixed[i] = full
		findings = append(findings, Finding{
			Level:      LevelError,
			Field:      "name",
			Message:    fmt.Sprintf("name %q uses forbidden abbreviation %q", name, w),
			Suggestion: JoinCamel(fixed),
		})
	}

	if f, ok := suffixConvention(def); !ok {
		findings = append(findings, f)
	}
	return findings
}

func suffixConvention(def *metric.Definition) (Finding, bool) {
	lower := strings.ToLower(def.Name)
	hasSuffix := func(suffixes []string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(lower, s) {
				return true
			}
		}
		return false
	}
	hasPrefix := func(prefixes []string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(lower, p) {
				return true
			}
		}
		return false
	}

	switch def.Unit.Class() {
	case metric.UnitClassTime:
		if !hasSuffix(timeSuffixes) {
			return Finding{
				Level:      LevelWarning,
				Field:      "name",
				Message:    fmt.Sprintf("time metric %q should end with Time, Duration, Latency or Delay", def.Name),
				Suggestion: def.Name + "Time",
			}, false
		}
	case metric.UnitClassRatio:
		if !hasSuffix(ratioSuffixes) {
			return Finding{
				Level:      LevelWarning,
				Field:      "name",
				Message:    fmt.Sprintf("ratio metric %q should end with Rate, Ratio or Percentage", def.Name),
				Suggestion: def.Name + "Rate",
			}, false
		}
	case metric.UnitClassCount:
		if !hasPrefix(countPrefixes) && !hasSuffix(countSuffixes) {
			return Finding{
				Level:      LevelWarning,
				Field:      "name",
				Message:    fmt.Sprintf("count metric %q should start with total/avg/max/min or end with Count/Number", def.Name),
				Suggestion: "total" + title(def.Name),
			}, false
		}
	}
	return Finding{}, true
}

// SplitWords splits an identifier into words at case changes, underscores,
// hyphens and spaces. Digits stay attached to the preceding word.
func SplitWords(s string) []string {
	var (
		words   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r):
			// Break before an upper-case letter unless it continues an acronym.
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !prevUpper || nextLower {
				flush()
			}
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	return words
}

// JoinCamel joins words into a lowerCamelCase identifier.
func JoinCamel(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		lw := strings.ToLower(w)
		if i == 0 {
			b.WriteString(lw)
			continue
		}
		b.WriteString(title(lw))
	}
	return b.String()
}

// ToCamelCase converts snake_case, kebab-case or PascalCase to camelCase.
func ToCamelCase(s string) string {
	return JoinCamel(SplitWords(s))
}
