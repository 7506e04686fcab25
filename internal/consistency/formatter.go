package consistency

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zqshi/metricstd/internal/foundation/normalization"
)

// OutputFormat names a report rendering.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatMarkdown OutputFormat = "markdown"
	FormatHTML     OutputFormat = "html"
)

var formatNormalizer = normalization.NewNormalizer("report format", map[string]OutputFormat{
	"console":  FormatConsole,
	"text":     FormatConsole,
	"json":     FormatJSON,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"html":     FormatHTML,
}, FormatConsole)

// ParseFormat parses a format name, accepting text and md as aliases.
func ParseFormat(raw string) (OutputFormat, error) {
	return formatNormalizer.Parse(raw)
}

// Formatter renders a report.
type Formatter interface {
	Format(w io.Writer, r *Report) error
}

// NewFormatter creates the formatter for format. Unknown formats fall back
// to console output.
func NewFormatter(format OutputFormat, useColor bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatHTML:
		return &HTMLFormatter{}
	default:
		return NewConsoleFormatter(useColor)
	}
}

// JSONFormatter writes the report object as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func severityTitle(s Severity) string {
	return cases.Title(language.English).String(s.String())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinLocations(locs []Location, wrap string) string {
	parts := make([]string, 0, len(locs))
	for _, l := range locs {
		parts = append(parts, wrap+l.String()+wrap)
	}
	return strings.Join(parts, ", ")
}

func bySeverity(r *Report) map[Severity][]Inconsistency {
	out := make(map[Severity][]Inconsistency, 4)
	for _, inc := range r.Inconsistencies {
		out[inc.Severity] = append(out[inc.Severity], inc)
	}
	return out
}

// MarkdownFormatter writes a totals table and one section per severity.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, r *Report) error {
	var b strings.Builder

	b.WriteString("# Metric Consistency Report\n\n")
	fmt.Fprintf(&b, "- Report ID: `%s`\n", r.ID)
	fmt.Fprintf(&b, "- Root: `%s`\n", r.Root)
	fmt.Fprintf(&b, "- Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Totals\n\n")
	b.WriteString("| Measure | Value |\n|---|---|\n")
	rows := []struct {
		label string
		value int
	}{
		{"Registered metrics", r.TotalMetrics},
		{"Valid definitions", r.ValidMetrics},
		{"Invalid definitions", r.InvalidMetrics},
		{"Files scanned", r.FilesScanned},
		{"Files skipped", r.FilesSkipped},
		{"Usages found", r.UsageCount},
		{"Inconsistencies", len(r.Inconsistencies)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %d |\n", row.label, row.value)
	}
	b.WriteString("\n")

	groups := bySeverity(r)
	for _, sev := range Severities() {
		incs := groups[sev]
		fmt.Fprintf(&b, "## %s (%d)\n\n", severityTitle(sev), len(incs))
		if len(incs) == 0 {
			b.WriteString("_None._\n\n")
			continue
		}
		for _, inc := range incs {
			fmt.Fprintf(&b, "### %s: %s\n\n", inc.Type, inc.ID)
			fmt.Fprintf(&b, "%s\n\n", inc.Description)
			fmt.Fprintf(&b, "- **Rule:** %s\n", inc.Rule)
			fmt.Fprintf(&b, "- **Affected metrics:** %s\n", strings.Join(inc.AffectedMetrics, ", "))
			if len(inc.Locations) > 0 {
				fmt.Fprintf(&b, "- **Locations:** %s\n", joinLocations(inc.Locations, "`"))
			}
			fmt.Fprintf(&b, "- **Suggestion:** %s\n", inc.Suggestion)
			fmt.Fprintf(&b, "- **Auto-fixable:** %s\n\n", yesNo(inc.AutoFixable))
		}
	}

	b.WriteString("## Suggestions\n\n")
	for _, s := range r.Suggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// HTMLFormatter renders the markdown report through goldmark.
type HTMLFormatter struct{}

func (f *HTMLFormatter) Format(w io.Writer, r *Report) error {
	var md bytes.Buffer
	if err := (&MarkdownFormatter{}).Format(&md, r); err != nil {
		return err
	}

	var body bytes.Buffer
	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := renderer.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Metric Consistency Report %s</title>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(r.ID), body.String())
	return err
}

// ConsoleFormatter writes a flattened, optionally coloured text rendering.
type ConsoleFormatter struct {
	severity map[Severity]*color.Color
	heading  *color.Color
	faint    *color.Color
}

// NewConsoleFormatter creates a console formatter. Colour is forced on or
// off so output does not depend on the terminal.
func NewConsoleFormatter(useColor bool) *ConsoleFormatter {
	f := &ConsoleFormatter{
		severity: map[Severity]*color.Color{
			SeverityCritical: color.New(color.FgRed, color.Bold),
			SeverityHigh:     color.New(color.FgRed),
			SeverityMedium:   color.New(color.FgYellow),
			SeverityLow:      color.New(color.FgCyan),
		},
		heading: color.New(color.Bold),
		faint:   color.New(color.Faint),
	}
	all := []*color.Color{f.heading, f.faint}
	for _, c := range f.severity {
		all = append(all, c)
	}
	for _, c := range all {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

func (f *ConsoleFormatter) Format(w io.Writer, r *Report) error {
	var b strings.Builder

	b.WriteString(f.heading.Sprint("Metric consistency report") + "\n")
	b.WriteString(strings.Repeat("━", 60) + "\n")
	fmt.Fprintf(&b, "Root:        %s\n", r.Root)
	fmt.Fprintf(&b, "Report:      %s\n", r.ID)
	fmt.Fprintf(&b, "Registry:    %d metrics (%d valid, %d invalid)\n", r.TotalMetrics, r.ValidMetrics, r.InvalidMetrics)
	fmt.Fprintf(&b, "Files:       %d scanned, %d skipped\n", r.FilesScanned, r.FilesSkipped)
	fmt.Fprintf(&b, "Usages:      %d\n", r.UsageCount)
	b.WriteString("\n")

	if len(r.Inconsistencies) == 0 {
		b.WriteString("No inconsistencies found.\n")
	}
	for _, inc := range r.Inconsistencies {
		tag := fmt.Sprintf("[%s]", strings.ToUpper(inc.Severity.String()))
		fmt.Fprintf(&b, "%s %s (%s)\n", f.severity[inc.Severity].Sprint(tag), inc.Description, inc.Rule)
		if len(inc.Locations) > 0 {
			b.WriteString(f.faint.Sprint("  at "+joinLocations(inc.Locations, "")) + "\n")
		}
		fmt.Fprintf(&b, "  Fix: %s", inc.Suggestion)
		if inc.AutoFixable {
			b.WriteString(" (auto-fixable)")
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("━", 60) + "\n")
	counts := r.CountBySeverity()
	fmt.Fprintf(&b, "Summary: %d critical, %d high, %d medium, %d low\n",
		counts[SeverityCritical], counts[SeverityHigh], counts[SeverityMedium], counts[SeverityLow])
	for _, s := range r.Suggestions {
		fmt.Fprintf(&b, "  - %s\n", s)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
