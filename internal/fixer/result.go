package fixer

import (
	"fmt"
	"sort"
	"strings"
)

// Edit is one rewritten source line.
type Edit struct {
	IssueID string `json:"issueId"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

// FixResult contains the results of a fix operation.
type FixResult struct {
	Fixed   int      `json:"fixed"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Details []string `json:"details"`
	Edits   []Edit   `json:"edits"`
	Errors  []error  `json:"-"`
	DryRun  bool     `json:"dryRun"`
}

// HasErrors returns true if any errors occurred during fixing.
func (fr *FixResult) HasErrors() bool {
	return len(fr.Errors) > 0
}

// HasChanges returns true if there are any edits to apply.
func (fr *FixResult) HasChanges() bool {
	return len(fr.Edits) > 0
}

// AffectedFiles returns the files touched by the edits, sorted.
func (fr *FixResult) AffectedFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, e := range fr.Edits {
		if !seen[e.File] {
			seen[e.File] = true
			files = append(files, e.File)
		}
	}
	sort.Strings(files)
	return files
}

func (fr *FixResult) detailf(format string, args ...any) {
	fr.Details = append(fr.Details, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the fix operation.
func (fr *FixResult) Summary() string {
	var b strings.Builder

	if fr.DryRun {
		b.WriteString("Dry run: no files were modified\n")
	}
	b.WriteString(fmt.Sprintf("Fixed: %d\n", fr.Fixed))
	b.WriteString(fmt.Sprintf("Failed: %d\n", fr.Failed))
	b.WriteString(fmt.Sprintf("Skipped: %d\n", fr.Skipped))
	b.WriteString(fmt.Sprintf("Lines changed: %d in %d file%s\n",
		len(fr.Edits), len(fr.AffectedFiles()), pluralize(len(fr.AffectedFiles()))))

	if len(fr.Details) > 0 {
		b.WriteString("\nDetails:\n")
		for _, d := range fr.Details {
			b.WriteString(fmt.Sprintf("  • %s\n", d))
		}
	}

	if len(fr.Errors) > 0 {
		b.WriteString(fmt.Sprintf("\nErrors encountered: %d\n", len(fr.Errors)))
		for _, err := range fr.Errors {
			b.WriteString(fmt.Sprintf("  • %v\n", err))
		}
	}

	return b.String()
}

// PreviewChanges returns the per-file overview shown before confirmation.
func (fr *FixResult) PreviewChanges() string {
	var b strings.Builder

	b.WriteString("The following changes will be made:\n\n")

	if len(fr.Edits) > 0 {
		perFile := make(map[string]int)
		for _, e := range fr.Edits {
			perFile[e.File]++
		}
		b.WriteString("FILES TO UPDATE:\n")
		for _, file := range fr.AffectedFiles() {
			n := perFile[file]
			b.WriteString(fmt.Sprintf("  • %s (%d line%s)\n", file, n, pluralize(n)))
		}
		b.WriteString("\n")
	}

	b.WriteString("SUMMARY:\n")
	b.WriteString(fmt.Sprintf("  • %d issue%s will be fixed\n", fr.Fixed, pluralize(fr.Fixed)))
	b.WriteString(fmt.Sprintf("  • %d line%s will be updated\n", len(fr.Edits), pluralize(len(fr.Edits))))
	if fr.Failed > 0 {
		b.WriteString(fmt.Sprintf("  • %d issue%s cannot be fixed automatically\n", fr.Failed, pluralize(fr.Failed)))
	}
	if fr.Skipped > 0 {
		b.WriteString(fmt.Sprintf("  • %d issue%s skipped\n", fr.Skipped, pluralize(fr.Skipped)))
	}

	return b.String()
}

// DetailedPreview returns a line-by-line before/after listing.
func (fr *FixResult) DetailedPreview() string {
	var b strings.Builder

	b.WriteString("DETAILED CHANGES PREVIEW\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(fr.Edits) == 0 {
		b.WriteString("No changes.\n")
		return b.String()
	}

	for i, e := range fr.Edits {
		b.WriteString(fmt.Sprintf("%d. %s:%d [%s]\n", i+1, e.File, e.Line, e.IssueID))
		b.WriteString(fmt.Sprintf("   - %s\n", strings.TrimSpace(e.Before)))
		b.WriteString(fmt.Sprintf("   + %s\n\n", strings.TrimSpace(e.After)))
	}

	return b.String()
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
