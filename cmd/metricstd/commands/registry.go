package commands

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/metric"
	"github.com/zqshi/metricstd/internal/registry"
)

// RegistryCmd groups the registry subcommands.
type RegistryCmd struct {
	Export RegistryExportCmd `cmd:"" help:"Write the registry as an export document (stdout or --output)"`
	Import RegistryImportCmd `cmd:"" help:"Import export documents and report what was accepted"`
	Search RegistrySearchCmd `cmd:"" help:"Search definitions by text, category, level, domain, tag, status or owner"`
	Stats  RegistryStatsCmd  `cmd:"" help:"Show definition counts by category, level and approval status"`
}

// RegistryExportCmd implements 'registry export'.
type RegistryExportCmd struct{}

func (c *RegistryExportCmd) Run(g *Global, root *CLI) error {
	a, err := newApp(g, root)
	if err != nil {
		return err
	}
	data, err := a.registry.Export()
	if err != nil {
		return err
	}
	return writeOutput(g, root.Output, append(data, '\n'))
}

// RegistryImportCmd implements 'registry import'. The merged registry is
// written to --output when given.
type RegistryImportCmd struct {
	Files []string `arg:"" help:"Export documents to import"`
}

func (c *RegistryImportCmd) Run(g *Global, root *CLI) error {
	a, err := newApp(g, root)
	if err != nil {
		return err
	}
	before := a.registry.Len()

	w := g.stdout()
	rejected := 0
	for _, path := range c.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to read registry export").
				WithContext("path", path).Build()
		}
		res, err := a.registry.Import(data)
		if err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "failed to import registry export").
				WithContext("path", path).Build()
		}
		_, _ = fmt.Fprintf(w, "%s: %d imported, %d rejected\n", path, res.Imported, len(res.Errors))
		for _, msg := range res.Errors {
			_, _ = fmt.Fprintf(w, "  ✗ %s\n", msg)
		}
		rejected += len(res.Errors)
	}
	_, _ = fmt.Fprintf(w, "Registry: %d definitions (%d new)\n", a.registry.Len(), a.registry.Len()-before)

	if root.Output != "" {
		data, err := a.registry.Export()
		if err != nil {
			return err
		}
		if err := writeOutput(g, root.Output, append(data, '\n')); err != nil {
			return err
		}
	}
	if rejected > 0 {
		return &ExitCodeError{Code: ExitFindings}
	}
	return nil
}

// RegistrySearchCmd implements 'registry search'.
type RegistrySearchCmd struct {
	Text     string   `arg:"" optional:"" help:"Case-insensitive text matched against name, display name, description and formula"`
	Category string   `help:"Category (business, performance, quality, cost, user, system, security)"`
	Level    string   `help:"Level (L1, L2, L3)"`
	Domain   string   `help:"Business domain"`
	Tag      []string `help:"Tag; definitions with any of the tags match (repeatable)"`
	Status   string   `help:"Approval status (draft, pending, approved, deprecated)"`
	Owner    string   `help:"Owner substring"`
}

func (c *RegistrySearchCmd) criteria() (registry.SearchCriteria, error) {
	crit := registry.SearchCriteria{
		Text:   c.Text,
		Domain: c.Domain,
		Tags:   c.Tag,
		Owner:  c.Owner,
	}
	var err error
	if c.Category != "" {
		if crit.Category, err = metric.ParseCategory(c.Category); err != nil {
			return crit, flagError("category", err)
		}
	}
	if c.Level != "" {
		if crit.Level, err = metric.ParseLevel(c.Level); err != nil {
			return crit, flagError("level", err)
		}
	}
	if c.Status != "" {
		if crit.ApprovalStatus, err = metric.ParseApprovalStatus(c.Status); err != nil {
			return crit, flagError("status", err)
		}
	}
	return crit, nil
}

func (c *RegistrySearchCmd) Run(g *Global, root *CLI) error {
	crit, err := c.criteria()
	if err != nil {
		return err
	}
	format, err := root.outputFormat()
	if err != nil {
		return err
	}
	a, err := newApp(g, root)
	if err != nil {
		return err
	}

	res := a.registry.Search(crit)
	w := g.stdout()
	if format == consistency.FormatJSON {
		return writeJSON(w, res)
	}

	var b strings.Builder
	for _, def := range res.Metrics {
		fmt.Fprintf(&b, "%-28s %-24s %-12s %s  %s\n", def.ID, def.Name, def.Category, def.Level, def.DisplayName)
	}
	fmt.Fprintf(&b, "\n%d match%s\n", res.Total, plural(res.Total, "es"))
	if res.Total > 0 {
		writeCounts(&b, "Categories", res.Facets.Categories)
		writeCounts(&b, "Levels", res.Facets.Levels)
		writeCounts(&b, "Tags", res.Facets.Tags)
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// RegistryStatsCmd implements 'registry stats'.
type RegistryStatsCmd struct{}

func (c *RegistryStatsCmd) Run(g *Global, root *CLI) error {
	format, err := root.outputFormat()
	if err != nil {
		return err
	}
	a, err := newApp(g, root)
	if err != nil {
		return err
	}

	stats := a.registry.Stats()
	w := g.stdout()
	if format == consistency.FormatJSON {
		return writeJSON(w, stats)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Definitions: %d\n", stats.Total)
	if !stats.LastModified.IsZero() {
		fmt.Fprintf(&b, "Modified:    %s\n", stats.LastModified.Format("2006-01-02 15:04:05 MST"))
	}
	writeCounts(&b, "Categories", stats.ByCategory)
	writeCounts(&b, "Levels", stats.ByLevel)
	writeCounts(&b, "Approval", stats.ByApproval)
	_, err = io.WriteString(w, b.String())
	return err
}

// writeCounts prints "title: key=n, ..." with keys in order; empty maps are
// left out.
func writeCounts[K ~string](b *strings.Builder, title string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := slices.Sorted(maps.Keys(counts))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	fmt.Fprintf(b, "%-12s %s\n", title+":", strings.Join(parts, ", "))
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(g *Global, path string, data []byte) error {
	if path == "" {
		_, err := g.stdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output file").
			WithContext("path", path).Build()
	}
	return nil
}

func flagError(field string, err error) error {
	return errors.WrapError(err, errors.CategoryValidation, "invalid --"+field+" value").
		WithContext("field", field).Build()
}
