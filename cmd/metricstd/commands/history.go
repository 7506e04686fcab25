package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" default:"20" help:"Number of reports to list (0 lists all)"`
	ID    string `arg:"" optional:"" help:"Render the stored report with this id instead of listing"`
}

// Run lists stored reports newest first, or renders one report.
func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	format, err := root.outputFormat()
	if err != nil {
		return err
	}

	path := cfg.History.Path
	if _, err := os.Stat(path); err != nil {
		return errors.NotFoundError("no report history found").
			WithContext("path", path).
			WithContext("hint", "set history.enabled in the configuration").Build()
	}
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	w := g.stdout()

	if h.ID != "" {
		report, err := store.Get(ctx, h.ID)
		if err != nil {
			return err
		}
		return consistency.NewFormatter(format, isColorSupported(w)).Format(w, report)
	}

	entries, err := store.List(ctx, h.Limit)
	if err != nil {
		return err
	}
	if format == consistency.FormatJSON {
		return writeJSON(w, entries)
	}
	printHistory(w, entries)
	return nil
}

func printHistory(w io.Writer, entries []history.Entry) {
	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString("No reports stored.\n")
	}
	for _, e := range entries {
		highest := e.HighestSeverity
		if highest == "" {
			highest = "-"
		}
		fmt.Fprintf(&b, "%s  %s  %3d issue%s  highest=%-8s fixable=%-3d files=%-4d %s\n",
			e.GeneratedAt.Local().Format("2006-01-02 15:04:05"),
			e.ID,
			e.TotalIssues, plural(e.TotalIssues, "s"),
			highest,
			e.AutoFixable,
			e.FilesScanned,
			e.Root)
	}
	_, _ = io.WriteString(w, b.String())
}
