package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/zqshi/metricstd/internal/config"
	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
)

// Global context passed to subcommands. Nil writers fall back to the
// process streams.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) stderr() io.Writer {
	if g == nil || g.Err == nil {
		return os.Stderr
	}
	return g.Err
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (defaults to ./metricstd.yaml when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Check  bool   `help:"Only scan and report; never fix (the default action, rejects --fix)"`
	Fix    bool   `help:"Apply automatic fixes after the check (requires confirmation)"`
	Report bool   `help:"Write the report as a document (markdown unless --format is given)"`
	Output string `short:"o" help:"Write the report to this file instead of stdout"`
	Format string `short:"f" help:"Report format: console, json, markdown or html"`
	Yes    bool   `short:"y" help:"Auto-confirm fixes without prompting (for CI/CD)"`
	DryRun bool   `help:"Show what --fix would change without writing files"`
	Force  bool   `help:"Let --fix rewrite files with uncommitted git changes"`

	RegistryFiles []string `name:"registry" help:"Registry export to import at startup (repeatable)"`
	NoSeed        bool     `name:"no-seed" help:"Start from an empty registry instead of the built-in definitions"`

	Run      RunCmd      `cmd:"" default:"withargs" help:"Check a source tree for metric inconsistencies"`
	Validate ValidateCmd `cmd:"" help:"Validate metric definitions against the naming and governance conventions"`
	Registry RegistryCmd `cmd:"" help:"Export, import, search and summarize the metric registry"`
	History  HistoryCmd  `cmd:"" help:"List stored consistency reports"`
	Watch    WatchCmd    `cmd:"" help:"Re-run the check whenever scanned files change"`

	cfg    *config.Config `kong:"-"`
	cfgErr error          `kong:"-"`
}

// AfterApply runs after flag parsing; setup logging once. Configuration
// errors are reported by the command that needs the configuration.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	cfg, err := c.LoadConfig()
	if err != nil {
		cfg = nil
	}
	slog.SetDefault(newLogger(os.Stderr, c.Verbose, cfg))
	return nil
}

// LoadConfig loads the configuration once and caches the outcome.
func (c *CLI) LoadConfig() (*config.Config, error) {
	if c.cfg == nil && c.cfgErr == nil {
		c.cfg, c.cfgErr = config.LoadOrDefault(c.Config)
	}
	return c.cfg, c.cfgErr
}

// outputFormat parses --format, defaulting to console output.
func (c *CLI) outputFormat() (consistency.OutputFormat, error) {
	if c.Format == "" {
		return consistency.FormatConsole, nil
	}
	format, err := consistency.ParseFormat(c.Format)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "invalid --format value").
			WithContext("field", "format").Build()
	}
	return format, nil
}

// newLogger builds the process logger. --verbose wins over the configured
// level.
func newLogger(w io.Writer, verbose bool, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	format := config.LogFormatText
	if cfg != nil {
		level = cfg.Logging.Level.SlogLevel()
		format = cfg.Logging.Format
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// isColorSupported checks if the terminal supports color output.
func isColorSupported(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	// Check if the writer is a terminal
	if fileInfo, err := f.Stat(); err != nil || (fileInfo.Mode()&os.ModeCharDevice) == 0 {
		return false
	}

	// Check NO_COLOR environment variable (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check TERM environment variable
	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}

	return true
}
