package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/registry"
	"github.com/zqshi/metricstd/internal/validator"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	File string `arg:"" optional:"" help:"Registry export to validate. Defaults to the loaded registry"`
}

// validateOutput is the JSON rendering of a validation run.
type validateOutput struct {
	Source       string            `json:"source"`
	Summary      validator.Summary `json:"summary"`
	ImportErrors []string          `json:"importErrors,omitempty"`
}

// Run validates every definition. Invalid definitions or rejected import
// items exit with ExitSevere; warnings alone do not change the exit code.
func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	out := validateOutput{Source: "registry"}

	var reg *registry.Registry
	if v.File != "" {
		data, err := os.ReadFile(v.File)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to read registry export").
				WithContext("path", v.File).Build()
		}
		reg = registry.New()
		res, err := reg.Import(data)
		if err != nil {
			return err
		}
		out.Source = v.File
		out.ImportErrors = res.Errors
	} else {
		a, err := newApp(g, root)
		if err != nil {
			return err
		}
		reg = a.registry
	}

	out.Summary = validator.New().ValidateAll(reg.All())

	w := g.stdout()
	format, err := root.outputFormat()
	if err != nil {
		return err
	}
	if format == consistency.FormatJSON {
		if err := writeJSON(w, out); err != nil {
			return err
		}
	} else {
		printValidation(w, out, isColorSupported(w))
	}

	if out.Summary.Invalid > 0 || len(out.ImportErrors) > 0 {
		return &ExitCodeError{Code: ExitSevere}
	}
	return nil
}

func printValidation(w io.Writer, out validateOutput, useColor bool) {
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	warn := color.New(color.FgYellow)
	for _, c := range []*color.Color{ok, bad, warn} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Validating %s\n\n", out.Source)
	for _, msg := range out.ImportErrors {
		fmt.Fprintf(&b, "%s %s\n", bad.Sprint("✗"), msg)
	}
	for _, res := range out.Summary.Results {
		mark := ok.Sprint("✓")
		if !res.IsValid {
			mark = bad.Sprint("✗")
		}
		fmt.Fprintf(&b, "%s %s (score %d)\n", mark, res.ID, res.Score)
		for _, f := range res.Errors {
			writeFinding(&b, bad.Sprint("error"), f)
		}
		for _, f := range res.Warnings {
			writeFinding(&b, warn.Sprint("warning"), f)
		}
	}

	s := out.Summary
	fmt.Fprintf(&b, "\n%d definition%s: %d valid, %d invalid\n", s.Total, plural(s.Total, "s"), s.Valid, s.Invalid)
	if n := len(out.ImportErrors); n > 0 {
		fmt.Fprintf(&b, "%d item%s rejected on import\n", n, plural(n, "s"))
	}
	_, _ = io.WriteString(w, b.String())
}

func writeFinding(b *strings.Builder, level string, f validator.Finding) {
	fmt.Fprintf(b, "    %s [%s]", level, f.Rule)
	if f.Field != "" {
		fmt.Fprintf(b, " %s:", f.Field)
	}
	fmt.Fprintf(b, " %s\n", f.Message)
	if f.Suggestion != "" {
		fmt.Fprintf(b, "      → %s\n", f.Suggestion)
	}
}
