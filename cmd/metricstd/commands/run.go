package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/fixer"
	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/logfields"
)

// RunCmd implements the default command: check, report and optionally fix.
type RunCmd struct {
	Path string `arg:"" optional:"" help:"Directory to scan. Defaults to scan.root from the configuration, then the current directory"`
}

// confirm asks the user a yes/no question. Tests replace it.
var confirm = func(message string) (bool, error) {
	ok := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Run executes the check.
func (r *RunCmd) Run(g *Global, root *CLI) error {
	if root.DryRun && !root.Fix {
		return errors.ValidationError("--dry-run requires --fix flag").Build()
	}
	if root.Force && !root.Fix {
		return errors.ValidationError("--force requires --fix flag").Build()
	}
	if root.Check && root.Fix {
		return errors.ValidationError("--check only reports; drop it to use --fix").Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(g, root)
	if err != nil {
		return err
	}
	checker, err := a.checker(root)
	if err != nil {
		return err
	}

	path := a.scanRoot(r.Path)
	report, err := checker.Check(ctx, path)
	if err != nil {
		return err
	}
	if err := a.writeReport(g, root, report); err != nil {
		return err
	}
	a.record(ctx, report)

	if root.Fix {
		report, err = r.fix(ctx, g, root, a, checker, report)
		if err != nil {
			return err
		}
	}
	return exitFor(report)
}

// fix plans the auto-fixable changes, asks for confirmation and applies
// them. It returns the report that decides the exit code: the re-check after
// a successful apply, otherwise the original.
func (r *RunCmd) fix(ctx context.Context, g *Global, root *CLI, a *app, checker *consistency.Checker,
	report *consistency.Report,
) (*consistency.Report, error) {
	out := g.stdout()
	fx := fixer.New(
		fixer.WithDryRun(root.DryRun),
		fixer.WithForce(root.Force),
		fixer.WithRecorder(a.recorder),
		fixer.WithLogger(a.logger),
	)

	plan, err := fx.Plan(report)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, plan.PreviewChanges())
	if root.DryRun || root.Verbose {
		_, _ = fmt.Fprint(out, plan.DetailedPreview())
	}

	if root.DryRun {
		_, _ = fmt.Fprintf(out, "\n%s\n", plan.Summary())
		return report, nil
	}
	if !plan.HasChanges() {
		_, _ = fmt.Fprintln(out, "\nNothing to fix automatically.")
		return report, nil
	}

	if !root.Yes {
		ok, err := confirm(fmt.Sprintf("Apply %d fix%s to %d file%s?",
			plan.Fixed, plural(plan.Fixed, "es"), len(plan.AffectedFiles()), plural(len(plan.AffectedFiles()), "s")))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFix, "confirmation prompt failed").
				WithContext("hint", "use --yes to skip the prompt").Build()
		}
		if !ok {
			_, _ = fmt.Fprintln(out, "Aborted; no files were modified.")
			return report, nil
		}
	}

	res, err := fx.Apply(ctx, report)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(out, "\n%s\n", res.Summary())
	if res.HasErrors() {
		for _, e := range res.Errors {
			a.logger.Warn("Fix failed", logfields.Error(e))
		}
		_, _ = fmt.Fprintf(out, "%d fix error%s; failed issues were left unchanged.\n",
			len(res.Errors), plural(len(res.Errors), "s"))
	}
	if !res.HasChanges() {
		return report, nil
	}

	after, err := checker.Check(ctx, report.Root)
	if err != nil {
		return nil, err
	}
	printRecheck(out, report, after)
	a.record(ctx, after)
	return after, nil
}

func printRecheck(w io.Writer, before, after *consistency.Report) {
	_, _ = fmt.Fprintf(w, "\nRe-check: %d inconsistenc%s (was %d)\n",
		len(after.Inconsistencies), plural(len(after.Inconsistencies), "ies", "y"), len(before.Inconsistencies))
}

// plural returns suffix[0] unless n is one, in which case it returns
// suffix[1] when given and "" otherwise.
func plural(n int, suffix ...string) string {
	if n == 1 {
		if len(suffix) > 1 {
			return suffix[1]
		}
		return ""
	}
	return suffix[0]
}
