package commands

import (
	"fmt"

	"github.com/zqshi/metricstd/internal/consistency"
)

// Exit codes for a completed check.
const (
	ExitClean    = 0
	ExitFindings = 1 // Medium or low severity inconsistencies
	ExitSevere   = 2 // High or critical severity inconsistencies
)

// ExitCodeError ends the process with Code without printing an error. It
// signals findings, not failures.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCodeFor maps the highest severity in report onto an exit code.
func ExitCodeFor(report *consistency.Report) int {
	if report == nil {
		return ExitClean
	}
	sev, ok := report.HighestSeverity()
	switch {
	case !ok:
		return ExitClean
	case sev >= consistency.SeverityHigh:
		return ExitSevere
	default:
		return ExitFindings
	}
}

func exitFor(report *consistency.Report) error {
	if code := ExitCodeFor(report); code != ExitClean {
		return &ExitCodeError{Code: code}
	}
	return nil
}
