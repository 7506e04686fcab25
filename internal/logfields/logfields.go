// Package logfields holds the canonical slog attribute keys shared across packages.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyFile       = "file"
	KeyLine       = "line"
	KeyMetricID   = "metric_id"
	KeyField      = "field"
	KeyToken      = "token"
	KeySeverity   = "severity"
	KeyIssueType  = "issue_type"
	KeyReportID   = "report_id"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyFormat     = "format"
	KeySubject    = "subject"
	KeyReason     = "reason"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr { return slog.String(KeyPath, p) }
func File(f string) slog.Attr { return slog.String(KeyFile, f) }
func Line(n int) slog.Attr { return slog.Int(KeyLine, n) }
func MetricID(id string) slog.Attr { return slog.String(KeyMetricID, id) }
func Field(name string) slog.Attr { return slog.String(KeyField, name) }
func Token(tok string) slog.Attr { return slog.String(KeyToken, tok) }
func Severity(s string) slog.Attr { return slog.String(KeySeverity, s) }
func IssueType(t string) slog.Attr { return slog.String(KeyIssueType, t) }
func ReportID(id string) slog.Attr { return slog.String(KeyReportID, id) }
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Format(f string) slog.Attr { return slog.String(KeyFormat, f) }
func Subject(s string) slog.Attr { return slog.String(KeySubject, s) }
func Reason(r string) slog.Attr { return slog.String(KeyReason, r) }
func Addr(a string) slog.Attr { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
