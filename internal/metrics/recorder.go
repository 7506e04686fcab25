package metrics

import "time"

// FixOutcome enumerates auto-fix result categories for counters.
type FixOutcome string

const (
	FixApplied FixOutcome = "applied"
	FixFailed  FixOutcome = "failed"
	FixSkipped FixOutcome = "skipped"
)

// Recorder defines observability hooks for consistency scans and fixes.
// Implementations must tolerate concurrent calls.
type Recorder interface {
	ObserveScanDuration(d time.Duration)
	IncFilesScanned()
	IncFilesSkipped(reason string)
	IncInconsistency(issueType, severity string)
	IncFixResult(outcome FixOutcome)
	SetRegistrySize(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveScanDuration(time.Duration) {}
func (NoopRecorder) IncFilesScanned()                  {}
func (NoopRecorder) IncFilesSkipped(string)            {}
func (NoopRecorder) IncInconsistency(string, string)   {}
func (NoopRecorder) IncFixResult(FixOutcome)           {}
func (NoopRecorder) SetRegistrySize(int)               {}
