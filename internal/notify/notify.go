// Package notify publishes report summaries to NATS so other services can
// react to new inconsistencies.
package notify

import (
	"context"
	"time"

	"github.com/zqshi/metricstd/internal/consistency"
)

// Publisher delivers report notifications.
type Publisher interface {
	Publish(ctx context.Context, report *consistency.Report) error
	Close() error
}

// NoopPublisher discards notifications (default when NATS is not configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *consistency.Report) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// ReportEvent is the message body published for each report.
type ReportEvent struct {
	ReportID        string         `json:"report_id"`
	Root            string         `json:"root"`
	GeneratedAt     time.Time      `json:"generated_at"`
	TotalIssues     int            `json:"total_issues"`
	BySeverity      map[string]int `json:"by_severity"`
	HighestSeverity string         `json:"highest_severity,omitempty"`
	AutoFixable     int            `json:"auto_fixable"`
	TotalMetrics    int            `json:"total_metrics"`
	InvalidMetrics  int            `json:"invalid_metrics"`
	Suggestions     []string       `json:"suggestions,omitempty"`
}

// NewReportEvent summarizes a report for publishing.
func NewReportEvent(r *consistency.Report) ReportEvent {
	e := ReportEvent{
		ReportID:       r.ID,
		Root:           r.Root,
		GeneratedAt:    r.GeneratedAt,
		TotalIssues:    len(r.Inconsistencies),
		BySeverity:     make(map[string]int),
		AutoFixable:    len(r.AutoFixable()),
		TotalMetrics:   r.TotalMetrics,
		InvalidMetrics: r.InvalidMetrics,
		Suggestions:    r.Suggestions,
	}
	for sev, n := range r.CountBySeverity() {
		e.BySeverity[sev.String()] = n
	}
	if s, ok := r.HighestSeverity(); ok {
		e.HighestSeverity = s.String()
	}
	return e
}
