// Package history persists consistency reports so runs can be listed and
// compared over time.
package history

import (
	"context"
	"time"

	"github.com/zqshi/metricstd/internal/consistency"
)

// Entry summarizes one stored report.
type Entry struct {
	ID              string    `json:"id"`
	Root            string    `json:"root"`
	GeneratedAt     time.Time `json:"generatedAt"`
	TotalIssues     int       `json:"totalIssues"`
	HighestSeverity string    `json:"highestSeverity,omitempty"`
	AutoFixable     int       `json:"autoFixable"`
	FilesScanned    int       `json:"filesScanned"`
}

// Store defines the interface for persisting and retrieving reports.
type Store interface {
	// Save stores a report, replacing any report with the same id.
	Save(ctx context.Context, report *consistency.Report) error

	// List returns the newest entries first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Get returns the full report with the given id.
	Get(ctx context.Context, id string) (*consistency.Report, error)

	// Latest returns the newest report for root, or nil when none exists.
	Latest(ctx context.Context, root string) (*consistency.Report, error)

	// Close closes the store and releases resources.
	Close() error
}

// Delta compares the inconsistency ids of two reports.
type Delta struct {
	New       []string `json:"new"`
	Resolved  []string `json:"resolved"`
	Unchanged int      `json:"unchanged"`
}

// Diff reports which inconsistencies appeared or disappeared between prev
// and cur. A nil prev treats every current issue as new.
func Diff(prev, cur *consistency.Report) Delta {
	var d Delta
	before := make(map[string]bool)
	if prev != nil {
		for _, inc := range prev.Inconsistencies {
			before[inc.ID] = true
		}
	}
	after := make(map[string]bool)
	if cur != nil {
		for _, inc := range cur.Inconsistencies {
			after[inc.ID] = true
			if before[inc.ID] {
				d.Unchanged++
			} else {
				d.New = append(d.New, inc.ID)
			}
		}
	}
	if prev != nil {
		for _, inc := range prev.Inconsistencies {
			if !after[inc.ID] {
				d.Resolved = append(d.Resolved, inc.ID)
			}
		}
	}
	return d
}

func entryFor(r *consistency.Report) Entry {
	e := Entry{
		ID:           r.ID,
		Root:         r.Root,
		GeneratedAt:  r.GeneratedAt,
		TotalIssues:  len(r.Inconsistencies),
		AutoFixable:  len(r.AutoFixable()),
		FilesScanned: r.FilesScanned,
	}
	if s, ok := r.HighestSeverity(); ok {
		e.HighestSeverity = s.String()
	}
	return e
}
