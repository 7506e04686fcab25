package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/logfields"
	"github.com/zqshi/metricstd/internal/metric"
)

// Update is a partial change to a definition. Nil fields are left untouched.
// The id and name are immutable; re-register under a new id to rename.
type Update struct {
	DisplayName       *string
	Category          *metric.Category
	Level             *metric.Level
	Description       *string
	Formula           *string
	Unit              *metric.Unit
	DataType          *metric.DataType
	Format            *metric.Format
	Precision         *int
	Range             *metric.Range
	QualityThresholds *metric.QualityThresholds
	Direction         *metric.Direction
	Governance        *metric.Governance
	Version           *string
	Domain            []string
	Tags              []string
	Dependencies      []string
	DerivedMetrics    []string
	Metadata          map[string]any

	// Author and Note describe the change record appended on a version bump.
	Author string
	Note   string
}

func (u Update) apply(def *metric.Definition) {
	setIf(&def.DisplayName, u.DisplayName)
	setIf(&def.Category, u.Category)
	setIf(&def.Level, u.Level)
	setIf(&def.Description, u.Description)
	setIf(&def.Formula, u.Formula)
	setIf(&def.Unit, u.Unit)
	setIf(&def.DataType, u.DataType)
	setIf(&def.Format, u.Format)
	setIf(&def.Precision, u.Precision)
	setIf(&def.QualityThresholds, u.QualityThresholds)
	setIf(&def.Direction, u.Direction)
	setIf(&def.Governance, u.Governance)
	setIf(&def.Version, u.Version)
	if u.Range != nil {
		rng := *u.Range
		def.Range = &rng
	}
	if u.Domain != nil {
		def.Domain = slices.Clone(u.Domain)
	}
	if u.Tags != nil {
		def.Tags = slices.Clone(u.Tags)
	}
	if u.Dependencies != nil {
		def.Dependencies = slices.Clone(u.Dependencies)
	}
	if u.DerivedMetrics != nil {
		def.DerivedMetrics = slices.Clone(u.DerivedMetrics)
	}
	if u.Metadata != nil {
		if def.Metadata == nil {
			def.Metadata = make(map[string]any, len(u.Metadata))
		}
		maps.Copy(def.Metadata, u.Metadata)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Update merges u into the definition with id and returns the result. A
// version change appends an update record (deprecate when the approval
// status moves to deprecated). All indexes are rebuilt afterwards.
func (r *Registry) Update(id string, u Update) (*metric.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.defs[id]
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("metric definition %q not found", id)).
			WithContext("id", id).
			Build()
	}

	next := current.Clone()
	u.apply(next)

	if next.Version != current.Version {
		author := u.Author
		if author == "" {
			author = next.Governance.Owner
		}
		kind := metric.ChangeUpdate
		if next.Governance.ApprovalStatus == metric.ApprovalDeprecated &&
			current.Governance.ApprovalStatus != metric.ApprovalDeprecated {
			kind = metric.ChangeDeprecate
		}
		note := u.Note
		if note == "" {
			note = fmt.Sprintf("Updated from %s to %s", current.Version, next.Version)
		}
		next.ChangeHistory = append(next.ChangeHistory, metric.ChangeRecord{
			Version:     next.Version,
			Date:        r.now().UTC().Format(time.RFC3339),
			Author:      author,
			Type:        kind,
			Description: note,
		})
	}

	r.defs[id] = next
	r.rebuildIndexes()
	r.touch()
	slog.Debug("Updated metric definition", logfields.MetricID(id), slog.String("version", next.Version))
	return next.Clone(), nil
}

// Stats summarizes the registry contents.
type Stats struct {
	Total        int                           `json:"total"`
	ByCategory   map[metric.Category]int       `json:"byCategory"`
	ByLevel      map[metric.Level]int          `json:"byLevel"`
	ByApproval   map[metric.ApprovalStatus]int `json:"byApprovalStatus"`
	LastModified time.Time                     `json:"lastModified"`
}

// Stats returns counts by category, level and approval status.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		Total:        len(r.defs),
		ByCategory:   make(map[metric.Category]int, len(r.byCategory)),
		ByLevel:      make(map[metric.Level]int, len(r.byLevel)),
		ByApproval:   make(map[metric.ApprovalStatus]int),
		LastModified: r.lastModified,
	}
	for c, ids := range r.byCategory {
		s.ByCategory[c] = ids.Len()
	}
	for l, ids := range r.byLevel {
		s.ByLevel[l] = ids.Len()
	}
	for _, def := range r.defs {
		s.ByApproval[def.Governance.ApprovalStatus]++
	}
	return s
}
