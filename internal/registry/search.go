package registry

import (
	"strings"

	"github.com/zqshi/metricstd/internal/metric"
	"github.com/zqshi/metricstd/internal/util/sets"
)

// SearchCriteria filters definitions. Zero-valued fields do not filter; set
// fields are combined with AND. Text and Owner match case-insensitive
// substrings (Text over name, displayName, description and formula). Tags
// matches definitions carrying at least one of the tags.
type SearchCriteria struct {
	Text           string
	Category       metric.Category
	Level          metric.Level
	Domain         string
	Tags           []string
	ApprovalStatus metric.ApprovalStatus
	Owner          string
}

// Facets counts the filtered definitions per category, level and tag.
type Facets struct {
	Categories map[metric.Category]int `json:"categories"`
	Levels     map[metric.Level]int    `json:"levels"`
	Tags       map[string]int          `json:"tags"`
}

// SearchResult is the filtered definitions plus facet counts over them.
type SearchResult struct {
	Metrics []*metric.Definition `json:"metrics"`
	Total   int                  `json:"total"`
	Facets  Facets               `json:"facets"`
}

func (c SearchCriteria) matches(def *metric.Definition, tags sets.Set[string]) bool {
	if c.Category != "" && def.Category != c.Category {
		return false
	}
	if c.Level != "" && def.Level != c.Level {
		return false
	}
	if c.Domain != "" && !def.InDomain(c.Domain) {
		return false
	}
	if tags.Len() > 0 && !tags.Intersects(sets.New(def.Tags...)) {
		return false
	}
	if c.ApprovalStatus != "" && def.Governance.ApprovalStatus != c.ApprovalStatus {
		return false
	}
	if c.Owner != "" && !containsFold(def.Governance.Owner, c.Owner) {
		return false
	}
	if c.Text != "" {
		text := strings.ToLower(c.Text)
		found := false
		for _, field := range []string{def.Name, def.DisplayName, def.Description, def.Formula} {
			if strings.Contains(strings.ToLower(field), text) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Search returns the definitions matching every set criterion, sorted by id,
// with facets computed over the matches.
func (r *Registry) Search(c SearchCriteria) SearchResult {
	tags := sets.New(c.Tags...)

	r.mu.RLock()
	ids := make([]string, 0, len(r.defs))
	for id, def := range r.defs {
		if c.matches(def, tags) {
			ids = append(ids, id)
		}
	}
	matched := r.collect(ids)
	r.mu.RUnlock()

	res := SearchResult{
		Metrics: matched,
		Total:   len(matched),
		Facets: Facets{
			Categories: make(map[metric.Category]int),
			Levels:     make(map[metric.Level]int),
			Tags:       make(map[string]int),
		},
	}
	for _, def := range matched {
		res.Facets.Categories[def.Category]++
		res.Facets.Levels[def.Level]++
		for _, tag := range def.Tags {
			res.Facets.Tags[tag]++
		}
	}
	return res
}
