// Package registry stores metric definitions by id and maintains secondary
// indexes by category, level, tag and name.
//
// A Registry is explicitly constructed and passed to its consumers. All
// methods are safe for concurrent use: writes are serialized behind a write
// lock and reads share a read lock. Every definition crossing the API is a
// deep copy, so callers can never mutate stored state.
package registry

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/logfields"
	"github.com/zqshi/metricstd/internal/metric"
	"github.com/zqshi/metricstd/internal/metrics"
	"github.com/zqshi/metricstd/internal/util/sets"
)

// Registry is an in-memory indexed store of definitions.
type Registry struct {
	mu sync.RWMutex

	defs       map[string]*metric.Definition
	byCategory map[metric.Category]sets.Set[string]
	byLevel    map[metric.Level]sets.Set[string]
	byTag      map[string]sets.Set[string]
	byName     map[string]sets.Set[string]

	lastModified time.Time
	now          func() time.Time
	recorder     metrics.Recorder
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source for change records and Stats.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithRecorder reports the registry size after every write.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		defs:     make(map[string]*metric.Definition),
		now:      time.Now,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resetIndexes()
	return r
}

// NewWithDefaults creates a registry seeded with the standard definitions.
func NewWithDefaults(opts ...Option) *Registry {
	r := New(opts...)
	for _, def := range DefaultDefinitions() {
		// Seed definitions are complete; Register only fails on an empty id.
		_ = r.Register(def)
	}
	return r
}

func (r *Registry) resetIndexes() {
	r.byCategory = make(map[metric.Category]sets.Set[string])
	r.byLevel = make(map[metric.Level]sets.Set[string])
	r.byTag = make(map[string]sets.Set[string])
	r.byName = make(map[string]sets.Set[string])
}

func addIndex[K comparable](idx map[K]sets.Set[string], key K, id string) {
	s, ok := idx[key]
	if !ok {
		s = sets.New[string]()
		idx[key] = s
	}
	s.Add(id)
}

func removeIndex[K comparable](idx map[K]sets.Set[string], key K, id string) {
	s, ok := idx[key]
	if !ok {
		return
	}
	s.Delete(id)
	if s.Len() == 0 {
		delete(idx, key)
	}
}

// index adds def to every secondary index. Caller holds the write lock.
func (r *Registry) index(def *metric.Definition) {
	addIndex(r.byCategory, def.Category, def.ID)
	addIndex(r.byLevel, def.Level, def.ID)
	for _, tag := range def.Tags {
		addIndex(r.byTag, tag, def.ID)
	}
	addIndex(r.byName, def.Name, def.ID)
}

// unindex removes def from every secondary index. Caller holds the write lock.
func (r *Registry) unindex(def *metric.Definition) {
	removeIndex(r.byCategory, def.Category, def.ID)
	removeIndex(r.byLevel, def.Level, def.ID)
	for _, tag := range def.Tags {
		removeIndex(r.byTag, tag, def.ID)
	}
	removeIndex(r.byName, def.Name, def.ID)
}

// rebuildIndexes recomputes every secondary index from the primary map.
func (r *Registry) rebuildIndexes() {
	r.resetIndexes()
	for _, def := range r.defs {
		r.index(def)
	}
}

func (r *Registry) touch() {
	r.lastModified = r.now()
	r.recorder.SetRegistrySize(len(r.defs))
}

// Register inserts def, replacing any definition with the same id.
func (r *Registry) Register(def *metric.Definition) error {
	if def == nil || strings.TrimSpace(def.ID) == "" {
		return errors.RegistryError("cannot register a definition without an id").Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.defs[def.ID]; ok {
		r.unindex(prev)
		slog.Debug("Replacing metric definition", logfields.MetricID(def.ID))
	}
	stored := def.Clone()
	r.defs[stored.ID] = stored
	r.index(stored)
	r.touch()
	return nil
}

// Get returns a copy of the definition with id.
func (r *Registry) Get(id string) (*metric.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	if !ok {
		return nil, false
	}
	return def.Clone(), true
}

// Len returns the number of stored definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// All returns copies of every definition sorted by id.
func (r *Registry) All() []*metric.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	return r.collect(ids)
}

// collect clones the definitions for ids in id order. Caller holds a lock.
func (r *Registry) collect(ids []string) []*metric.Definition {
	slices.Sort(ids)
	out := make([]*metric.Definition, 0, len(ids))
	for _, id := range ids {
		if def, ok := r.defs[id]; ok {
			out = append(out, def.Clone())
		}
	}
	return out
}

// ByCategory returns the definitions in category, sorted by id.
func (r *Registry) ByCategory(c metric.Category) []*metric.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(sets.Sorted(r.byCategory[c]))
}

// ByLevel returns the definitions at level, sorted by id.
func (r *Registry) ByLevel(l metric.Level) []*metric.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(sets.Sorted(r.byLevel[l]))
}

// ByTag returns the definitions carrying tag, sorted by id.
func (r *Registry) ByTag(tag string) []*metric.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(sets.Sorted(r.byTag[tag]))
}

// HasName reports whether any definition uses name.
func (r *Registry) HasName(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name].Len() > 0
}

// Names returns every registered name in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Remove deletes the definition with id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.defs[id]
	if !ok {
		return false
	}
	r.unindex(def)
	delete(r.defs, id)
	r.touch()
	return true
}
