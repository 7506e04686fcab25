// Package normalization maps loosely formatted user strings onto closed enum sets.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Func allows custom key normalization.
type Func func(string) string

// Normalizer provides type-safe string-to-enum normalization with error handling.
type Normalizer[T comparable] struct {
	name         string
	validValues  map[string]T
	defaultValue T
	validKeys    []string // Cached for error messages
	clean        Func
}

// NewNormalizer creates a normalizer with a map of valid string->value pairs.
// Keys are lower-cased and trimmed; several keys may map to the same value (aliases).
func NewNormalizer[T comparable](name string, values map[string]T, defaultValue T) *Normalizer[T] {
	return WithCustomNormalizer(name, values, defaultValue, defaultNormalization)
}

// WithCustomNormalizer creates a normalizer with custom string normalization.
func WithCustomNormalizer[T comparable](name string, values map[string]T, defaultValue T, clean Func) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))

	for k, v := range values {
		key := clean(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}

	sort.Strings(validKeys)

	return &Normalizer[T]{
		name:         name,
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
		clean:        clean,
	}
}

// Normalize converts raw to the enum type, returning the default when unrecognised.
func (n *Normalizer[T]) Normalize(raw string) T {
	if value, ok := n.Lookup(raw); ok {
		return value
	}
	return n.defaultValue
}

// Lookup converts raw to the enum type and reports whether it was recognised.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	value, ok := n.validValues[n.clean(raw)]
	return value, ok
}

// Parse converts raw to the enum type or returns a descriptive error.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if value, ok := n.Lookup(raw); ok {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %s", n.name, raw, strings.Join(n.validKeys, ", "))
}

// IsValid reports whether value is one of the enum members.
func (n *Normalizer[T]) IsValid(value T) bool {
	for _, v := range n.validValues {
		if v == value {
			return true
		}
	}
	return false
}

// ValidKeys returns all valid normalized keys.
func (n *Normalizer[T]) ValidKeys() []string {
	result := make([]string, len(n.validKeys))
	copy(result, n.validKeys)
	return result
}

// defaultNormalization lower-cases and trims.
func defaultNormalization(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
