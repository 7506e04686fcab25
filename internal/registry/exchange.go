package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zqshi/metricstd/internal/foundation/errors"
	"github.com/zqshi/metricstd/internal/logfields"
	"github.com/zqshi/metricstd/internal/metric"
)

// ExportFormatVersion is written into every export document.
const ExportFormatVersion = "1.0.0"

// Document is the JSON export/import envelope.
type Document struct {
	Version    string               `json:"version"`
	ExportedAt string               `json:"exportedAt"`
	Metrics    []*metric.Definition `json:"metrics"`
}

// ImportResult reports a best-effort import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// Export serializes every definition, sorted by id.
func (r *Registry) Export() ([]byte, error) {
	doc := Document{
		Version:    ExportFormatVersion,
		ExportedAt: r.now().UTC().Format(time.RFC3339),
		Metrics:    r.All(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRegistry, "failed to encode registry export").Build()
	}
	return data, nil
}

// Import registers every valid definition in data, overwriting by id. Items
// that fail to decode or lack a required field are skipped and reported as
// "metrics[i]: ...". Only a payload that is not a JSON object with a metrics
// array returns an error.
func (r *Registry) Import(data []byte) (ImportResult, error) {
	var envelope struct {
		Version string            `json:"version"`
		Metrics []json.RawMessage `json:"metrics"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ImportResult{}, errors.WrapError(err, errors.CategoryValidation, "import payload is not a valid registry document").Build()
	}
	if envelope.Metrics == nil {
		return ImportResult{}, errors.ValidationError("import payload has no metrics array").
			WithContext("field", "metrics").
			Build()
	}

	res := ImportResult{Errors: []string{}}
	for i, raw := range envelope.Metrics {
		var def metric.Definition
		if err := json.Unmarshal(raw, &def); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("metrics[%d]: %v", i, err))
			continue
		}
		if field := metric.MissingField(&def); field != "" {
			res.Errors = append(res.Errors, fmt.Sprintf("metrics[%d]: missing required field %q", i, field))
			continue
		}
		if err := r.Register(&def); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("metrics[%d]: %v", i, err))
			continue
		}
		res.Imported++
	}

	slog.Info("Imported metric definitions",
		logfields.Count(res.Imported),
		slog.Int("rejected", len(res.Errors)))
	return res, nil
}
