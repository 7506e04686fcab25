package metric

import "slices"

// RequiredFields lists the fields every definition must carry, in check order.
var RequiredFields = []string{
	"id", "name", "displayName", "category", "level", "description", "formula",
	"unit", "dataType", "format", "precision", "qualityThresholds", "governance",
	"version", "tags", "domain",
}

// MissingField returns the first required field that is absent from def, or
// "" when the definition is complete. Precision is always considered present
// because zero decimal places is a legitimate value.
func MissingField(def *Definition) string {
	if def == nil {
		return RequiredFields[0]
	}
	return missingField(def, true)
}

// MissingFields returns every absent required field in check order.
func MissingFields(def *Definition) []string {
	if def == nil {
		return slices.Clone(RequiredFields)
	}
	var missing []string
	for _, field := range RequiredFields {
		if !fieldPresent(def, field, true) {
			missing = append(missing, field)
		}
	}
	return missing
}

func missingField(def *Definition, precisionSet bool) string {
	for _, field := range RequiredFields {
		if !fieldPresent(def, field, precisionSet) {
			return field
		}
	}
	return ""
}

func fieldPresent(def *Definition, field string, precisionSet bool) bool {
	switch field {
	case "id":
		return def.ID != ""
	case "name":
		return def.Name != ""
	case "displayName":
		return def.DisplayName != ""
	case "category":
		return def.Category != ""
	case "level":
		return def.Level != ""
	case "description":
		return def.Description != ""
	case "formula":
		return def.Formula != ""
	case "unit":
		return def.Unit != ""
	case "dataType":
		return def.DataType != ""
	case "format":
		return def.Format.Display != ""
	case "precision":
		return precisionSet
	case "qualityThresholds":
		return !def.QualityThresholds.IsZero()
	case "governance":
		g := def.Governance
		return g.Owner != "" && g.ReviewCycle != "" && g.LastReviewed != "" && g.ApprovalStatus != ""
	case "version":
		return def.Version != ""
	case "tags":
		return len(def.Tags) > 0
	case "domain":
		return len(def.Domain) > 0
	default:
		return true
	}
}
