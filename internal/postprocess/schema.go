package postprocess

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// A schema is a map from field name to an expected-type tag ("string",
// "number", "integer", "boolean", "array", "object"), or a JSON-Schema-like
// document with a "properties" mapping and an optional "required" list.
// Both forms are accepted everywhere a schema is taken.

// QualityMetrics buckets every schema field into exactly one of
// filled/null/empty and reports the resulting coverage ratio.
type QualityMetrics struct {
	TotalFields   int     `json:"total_fields"`
	FilledFields  int     `json:"filled_fields"`
	NullFields    int     `json:"null_fields"`
	EmptyFields   int     `json:"empty_fields"`
	FieldCoverage float64 `json:"field_coverage"`
}

// schemaProperties returns the field-name -> field-spec mapping of a
// schema, unwrapping the "properties" form when present.
func schemaProperties(schema map[string]any) map[string]any {
	if props, ok := schema["properties"].(map[string]any); ok {
		return props
	}
	return schema
}

// requiredFields returns the set of field names whose absence counts as a
// validation error: the "required" list in the JSON-Schema form, otherwise
// every schema field.
func requiredFields(schema map[string]any) map[string]struct{} {
	if _, hasProps := schema["properties"].(map[string]any); hasProps {
		if list, ok := schema["required"].([]any); ok {
			required := make(map[string]struct{}, len(list))
			for _, item := range list {
				if name, ok := item.(string); ok {
					required[name] = struct{}{}
				}
			}
			return required
		}
	}

	props := schemaProperties(schema)
	required := make(map[string]struct{}, len(props))
	for name := range props {
		required[name] = struct{}{}
	}
	return required
}

// typeTag extracts the expected-type tag from a field spec: the spec
// itself in the plain form, or its "type" entry in the properties form.
func typeTag(spec any) (string, bool) {
	switch t := spec.(type) {
	case string:
		return strings.ToLower(t), true
	case map[string]any:
		if tag, ok := t["type"].(string); ok {
			return strings.ToLower(tag), true
		}
	}
	return "", false
}

// ValidateSchema checks data against the schema and returns validation
// error messages, empty meaning valid. Messages are emitted in a fixed
// order for deterministic assertions: empty-data, missing fields, extra
// fields, then per-field type mismatches in lexicographic field order.
func ValidateSchema(data, schema map[string]any, strict, allowExtra bool) []string {
	errs := []string{}

	if len(data) == 0 {
		return append(errs, "Parsed data is empty")
	}

	props := schemaProperties(schema)

	var missing []string
	for name := range requiredFields(schema) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		errs = append(errs, fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")))
	}

	if !allowExtra {
		var extra []string
		for name := range data {
			if _, ok := props[name]; !ok {
				extra = append(extra, name)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			errs = append(errs, fmt.Sprintf("Extra fields not in schema: %s", strings.Join(extra, ", ")))
		}
	}

	if strict {
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value, ok := data[name]
			if !ok {
				continue
			}
			tag, ok := typeTag(props[name])
			if !ok {
				continue
			}
			if !typeMatches(value, tag) {
				errs = append(errs, fmt.Sprintf(
					"Field '%s' has incorrect type. Expected: %s, Got: %s",
					name, tag, jsonKind(value)))
			}
		}
	}

	return errs
}

// typeMatches checks a runtime value against an expected-type tag. Null
// always passes: it means "intentionally absent", which completeness
// scoring penalizes instead. The "number" tag accepts integer and
// floating values; "integer" requires an integral value.
func typeMatches(value any, tag string) bool {
	if value == nil {
		return true
	}

	switch tag {
	case "string":
		_, ok := value.(string)
		return ok
	case "number", "float":
		return isNumeric(value)
	case "integer":
		switch n := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		return reflect.ValueOf(value).Kind() == reflect.Slice
	case "object":
		return reflect.ValueOf(value).Kind() == reflect.Map
	default:
		// Unknown tags degrade to the string check.
		_, ok := value.(string)
		return ok
	}
}

func isNumeric(value any) bool {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

// jsonKind names the JSON kind of a runtime value for error messages.
func jsonKind(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice:
		return "array"
	case reflect.Map:
		return "object"
	default:
		return reflect.TypeOf(value).String()
	}
}

// isFilled reports whether a field value is meaningful: non-null, and for
// strings non-blank, and for arrays/objects non-empty.
func isFilled(value any) bool {
	switch t := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() > 0
	}
	return true
}

// Completeness returns the fraction of schema fields that received a
// meaningful value. A schema with no fields is trivially complete (1.0);
// empty data against a non-empty schema scores 0.0.
func Completeness(data, schema map[string]any) float64 {
	props := schemaProperties(schema)
	if len(props) == 0 {
		return 1.0
	}
	if len(data) == 0 {
		return 0.0
	}

	filled := 0
	for name := range props {
		if value, ok := data[name]; ok && isFilled(value) {
			filled++
		}
	}
	return float64(filled) / float64(len(props))
}

// ComputeQualityMetrics buckets every schema field: absent or null fields
// count as null, blank strings and empty containers as empty, everything
// else as filled. Empty data reports zero coverage.
func ComputeQualityMetrics(data, schema map[string]any) QualityMetrics {
	props := schemaProperties(schema)
	metrics := QualityMetrics{TotalFields: len(props)}

	if len(data) == 0 {
		return metrics
	}

	for name := range props {
		value, ok := data[name]
		switch {
		case !ok || value == nil:
			metrics.NullFields++
		case !isFilled(value):
			metrics.EmptyFields++
		default:
			metrics.FilledFields++
		}
	}

	if metrics.TotalFields > 0 {
		metrics.FieldCoverage = float64(metrics.FilledFields) / float64(metrics.TotalFields)
	}
	return metrics
}
