// Package llm performs structured field extraction with an OpenAI-compatible
// chat model constrained by a per-category JSON Schema.
package llm

import "github.com/cliniq-health/cliniq/constants"

// BuildFieldSchema returns the JSON Schema the model output must satisfy
// for the given document category.
func BuildFieldSchema(docType constants.DocType) map[string]any {
	switch docType {
	case constants.DocTypeDiagnosticReport:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": true,
			"required":             []any{"patient_name", "report_date", "test_name"},
			"properties": map[string]any{
				"patient_name": map[string]any{"type": "string", "minLength": 1},
				"report_date":  map[string]any{"type": "string", "minLength": 1},
				"test_name":    map[string]any{"type": "string", "minLength": 1},
				"results": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"name", "value"},
						"properties": map[string]any{
							"name":  map[string]any{"type": "string"},
							"value": map[string]any{"type": "string"},
							"unit":  map[string]any{"type": "string"},
							"reference_range": map[string]any{
								"type": "string",
							},
						},
					},
				},
				"conclusion": map[string]any{"type": "string"},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			},
		}
	default:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": true,
			"required":             []any{"patient_name", "admission_date", "discharge_date"},
			"properties": map[string]any{
				"patient_name":   map[string]any{"type": "string", "minLength": 1},
				"admission_date": map[string]any{"type": "string", "minLength": 1},
				"discharge_date": map[string]any{"type": "string", "minLength": 1},
				"diagnoses": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"medications": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"follow_up":  map[string]any{"type": "string"},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			},
		}
	}
}
