package fhir

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/common"
)

// Build assembles the canonical FHIR record for the given category from the
// extracted field map. Missing structural fields fail with
// RECORD_BUILD_FAILED; the document cannot proceed without them.
func Build(docType constants.DocType, fields map[string]any) (json.RawMessage, error) {
	var (
		record any
		err    error
	)
	switch docType {
	case constants.DocTypeDiagnosticReport:
		record, err = buildDiagnosticReport(fields)
	case constants.DocTypeDischargeSummary:
		record, err = buildDischargeBundle(fields)
	default:
		return nil, common.NewAppError(common.KindRecordBuildFailed,
			fmt.Sprintf("unknown document category %q", docType), nil)
	}
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(record)
	if err != nil {
		return nil, common.NewAppError(common.KindRecordBuildFailed, "marshal record", err)
	}
	return out, nil
}

func buildDiagnosticReport(fields map[string]any) (*DiagnosticReport, error) {
	patient, err := requiredString(fields, "patient_name")
	if err != nil {
		return nil, err
	}
	testName, err := requiredString(fields, "test_name")
	if err != nil {
		return nil, err
	}

	report := &DiagnosticReport{
		ResourceType:      "DiagnosticReport",
		Status:            "final",
		Code:              CodeableConcept{Text: testName},
		Subject:           Reference{Display: patient},
		EffectiveDateTime: optionalString(fields, "report_date"),
		Conclusion:        optionalString(fields, "conclusion"),
	}
	for _, r := range resultEntries(fields) {
		report.Result = append(report.Result, Reference{Display: r})
	}
	return report, nil
}

func buildDischargeBundle(fields map[string]any) (*Bundle, error) {
	patient, err := requiredString(fields, "patient_name")
	if err != nil {
		return nil, err
	}

	subject := Reference{Display: patient}
	bundle := &Bundle{
		ResourceType: "Bundle",
		Type:         "document",
		Entry: []BundleEntry{
			{Resource: Composition{
				ResourceType: "Composition",
				Status:       "final",
				Type:         CodeableConcept{Text: "Discharge summary"},
				Subject:      subject,
				Date:         optionalString(fields, "discharge_date"),
				Title:        "Discharge Summary",
			}},
			{Resource: Patient{
				ResourceType: "Patient",
				Name:         []HumanName{{Text: patient}},
			}},
			{Resource: Encounter{
				ResourceType: "Encounter",
				Status:       "finished",
				Period: Period{
					Start: optionalString(fields, "admission_date"),
					End:   optionalString(fields, "discharge_date"),
				},
			}},
		},
	}
	for _, d := range stringList(fields, "diagnoses") {
		bundle.Entry = append(bundle.Entry, BundleEntry{Resource: Condition{
			ResourceType: "Condition",
			Code:         CodeableConcept{Text: d},
			Subject:      subject,
		}})
	}
	for _, m := range stringList(fields, "medications") {
		bundle.Entry = append(bundle.Entry, BundleEntry{Resource: MedicationStatement{
			ResourceType: "MedicationStatement",
			Status:       "active",
			Medication:   CodeableConcept{Text: m},
			Subject:      subject,
		}})
	}
	return bundle, nil
}

func requiredString(fields map[string]any, key string) (string, error) {
	s := optionalString(fields, key)
	if s == "" {
		return "", common.NewAppError(common.KindRecordBuildFailed,
			fmt.Sprintf("required field %q is missing or empty", key), nil)
	}
	return s, nil
}

func optionalString(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func stringList(fields map[string]any, key string) []string {
	items, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// resultEntries renders each structured result row as a single display
// string, e.g. "WBC: 6.2 10^9/L (ref 4.0-11.0)".
func resultEntries(fields map[string]any) []string {
	items, ok := fields["results"].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		row, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name, _ := row["name"].(string)
		value, _ := row["value"].(string)
		if name == "" && value == "" {
			continue
		}
		display := name
		if value != "" {
			display += ": " + value
		}
		if unit, _ := row["unit"].(string); unit != "" {
			display += " " + unit
		}
		if ref, _ := row["reference_range"].(string); ref != "" {
			display += " (ref " + ref + ")"
		}
		out = append(out, strings.TrimSpace(display))
	}
	return out
}
