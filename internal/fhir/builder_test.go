package fhir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/common"
)

func TestBuildDiagnosticReport(t *testing.T) {
	fields := map[string]any{
		"patient_name": "Jane Roe",
		"report_date":  "2024-03-01",
		"test_name":    "Complete Blood Count",
		"results": []any{
			map[string]any{"name": "WBC", "value": "6.2", "unit": "10^9/L", "reference_range": "4.0-11.0"},
			map[string]any{"name": "HGB", "value": "13.1", "unit": "g/dL"},
		},
		"conclusion": "Within normal limits.",
	}

	raw, err := Build(constants.DocTypeDiagnosticReport, fields)
	require.NoError(t, err)

	var report DiagnosticReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "DiagnosticReport", report.ResourceType)
	assert.Equal(t, "final", report.Status)
	assert.Equal(t, "Complete Blood Count", report.Code.Text)
	assert.Equal(t, "Jane Roe", report.Subject.Display)
	assert.Equal(t, "2024-03-01", report.EffectiveDateTime)
	require.Len(t, report.Result, 2)
	assert.Equal(t, "WBC: 6.2 10^9/L (ref 4.0-11.0)", report.Result[0].Display)
	assert.Equal(t, "HGB: 13.1 g/dL", report.Result[1].Display)
	assert.Equal(t, "Within normal limits.", report.Conclusion)
}

func TestBuildDiagnosticReportMissingPatient(t *testing.T) {
	_, err := Build(constants.DocTypeDiagnosticReport, map[string]any{
		"test_name": "CBC",
	})
	require.Error(t, err)
	assert.Equal(t, common.KindRecordBuildFailed, common.KindOf(err))
}

func TestBuildDischargeBundle(t *testing.T) {
	fields := map[string]any{
		"patient_name":   "John Doe",
		"admission_date": "2024-01-02",
		"discharge_date": "2024-01-09",
		"diagnoses":      []any{"community-acquired pneumonia", "type 2 diabetes"},
		"medications":    []any{"amoxicillin 500mg", "metformin 1000mg"},
	}

	raw, err := Build(constants.DocTypeDischargeSummary, fields)
	require.NoError(t, err)

	var bundle struct {
		ResourceType string `json:"resourceType"`
		Type         string `json:"type"`
		Entry        []struct {
			Resource map[string]any `json:"resource"`
		} `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(raw, &bundle))
	assert.Equal(t, "Bundle", bundle.ResourceType)
	assert.Equal(t, "document", bundle.Type)

	// Composition, Patient, Encounter, then one Condition per diagnosis and
	// one MedicationStatement per medication.
	require.Len(t, bundle.Entry, 7)
	assert.Equal(t, "Composition", bundle.Entry[0].Resource["resourceType"])
	assert.Equal(t, "Patient", bundle.Entry[1].Resource["resourceType"])
	assert.Equal(t, "Encounter", bundle.Entry[2].Resource["resourceType"])
	assert.Equal(t, "Condition", bundle.Entry[3].Resource["resourceType"])
	assert.Equal(t, "Condition", bundle.Entry[4].Resource["resourceType"])
	assert.Equal(t, "MedicationStatement", bundle.Entry[5].Resource["resourceType"])
	assert.Equal(t, "MedicationStatement", bundle.Entry[6].Resource["resourceType"])

	enc := bundle.Entry[2].Resource["period"].(map[string]any)
	assert.Equal(t, "2024-01-02", enc["start"])
	assert.Equal(t, "2024-01-09", enc["end"])
}

func TestBuildDischargeBundleWithoutLists(t *testing.T) {
	raw, err := Build(constants.DocTypeDischargeSummary, map[string]any{
		"patient_name": "John Doe",
	})
	require.NoError(t, err)

	var bundle Bundle
	require.NoError(t, json.Unmarshal(raw, &bundle))
	assert.Len(t, bundle.Entry, 3, "bundle keeps its structural entries with no diagnoses or medications")
}

func TestBuildUnknownCategory(t *testing.T) {
	_, err := Build(constants.DocType("Referral"), map[string]any{"patient_name": "x"})
	require.Error(t, err)
	assert.Equal(t, common.KindRecordBuildFailed, common.KindOf(err))
}
