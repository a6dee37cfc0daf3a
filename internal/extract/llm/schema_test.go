package llm

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/common"
)

func TestDiagnosticReportSchema(t *testing.T) {
	schema := BuildFieldSchema(constants.DocTypeDiagnosticReport)

	good := []byte(`{
		"patient_name": "Jane Roe",
		"report_date": "2024-03-01",
		"test_name": "CBC",
		"results": [{"name": "WBC", "value": "6.2", "unit": "10^9/L"}],
		"confidence": 0.85
	}`)
	require.NoError(t, validateAgainstSchema(schema, good))

	missingRequired := []byte(`{"patient_name": "Jane Roe"}`)
	assert.Error(t, validateAgainstSchema(schema, missingRequired))

	badConfidence := []byte(`{
		"patient_name": "Jane Roe",
		"report_date": "2024-03-01",
		"test_name": "CBC",
		"confidence": 1.5
	}`)
	assert.Error(t, validateAgainstSchema(schema, badConfidence))
}

func TestDischargeSummarySchema(t *testing.T) {
	schema := BuildFieldSchema(constants.DocTypeDischargeSummary)

	good := []byte(`{
		"patient_name": "John Doe",
		"admission_date": "2024-01-02",
		"discharge_date": "2024-01-09",
		"diagnoses": ["pneumonia"],
		"medications": ["amoxicillin"]
	}`)
	require.NoError(t, validateAgainstSchema(schema, good))

	badDiagnoses := []byte(`{
		"patient_name": "John Doe",
		"admission_date": "2024-01-02",
		"discharge_date": "2024-01-09",
		"diagnoses": "pneumonia"
	}`)
	assert.Error(t, validateAgainstSchema(schema, badDiagnoses))
}

func TestClientUnconfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(common.LLMConfig{Model: "gpt-4o-mini"}, logger)

	_, _, err := c.ExtractFields(t.Context(), "some text", constants.DocTypeDischargeSummary)
	require.Error(t, err)
	assert.Equal(t, common.KindExtractionUnconfigured, common.KindOf(err))
}
