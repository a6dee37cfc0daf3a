package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cliniq-health/cliniq/constants"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want constants.DocType
	}{
		{
			name: "laboratory marker",
			text: "Laboratory results: hemoglobin within normal range.",
			want: constants.DocTypeDiagnosticReport,
		},
		{
			name: "radiology marker mid sentence",
			text: "the radiology department performed a chest x-ray",
			want: constants.DocTypeDiagnosticReport,
		},
		{
			name: "marker case insensitive",
			text: "DIAGNOSTIC imaging summary",
			want: constants.DocTypeDiagnosticReport,
		},
		{
			name: "marker inside a longer word",
			text: "postdiagnostics review scheduled",
			want: constants.DocTypeDiagnosticReport,
		},
		{
			name: "no markers",
			text: "Patient admitted on 2024-01-02 and discharged in stable condition.",
			want: constants.DocTypeDischargeSummary,
		},
		{
			name: "empty text",
			text: "",
			want: constants.DocTypeDischargeSummary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}
