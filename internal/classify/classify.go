// Package classify assigns a document category from extracted text.
package classify

import (
	"strings"

	"github.com/cliniq-health/cliniq/constants"
)

// diagnosticMarkers are matched case-insensitively anywhere in the text.
// Any single hit classifies the document as a diagnostic report.
var diagnosticMarkers = []string{"laboratory", "radiology", "diagnostic"}

// Classify returns the document category for the given extracted text.
// Text without any marker keyword falls back to the discharge summary
// category, so classification never fails.
func Classify(text string) constants.DocType {
	lowered := strings.ToLower(text)
	for _, marker := range diagnosticMarkers {
		if strings.Contains(lowered, marker) {
			return constants.DocTypeDiagnosticReport
		}
	}
	return constants.DefaultDocType
}
