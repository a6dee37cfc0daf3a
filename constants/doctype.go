package constants

// DocType tags the clinical document category assigned by classification.
type DocType string

const (
	DocTypeDiagnosticReport DocType = "DiagnosticReport"
	DocTypeDischargeSummary DocType = "DischargeSummary"
)

// DefaultDocType is used when classification finds no marker keywords and
// when a document reaches the mutation boundary without ever being classified.
const DefaultDocType = DocTypeDischargeSummary

// PlaceholderConfidence is assigned by the orchestrator when extraction does
// not report a confidence score. It is a fixed stand-in, not a measurement;
// a genuine model-reported score from the extracted field map replaces it.
const PlaceholderConfidence = 0.9
