package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/cliniq-health/cliniq/constants"
)

// Document represents one source document owned by a job.
//
// Invariant: ValidationReport is only non-nil when FHIRRecord is non-nil,
// and FHIRRecord is only non-nil when ExtractedData is non-nil.
type Document struct {
	ID                uuid.UUID                `json:"id"`
	JobID             uuid.UUID                `json:"job_id"`
	Filename          string                   `json:"filename"`
	DocType           *constants.DocType       `json:"doc_type,omitempty"`
	Status            constants.DocumentStatus `json:"status"`
	Confidence        *float64                 `json:"confidence,omitempty"`
	ExtractedData     json.RawMessage          `json:"extracted_data,omitempty"`
	FHIRRecord        json.RawMessage          `json:"fhir_record,omitempty"`
	ValidationReport  json.RawMessage          `json:"validation_report,omitempty"`
	ValidationVerdict *string                  `json:"validation_verdict,omitempty"`
	ErrorKind         *string                  `json:"error_kind,omitempty"`
	ErrorMessage      *string                  `json:"error_message,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
}

// TypeOrDefault returns the classified type, falling back to the default tag
// for documents that never reached classification.
func (d *Document) TypeOrDefault() constants.DocType {
	if d.DocType != nil {
		return *d.DocType
	}
	return constants.DefaultDocType
}

// Fields unmarshals the extracted field map; nil when none is stored.
func (d *Document) Fields() (map[string]any, error) {
	if len(d.ExtractedData) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(d.ExtractedData, &m); err != nil {
		return nil, err
	}
	return m, nil
}
