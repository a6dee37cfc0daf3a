// Package fhir builds canonical FHIR R4 records from extracted field maps.
package fhir

// CodeableConcept carries a plain-text code.
type CodeableConcept struct {
	Text string `json:"text"`
}

// Reference points at a resource by display name only. The pipeline does
// not assign resource ids; records are self-contained documents.
type Reference struct {
	Display string `json:"display"`
}

// Period is a start/end time range.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// DiagnosticReport is the canonical record for laboratory and radiology
// documents.
type DiagnosticReport struct {
	ResourceType      string          `json:"resourceType"`
	Status            string          `json:"status"`
	Code              CodeableConcept `json:"code"`
	Subject           Reference       `json:"subject"`
	EffectiveDateTime string          `json:"effectiveDateTime,omitempty"`
	Result            []Reference     `json:"result,omitempty"`
	Conclusion        string          `json:"conclusion,omitempty"`
}

// Bundle is the canonical record for discharge summaries: a FHIR document
// bundle whose first entry is the Composition.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	Resource any `json:"resource"`
}

type Composition struct {
	ResourceType string          `json:"resourceType"`
	Status       string          `json:"status"`
	Type         CodeableConcept `json:"type"`
	Subject      Reference       `json:"subject"`
	Date         string          `json:"date,omitempty"`
	Title        string          `json:"title"`
}

type HumanName struct {
	Text string `json:"text"`
}

type Patient struct {
	ResourceType string      `json:"resourceType"`
	Name         []HumanName `json:"name"`
}

type Encounter struct {
	ResourceType string `json:"resourceType"`
	Status       string `json:"status"`
	Period       Period `json:"period"`
}

type Condition struct {
	ResourceType string          `json:"resourceType"`
	Code         CodeableConcept `json:"code"`
	Subject      Reference       `json:"subject"`
}

type MedicationStatement struct {
	ResourceType string          `json:"resourceType"`
	Status       string          `json:"status"`
	Medication   CodeableConcept `json:"medicationCodeableConcept"`
	Subject      Reference       `json:"subject"`
}
