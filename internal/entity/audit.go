package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is an append-only operational event on a job.
type AuditEntry struct {
	ID        int64     `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	Event     string    `json:"event"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit event names.
const (
	AuditJobCreated             = "job_created"
	AuditJobCompleted           = "job_completed"
	AuditDocumentFailed         = "document_failed"
	AuditExtractionUnconfigured = "extraction_unconfigured"
)
