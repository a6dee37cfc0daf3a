package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/cliniq-health/cliniq/constants"
)

// Job represents a processing job for data transfer between layers.
type Job struct {
	ID            uuid.UUID           `json:"id"`
	Status        constants.JobStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
	DocumentCount int                 `json:"document_count"`

	// AvgConfidence is derived on read across the job's documents; nil when
	// no document has a confidence value.
	AvgConfidence *float64 `json:"avg_confidence,omitempty"`
}

// ProcessingSeconds returns the job turnaround, or nil while incomplete.
func (j *Job) ProcessingSeconds() *float64 {
	if j.CompletedAt == nil {
		return nil
	}
	s := j.CompletedAt.Sub(j.CreatedAt).Seconds()
	return &s
}
