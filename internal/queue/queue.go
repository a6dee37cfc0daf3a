// Package queue carries per-document work units from the upload boundary to
// the worker pool, durably when Redis is configured.
package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrClosed is returned once the queue has shut down.
var ErrClosed = errors.New("queue is closed")

// WorkUnit identifies one document to drive through the pipeline.
type WorkUnit struct {
	JobID      uuid.UUID `json:"job_id"`
	DocumentID uuid.UUID `json:"document_id"`
}

// Queue is the transport between upload and workers. Dequeue blocks until a
// unit is available, the context is done, or the queue is closed.
type Queue interface {
	Enqueue(ctx context.Context, unit WorkUnit) error
	Dequeue(ctx context.Context) (WorkUnit, error)
	Close() error
}
