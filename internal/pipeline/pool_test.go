package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniq-health/cliniq/constants"
	"github.com/cliniq-health/cliniq/internal/queue"
)

func testPoolLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolProcessesQueuedUnits(t *testing.T) {
	text := &stubText{text: "discharge note"}
	fields := &stubFields{fields: map[string]any{"patient_name": "John Doe"}}
	f := newFixture(t, text, fields)
	job, docs := f.seed(t, "a.pdf", "b.pdf", "c.pdf")
	ctx := context.Background()

	q := queue.NewMemoryQueue(8)
	pool := NewPool(f.proc, q, testPoolLogger(), WithWorkers(2), WithProcessTimeout(5*time.Second))
	pool.Start(ctx)

	for _, d := range docs {
		require.NoError(t, q.Enqueue(ctx, queue.WorkUnit{JobID: job.ID, DocumentID: d.ID}))
	}

	require.Eventually(t, func() bool {
		j, err := f.jobs.GetByID(ctx, job.ID)
		return err == nil && j.Status == constants.JobStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	pool.Shutdown(shutdownCtx)

	all, err := f.docs.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	for _, d := range all {
		assert.Equal(t, constants.DocStatusValidated, d.Status)
	}
}
