package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(4)
	defer q.Close()

	ctx := context.Background()
	unit := WorkUnit{JobID: uuid.New(), DocumentID: uuid.New()}
	require.NoError(t, q.Enqueue(ctx, unit))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, unit, got)
}

func TestMemoryQueueOrdering(t *testing.T) {
	q := NewMemoryQueue(8)
	defer q.Close()

	ctx := context.Background()
	first := WorkUnit{JobID: uuid.New(), DocumentID: uuid.New()}
	second := WorkUnit{JobID: first.JobID, DocumentID: uuid.New()}
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestMemoryQueueDequeueHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueueClose(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.Close())

	err := q.Enqueue(context.Background(), WorkUnit{})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryQueueCloseUnblocksEnqueue(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, WorkUnit{JobID: uuid.New(), DocumentID: uuid.New()}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Enqueue(ctx, WorkUnit{JobID: uuid.New(), DocumentID: uuid.New()})
	}()

	// Give the producer time to block on the full buffer.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("enqueue still blocked after close")
	}
}

func TestMemoryQueueDrainsBufferAfterClose(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()
	unit := WorkUnit{JobID: uuid.New(), DocumentID: uuid.New()}
	require.NoError(t, q.Enqueue(ctx, unit))
	require.NoError(t, q.Close())

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, unit, got)

	_, err = q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
