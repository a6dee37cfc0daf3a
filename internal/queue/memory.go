package queue

import (
	"context"
	"sync"
)

// MemoryQueue is a bounded in-process queue. Work enqueued here does not
// survive a restart; the re-drive command exists for that case.
//
// Shutdown is signalled on a separate done channel rather than by closing
// the work channel, so a producer blocked on a full buffer is released with
// ErrClosed instead of panicking on a closed send.
type MemoryQueue struct {
	ch   chan WorkUnit
	done chan struct{}
	once sync.Once
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{
		ch:   make(chan WorkUnit, size),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, unit WorkUnit) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.ch <- unit:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue drains units buffered before Close, then reports ErrClosed.
func (q *MemoryQueue) Dequeue(ctx context.Context) (WorkUnit, error) {
	select {
	case unit := <-q.ch:
		return unit, nil
	default:
	}

	select {
	case unit := <-q.ch:
		return unit, nil
	case <-q.done:
		return WorkUnit{}, ErrClosed
	case <-ctx.Done():
		return WorkUnit{}, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.done) })
	return nil
}
