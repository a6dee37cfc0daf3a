package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cliniq-health/cliniq/internal/queue"
)

// Pool runs a fixed set of workers that pull units from the queue and hand
// them to the processor, each unit under its own timeout.
type Pool struct {
	proc    *Processor
	queue   queue.Queue
	logger  *slog.Logger
	workers int
	timeout time.Duration

	wg     sync.WaitGroup
	once   sync.Once
	cancel context.CancelFunc
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPool(proc *Processor, q queue.Queue, logger *slog.Logger, opts ...Option) *Pool {
	p := &Pool{
		proc:    proc,
		queue:   q,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start launches the workers. It returns immediately; workers run until
// Shutdown or until the queue closes.
func (p *Pool) Start(ctx context.Context) {
	p.once.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run(ctx, i+1)
		}
	})
}

func (p *Pool) run(ctx context.Context, workerID int) {
	defer p.wg.Done()
	p.logger.Info("worker started", "worker_id", workerID)

	for {
		unit, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrClosed) {
				p.logger.Info("worker stopped", "worker_id", workerID)
				return
			}
			p.logger.Error("dequeue failed", "worker_id", workerID, "error", err)
			select {
			case <-ctx.Done():
				p.logger.Info("worker stopped", "worker_id", workerID)
				return
			case <-time.After(time.Second):
			}
			continue
		}

		pctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err = p.proc.ProcessDocument(pctx, unit)
		cancel()

		if err != nil {
			p.logger.Error("processing failed",
				"worker_id", workerID, "document_id", unit.DocumentID, "error", err)
		} else {
			p.logger.Info("processed document",
				"worker_id", workerID, "document_id", unit.DocumentID)
		}
	}
}

// Shutdown stops the workers and waits for in-flight units, bounded by ctx.
func (p *Pool) Shutdown(ctx context.Context) {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("shutdown interrupted by context")
	case <-done:
		p.logger.Info("worker pool drained, shutdown complete")
	}
}
