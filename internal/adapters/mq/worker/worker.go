// Package worker drains the persistence queue into the timeline store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/arena/internal/adapters/mq/queue"
	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/logger"
	"github.com/okian/arena/pkg/metrics"
)

// Saver persists a finalized timeline.
type Saver interface {
	Save(ctx context.Context, tl *model.Timeline) error
}

// Queue defines how workers receive timelines.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Item
}

// Worker persists timelines read from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called
	// or the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	saver   Saver
	name    string
	onError func(tl *model.Timeline, err error)

	processed atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		saver:    saver,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case tl, ok := <-items:
			if !ok {
				return
			}
			metrics.UpdateWorkerActiveCount(1)
			metrics.UpdateWorkerIdleCount(0)
			if err := w.process(ctx, tl); err != nil {
				w.logger.Error(ctx, "error persisting timeline", logger.Error(err))
			}
			metrics.UpdateWorkerActiveCount(0)
			metrics.UpdateWorkerIdleCount(1)
		}
	}
}

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	return w.Wait(ctx)
}

// Wait blocks until the loop exits or ctx is done.
func (w *InMemoryWorker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("worker %s: shutdown timed out: %w", w.name, ctx.Err())
	}
}

// Processed returns the number of timelines handed to the saver.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, tl *model.Timeline) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()
	w.processed.Add(1)

	if err := w.saver.Save(ctx, tl); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "save_error")
		if w.onError != nil {
			w.onError(tl, err)
		}
		return fmt.Errorf("save timeline %s: %w", tl.ID, err)
	}
	w.logger.Debug(ctx, "timeline persisted",
		logger.String("timeline_id", tl.ID),
		logger.Int("frames", len(tl.Frames)),
		logger.Int("highlights", len(tl.Highlights)),
	)
	return nil
}

// Pool manages a fixed set of workers over one queue. A pool of one keeps
// the store single-writer so retention order follows submission order.
type Pool struct {
	workers []*InMemoryWorker
}

// NewPool creates a pool of workerCount workers (at least one).
func NewPool(workerCount int, q Queue, saver Saver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{workers: make([]*InMemoryWorker, workerCount)}
	for i := range p.workers {
		wopts := append([]Option{WithName("persist-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, saver, wopts...)
	}

	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of timelines handled by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Drain waits for every worker to finish after the queue was closed.
func (p *Pool) Drain(ctx context.Context) error {
	for _, w := range p.workers {
		if err := w.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop signals every worker to stop and waits for them.
func (p *Pool) Stop(ctx context.Context) error {
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}
