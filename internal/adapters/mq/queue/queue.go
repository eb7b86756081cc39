// Package queue hands finalized timelines from request handlers to the
// persistence worker through a bounded in-memory channel.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/pkg/metrics"
)

// DefaultCapacity is the queue capacity used when none is configured.
const DefaultCapacity = 64

// Item is the payload flowing through the queue.
type Item = *model.Timeline

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a timeline without blocking. It fails with ErrQueueFull
	// under backpressure and ErrQueueClosed after Close.
	Enqueue(ctx context.Context, tl Item) error

	// Dequeue returns a channel that receives timelines in enqueue order.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Item

	// Len returns the current number of queued timelines.
	Len(ctx context.Context) int

	// Close stops accepting timelines. Queued ones are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, tl Item) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return fmt.Errorf("queue.enqueue: %w", ErrQueueClosed)
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("queue.enqueue: %w", err)
	}

	select {
	case q.items <- tl:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return fmt.Errorf("queue.enqueue: %w", ErrQueueFull)
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)
		for tl := range q.items {
			select {
			case out <- tl:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

// Close implements Queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

func (q *InMemoryQueue) observe() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}
