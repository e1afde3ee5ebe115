// Package queue provides the bounded in-memory ingest queue between feed
// fetches and the worker pool.
package queue

import (
	"context"
	"sync"

	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Default queue configuration constants.
const defaultCapacity = 10000

// Task is one unit of ingest work: a posting to persist, embed and index.
type Task struct {
	Posting model.Posting
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task. Returns false under backpressure: the queue is
	// full or closed and the task was not accepted.
	Enqueue(ctx context.Context, t Task) bool

	// Dequeue returns a channel delivering tasks until the queue closes.
	Dequeue(ctx context.Context) <-chan Task

	// Len returns the current number of queued tasks.
	Len(ctx context.Context) int

	// Close stops accepting tasks and lets consumers drain what remains.
	Close() error
}

// Option applies a configuration option to the InMemory queue.
type Option func(*InMemory)

// WithCapacity sets the maximum number of buffered tasks.
func WithCapacity(capacity int) Option {
	return func(q *InMemory) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// InMemory implements Queue over a buffered channel.
type InMemory struct {
	tasks    chan Task
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(opts ...Option) *InMemory {
	q := &InMemory{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemory) Enqueue(ctx context.Context, t Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.tasks <- t:
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue implements Queue.
func (q *InMemory) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for t := range q.tasks {
			select {
			case out <- t:
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.
func (q *InMemory) Len(_ context.Context) int {
	return len(q.tasks)
}

// Close implements Queue.
func (q *InMemory) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

func (q *InMemory) observe() {
	size := len(q.tasks)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
