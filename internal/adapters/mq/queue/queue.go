// Package queue defines the contract for enqueuing and consuming metric
// observations.
//
// Implementations may use channels or more advanced structures. The
// default is an in-memory bounded queue.
package queue

import (
	"context"
	"sync"

	"github.com/okian/skillsift/internal/domain/model"
	"github.com/okian/skillsift/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Observation is the payload type flowing through the queue.
type Observation = model.Observation

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an observation to the queue.
	// Returns false if the queue is full and the observation was not enqueued.
	Enqueue(ctx context.Context, obs Observation) bool

	// Dequeue returns a channel that will receive observations as they
	// become available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Observation

	// Len returns the current number of queued observations.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// observations can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	observations chan Observation
	capacity     int
	bufferSize   int
	mu           sync.RWMutex
	closed       bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.observations = make(chan Observation, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds an observation to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, obs Observation) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	if len(q.observations) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.observations <- obs:
		metrics.RecordQueueEnqueue()
		currentSize := len(q.observations)
		metrics.UpdateQueueSize(currentSize)
		metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue returns a channel that will receive observations as they become
// available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Observation {
	dequeueChan := make(chan Observation)
	go func() {
		defer close(dequeueChan)
		for obs := range q.observations {
			select {
			case dequeueChan <- obs:
				metrics.RecordQueueDequeue()
				currentSize := len(q.observations)
				metrics.UpdateQueueSize(currentSize)
				metrics.UpdateQueueUtilization(float64(currentSize) / float64(q.capacity))
			case <-ctx.Done():
				return
			}
		}
	}()
	return dequeueChan
}

// Len returns the current number of queued observations.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.observations)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.observations)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
