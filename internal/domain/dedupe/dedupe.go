// Package dedupe provides idempotency tracking for observation IDs.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen observation IDs for at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing a retry. Use this
	// when an observation was marked seen but could not be handed off
	// (queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a fixed ring of IDs
// in insertion order. When the ring is full the oldest ID is evicted, so
// memory stays bounded regardless of traffic. maxSize <= 0 disables
// eviction entirely.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		if old := d.ring[d.next]; old != "" {
			delete(d.seen, old)
			d.size.Add(-1)
		}
		d.ring[d.next] = id
		d.next = (d.next + 1) % d.maxSize
	}

	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)

	// Clear the ring slot so eviction does not double-delete a reused id.
	if d.maxSize > 0 {
		for i, candidate := range d.ring {
			if candidate == id {
				d.ring[i] = ""
				break
			}
		}
	}
}

// Size returns the current number of tracked IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
