// Package dedupe tracks recently ingested replay IDs so a timeline is
// persisted at most once.
package dedupe

import (
	"context"
	"sync"
)

// DefaultMaxSize is the number of IDs remembered by default.
const DefaultMaxSize = 1024

// Deduper records seen replay IDs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission that failed after being recorded
	// (for example on queue backpressure) can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// ringDeduper remembers the last maxSize IDs in a fixed ring. Recording into
// a full ring overwrites the oldest slot (FIFO eviction).
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> slot
	ring    []slot
	next    int
	maxSize int
}

type slot struct {
	id   string
	live bool
}

// NewInMemoryDeduper creates a bounded in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int, d.maxSize)
	d.ring = make([]slot, d.maxSize)
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if old := d.ring[d.next]; old.live {
		delete(d.seen, old.id)
	}
	d.ring[d.next] = slot{id: id, live: true}
	d.seen[id] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	d.ring[idx] = slot{}
}

func (d *ringDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
