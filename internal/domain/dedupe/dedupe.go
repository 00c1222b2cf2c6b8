// Package dedupe tracks job IDs so each result is delivered at most once.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 1024

// Deduper records seen job IDs to ensure at-most-once delivery.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a later delivery of the same job can proceed.
	// Used when a recorded delivery could not be queued.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

type slot struct {
	id  string
	gen uint64
}

// ringDeduper keeps the most recent maxSize IDs. The ring holds insertion
// order; an entry is live only while the map still points at its generation,
// so Unrecord never has to touch the ring.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64
	ring    []slot
	next    int
	gen     uint64
	maxSize int
}

// NewInMemoryDeduper creates a bounded deduper. When full, the oldest ID is forgotten.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]uint64, d.maxSize)
	d.ring = make([]slot, d.maxSize)
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	old := d.ring[d.next]
	if g, ok := d.seen[old.id]; ok && g == old.gen {
		delete(d.seen, old.id)
	}

	d.gen++
	d.ring[d.next] = slot{id: id, gen: d.gen}
	d.seen[id] = d.gen
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

// Size returns the number of IDs currently remembered.
func (d *ringDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
