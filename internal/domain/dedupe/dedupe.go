// Package dedupe tracks postings already ingested so feed refreshes stay
// idempotent across sources.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50000

// Key builds the dedupe key for a posting. External feeds re-list the same
// opening under fresh ids, so identity is the normalized title and company
// pair rather than the source id.
func Key(title, company string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(company))
}

// Deduper records seen posting keys for at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records it
	// if not. Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key, allowing a retry after a failed ingest.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds how many keys are kept; the oldest are evicted first.
// Zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// inMemoryDeduper keeps keys in a map plus an insertion-order ring so
// bounded mode can evict the oldest entry in O(1).
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	start   int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = struct{}{}
	if d.maxSize > 0 {
		d.order = append(d.order, key)
	}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	d.size.Add(-1)
	// The stale order entry is skipped at eviction time.
}

// evictOldest drops the oldest still-recorded key. Entries already
// unrecorded are skipped. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for d.start < len(d.order) {
		key := d.order[d.start]
		d.start++
		if _, ok := d.seen[key]; ok {
			delete(d.seen, key)
			d.size.Add(-1)
			break
		}
	}
	// Compact once the consumed prefix dominates the slice.
	if d.start > 0 && d.start*2 >= len(d.order) {
		d.order = append(d.order[:0], d.order[d.start:]...)
		d.start = 0
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
