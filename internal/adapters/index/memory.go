// Package index provides vector index implementations behind the
// match.Index contract: an exact in-memory scan for development and tests,
// and a Pinecone-backed index for production.
package index

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Memory is an exact nearest-neighbor index over an in-process map. Scans
// are linear; fine for the corpus sizes a single deployment handles.
type Memory struct {
	mu    sync.RWMutex
	items map[string]match.IndexItem
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]match.IndexItem)}
}

// Upsert implements match.Index.
func (m *Memory) Upsert(_ context.Context, items ...match.IndexItem) error {
	metrics.RecordIndexOp("upsert")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.items[item.ID] = item
	}
	return nil
}

// Query implements match.Index. Scores are cosine similarity scaled to
// [0,100], matching what callers see from the scoring layer.
func (m *Memory) Query(_ context.Context, vector []float32, topK int, filter match.IndexFilter) ([]match.IndexMatch, error) {
	metrics.RecordIndexOp("query")
	start := time.Now()

	m.mu.RLock()
	hits := make([]match.IndexMatch, 0, len(m.items))
	for id, item := range m.items {
		if filter.Kind != "" && item.Kind != filter.Kind {
			continue
		}
		if filter.Model != "" && item.Model != filter.Model {
			continue
		}
		if len(item.Vector) != len(vector) {
			continue
		}
		hits = append(hits, match.IndexMatch{ID: id, Score: embedding.Dot(vector, item.Vector) * 100})
	}
	m.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	metrics.RecordIndexLatency(float64(time.Since(start).Milliseconds()))
	return hits, nil
}

// Delete implements match.Index.
func (m *Memory) Delete(_ context.Context, ids ...string) error {
	metrics.RecordIndexOp("delete")
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.items, id)
	}
	return nil
}

// Len reports how many vectors the index holds.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
