// Package match orchestrates the ranking pipeline: embed the query entity,
// source candidates, score, estimate rejection, explain, sort and truncate.
package match

import (
	"context"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// IndexItem is a vector stored in the index together with its tags. The
// model tag prevents comparing vectors across encoder versions; queries
// always filter on it.
type IndexItem struct {
	ID     string
	Vector []float32
	Kind   model.EntityKind
	Model  string
	Meta   map[string]string
}

// IndexMatch is one scored hit from an index query.
type IndexMatch struct {
	ID    string
	Score float64
}

// IndexFilter restricts an index query to one entity kind and one encoder
// model version.
type IndexFilter struct {
	Kind  model.EntityKind
	Model string
}

// Index is the vector index contract. Implementations are external
// approximate- or exact-nearest-neighbor services; all operations are
// idempotent per id (re-upsert replaces) and returned scores must be
// monotonic with true cosine similarity.
type Index interface {
	// Upsert inserts or replaces vectors by id.
	Upsert(ctx context.Context, items ...IndexItem) error

	// Query returns the topK nearest items passing the filter, best first.
	Query(ctx context.Context, vector []float32, topK int, filter IndexFilter) ([]IndexMatch, error)

	// Delete removes vectors by id. Missing ids are not an error.
	Delete(ctx context.Context, ids ...string) error
}
