package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Pinecone defaults.
const (
	defaultNamespace       = "job-matcher"
	defaultPineconeTimeout = 10 * time.Second
	pineconeRetryCount     = 2
	pineconeRetryWait      = 500 * time.Millisecond
)

// Construction errors.
var (
	ErrMissingHost   = errors.New("pinecone host is required")
	ErrMissingAPIKey = errors.New("pinecone api key is required")
)

// PineconeOption applies a configuration option to the Pinecone index.
type PineconeOption func(*Pinecone)

// WithNamespace sets the index namespace.
func WithNamespace(ns string) PineconeOption {
	return func(p *Pinecone) {
		if ns != "" {
			p.namespace = ns
		}
	}
}

// WithPineconeTimeout sets the per-request timeout.
func WithPineconeTimeout(timeout time.Duration) PineconeOption {
	return func(p *Pinecone) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// Pinecone talks to a Pinecone serverless index over its REST data plane.
// Entity kind and encoder model travel as vector metadata so queries can
// filter on them server-side.
type Pinecone struct {
	client    *resty.Client
	namespace string
	timeout   time.Duration
}

// NewPinecone creates a Pinecone index client for one index host.
func NewPinecone(host, apiKey string, opts ...PineconeOption) (*Pinecone, error) {
	if host == "" {
		return nil, ErrMissingHost
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	p := &Pinecone{
		namespace: defaultNamespace,
		timeout:   defaultPineconeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.client = resty.New().
		SetBaseURL(host).
		SetTimeout(p.timeout).
		SetRetryCount(pineconeRetryCount).
		SetRetryWaitTime(pineconeRetryWait).
		SetHeader("Api-Key", apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return p, nil
}

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type pineconeUpsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace"`
}

type pineconeQueryRequest struct {
	Vector          []float32      `json:"vector"`
	TopK            int            `json:"topK"`
	Namespace       string         `json:"namespace"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeValues   bool           `json:"includeValues"`
	IncludeMetadata bool           `json:"includeMetadata"`
}

type pineconeQueryResponse struct {
	Matches []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"matches"`
}

type pineconeDeleteRequest struct {
	IDs       []string `json:"ids"`
	Namespace string   `json:"namespace"`
}

// Upsert implements match.Index.
func (p *Pinecone) Upsert(ctx context.Context, items ...match.IndexItem) error {
	metrics.RecordIndexOp("upsert")
	if len(items) == 0 {
		return nil
	}

	vectors := make([]pineconeVector, 0, len(items))
	for _, item := range items {
		meta := map[string]any{
			"type":  string(item.Kind),
			"model": item.Model,
		}
		for k, v := range item.Meta {
			meta[k] = v
		}
		vectors = append(vectors, pineconeVector{ID: item.ID, Values: item.Vector, Metadata: meta})
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(pineconeUpsertRequest{Vectors: vectors, Namespace: p.namespace}).
		Post("/vectors/upsert")
	return p.wrap("upsert", resp, err)
}

// Query implements match.Index.
func (p *Pinecone) Query(ctx context.Context, vector []float32, topK int, filter match.IndexFilter) ([]match.IndexMatch, error) {
	metrics.RecordIndexOp("query")
	start := time.Now()

	req := pineconeQueryRequest{
		Vector:    vector,
		TopK:      topK,
		Namespace: p.namespace,
	}
	meta := map[string]any{}
	if filter.Kind != "" {
		meta["type"] = map[string]any{"$eq": string(filter.Kind)}
	}
	if filter.Model != "" {
		meta["model"] = map[string]any{"$eq": filter.Model}
	}
	if len(meta) > 0 {
		req.Filter = meta
	}

	var out pineconeQueryResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/query")
	if err := p.wrap("query", resp, err); err != nil {
		return nil, err
	}

	hits := make([]match.IndexMatch, 0, len(out.Matches))
	for _, m := range out.Matches {
		hits = append(hits, match.IndexMatch{ID: m.ID, Score: m.Score})
	}

	metrics.RecordIndexLatency(float64(time.Since(start).Milliseconds()))
	return hits, nil
}

// Delete implements match.Index.
func (p *Pinecone) Delete(ctx context.Context, ids ...string) error {
	metrics.RecordIndexOp("delete")
	if len(ids) == 0 {
		return nil
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(pineconeDeleteRequest{IDs: ids, Namespace: p.namespace}).
		Post("/vectors/delete")
	return p.wrap("delete", resp, err)
}

// Stats reports the total vector count, for the service snapshot endpoint.
func (p *Pinecone) Stats(ctx context.Context) (int, error) {
	var out struct {
		TotalVectorCount int `json:"totalVectorCount"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{}).
		SetResult(&out).
		Post("/describe_index_stats")
	if err := p.wrap("stats", resp, err); err != nil {
		return 0, err
	}
	return out.TotalVectorCount, nil
}

func (p *Pinecone) wrap(op string, resp *resty.Response, err error) error {
	if err != nil {
		metrics.RecordIndexError(op)
		return fmt.Errorf("%w: %s: %v", match.ErrIndexUnavailable, op, err)
	}
	if resp.IsError() {
		metrics.RecordIndexError(op)
		return fmt.Errorf("%w: %s returned %s", match.ErrIndexUnavailable, op, resp.Status())
	}
	return nil
}
