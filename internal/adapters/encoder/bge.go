// Package encoder provides text encoder implementations behind the
// embedding.Encoder contract: a BGE text-embeddings-inference server, the
// Gemini embedding API, and a TTL cache wrapper for either.
package encoder

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// bgeQueryPrefix is the instruction prefix the BGE model family was trained
// with for the query side of asymmetric retrieval. Documents encode bare.
const bgeQueryPrefix = "Represent this sentence for searching relevant passages: "

// BGE defaults.
const (
	defaultBGEModel   = "BAAI/bge-base-en-v1.5"
	defaultBGEDims    = 768
	defaultBGETimeout = 10 * time.Second
	bgeRetryCount     = 2
	bgeRetryWait      = 500 * time.Millisecond
)

// BGEOption applies a configuration option to the BGE encoder.
type BGEOption func(*BGE)

// WithBGEModel overrides the reported model tag.
func WithBGEModel(model string) BGEOption {
	return func(b *BGE) {
		if model != "" {
			b.model = model
		}
	}
}

// WithBGEDims overrides the expected vector dimensionality.
func WithBGEDims(dims int) BGEOption {
	return func(b *BGE) {
		if dims > 0 {
			b.dims = dims
		}
	}
}

// WithBGETimeout sets the per-request timeout.
func WithBGETimeout(timeout time.Duration) BGEOption {
	return func(b *BGE) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

// BGE encodes text through a text-embeddings-inference server hosting a
// BGE-family model.
type BGE struct {
	client  *resty.Client
	model   string
	dims    int
	timeout time.Duration
}

// NewBGE creates a BGE encoder talking to a server at baseURL.
func NewBGE(baseURL string, opts ...BGEOption) (*BGE, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	b := &BGE{
		model:   defaultBGEModel,
		dims:    defaultBGEDims,
		timeout: defaultBGETimeout,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.client = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(b.timeout).
		SetRetryCount(bgeRetryCount).
		SetRetryWaitTime(bgeRetryWait).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return b, nil
}

type bgeEmbedRequest struct {
	Inputs []string `json:"inputs"`
}

// Encode implements embedding.Encoder.
func (b *BGE) Encode(ctx context.Context, text string, purpose embedding.Purpose) ([]float32, error) {
	metrics.RecordEncodeRequest()
	start := time.Now()

	if purpose == embedding.PurposeQuery {
		text = bgeQueryPrefix + text
	}

	var vectors [][]float32
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(bgeEmbedRequest{Inputs: []string{text}}).
		SetResult(&vectors).
		Post("/embed")
	if err != nil {
		metrics.RecordEncodeError()
		return nil, fmt.Errorf("%w: %v", embedding.ErrEncodingUnavailable, err)
	}
	if resp.IsError() {
		metrics.RecordEncodeError()
		return nil, fmt.Errorf("%w: embed returned %s", embedding.ErrEncodingUnavailable, resp.Status())
	}
	if len(vectors) != 1 {
		metrics.RecordEncodeError()
		return nil, fmt.Errorf("%w: embed returned %d vectors for one input", embedding.ErrEncodingUnavailable, len(vectors))
	}
	vec := vectors[0]
	if len(vec) != b.dims {
		metrics.RecordEncodeError()
		return nil, fmt.Errorf("%w: got %d dims, want %d", embedding.ErrDimensionMismatch, len(vec), b.dims)
	}

	metrics.RecordEncodeLatency(float64(time.Since(start).Milliseconds()))
	return embedding.Normalize(vec), nil
}

// Dims implements embedding.Encoder.
func (b *BGE) Dims() int { return b.dims }

// Model implements embedding.Encoder.
func (b *BGE) Model() string { return b.model }
