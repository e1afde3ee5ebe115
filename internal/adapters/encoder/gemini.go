package encoder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Gemini defaults.
const (
	defaultGeminiModel = "gemini-embedding-001"
	defaultGeminiDims  = 768
)

// Gemini task types for asymmetric retrieval embeddings.
const (
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// GeminiOption applies a configuration option to the Gemini encoder.
type GeminiOption func(*Gemini)

// WithGeminiModel overrides the embedding model name.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithGeminiDims sets the requested output dimensionality.
func WithGeminiDims(dims int) GeminiOption {
	return func(g *Gemini) {
		if dims > 0 {
			g.dims = dims
		}
	}
}

// Gemini encodes text through the Gemini embedding API. The API client is
// created lazily on first encode so construction never needs the network.
type Gemini struct {
	apiKey string
	model  string
	dims   int

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// NewGemini creates a Gemini encoder.
func NewGemini(apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	g := &Gemini{
		apiKey: strings.TrimSpace(apiKey),
		model:  defaultGeminiModel,
		dims:   defaultGeminiDims,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Gemini) init(ctx context.Context) error {
	g.initOnce.Do(func() {
		g.client, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.initErr
}

// Encode implements embedding.Encoder. Asymmetry is expressed through the
// API's task types rather than a text prefix.
func (g *Gemini) Encode(ctx context.Context, text string, purpose embedding.Purpose) ([]float32, error) {
	metrics.RecordEncodeRequest()
	start := time.Now()

	if err := g.init(ctx); err != nil {
		metrics.RecordEncodeError()
		return nil, fmt.Errorf("%w: init client: %v", embedding.ErrEncodingUnavailable, err)
	}

	taskType := taskRetrievalDocument
	if purpose == embedding.PurposeQuery {
		taskType = taskRetrievalQuery
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: genai.Ptr(int32(g.dims)),
	})
	if err != nil {
		metrics.RecordEncodeError()
		return nil, fmt.Errorf("%w: %v", embedding.ErrEncodingUnavailable, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		metrics.RecordEncodeError()
		return nil, fmt.Errorf("%w: empty embedding response", embedding.ErrEncodingUnavailable)
	}
	vec := resp.Embeddings[0].Values
	if len(vec) != g.dims {
		metrics.RecordEncodeError()
		return nil, fmt.Errorf("%w: got %d dims, want %d", embedding.ErrDimensionMismatch, len(vec), g.dims)
	}

	metrics.RecordEncodeLatency(float64(time.Since(start).Milliseconds()))
	// Truncated-dimensionality embeddings come back unnormalized.
	return embedding.Normalize(vec), nil
}

// Dims implements embedding.Encoder.
func (g *Gemini) Dims() int { return g.dims }

// Model implements embedding.Encoder.
func (g *Gemini) Model() string { return g.model }
