// Package llm adapts the Gemini generation API to the assistant's
// Generator interface.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Generation defaults. The low temperature keeps answers anchored to the
// context the assistant supplies.
const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = 0.3
)

// GeminiOption applies a configuration option to the Gemini generator.
type GeminiOption func(*Gemini)

// WithGeminiModel overrides the generation model name.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// Gemini generates text through the Gemini API. The API client is created
// lazily on first use so construction never needs the network.
type Gemini struct {
	apiKey string
	model  string

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// NewGemini creates a Gemini generator.
func NewGemini(apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	g := &Gemini{
		apiKey: strings.TrimSpace(apiKey),
		model:  defaultModel,
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

// Generate implements assistant.Generator.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.init(ctx); err != nil {
		return "", fmt.Errorf("%w: init client: %v", ErrGenerationUnavailable, err)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(defaultTemperature)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(strings.TrimSpace(part.Text))
		}
	}

	out := sb.String()
	if out == "" {
		return "", fmt.Errorf("%w: empty response", ErrGenerationUnavailable)
	}
	return out, nil
}

// Model reports the configured generation model name.
func (g *Gemini) Model() string { return g.model }
