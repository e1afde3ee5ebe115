package scoring

import (
	"context"
	"fmt"
	"sync"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Default gap-finder configuration constants.
const (
	// defaultGapThreshold is calibrated for the BGE encoder family.
	// Re-validate when substituting a different encoder.
	defaultGapThreshold = 0.65
	defaultGapFanout    = 8
)

// SkillEmbedder is the slice of the embedding builder the gap finder needs.
type SkillEmbedder interface {
	EmbedSkill(ctx context.Context, skill string, purpose embedding.Purpose) ([]float32, error)
}

// GapOption applies a configuration option to the GapFinder.
type GapOption func(*GapFinder)

// WithGapThreshold sets the semantic similarity threshold below which a
// required skill counts as missing.
func WithGapThreshold(threshold float64) GapOption {
	return func(g *GapFinder) {
		if threshold > 0 && threshold < 1 {
			g.threshold = threshold
		}
	}
}

// WithGapFanout bounds the number of concurrent skill encodes.
func WithGapFanout(n int) GapOption {
	return func(g *GapFinder) {
		if n > 0 {
			g.fanout = n
		}
	}
}

// GapFinder detects missing skills using per-skill semantic similarity
// rather than keyword matching, so near-synonyms ("Python" vs "Python3")
// satisfy a requirement without hand-built synonym tables.
type GapFinder struct {
	embedder  SkillEmbedder
	threshold float64
	fanout    int
}

// NewGapFinder creates a GapFinder with configuration options.
func NewGapFinder(embedder SkillEmbedder, opts ...GapOption) *GapFinder {
	g := &GapFinder{
		embedder:  embedder,
		threshold: defaultGapThreshold,
		fanout:    defaultGapFanout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gaps returns the required skills with no sufficiently-similar counterpart
// in the user skill list. Edge cases: no required skills means no gaps; an
// empty user list means every required skill is a gap. On any embedding
// failure the computation fails closed: the full required set is returned as
// missing together with the error, so callers can degrade a single
// candidate instead of aborting a whole ranked list.
func (g *GapFinder) Gaps(ctx context.Context, userSkills, requiredSkills []string) ([]string, error) {
	metrics.RecordGapComputation()

	required := model.NormalizeSkills(requiredSkills)
	if len(required) == 0 {
		return nil, nil
	}
	user := model.NormalizeSkills(userSkills)
	if len(user) == 0 {
		return required, nil
	}

	// User skills encode as queries, required skills as documents: "has this
	// skill" is a search-like relation under the asymmetric encoder framing.
	userVecs, err := g.embedAll(ctx, user, embedding.PurposeQuery)
	if err != nil {
		return required, fmt.Errorf("embed user skills: %w", err)
	}
	reqVecs, err := g.embedAll(ctx, required, embedding.PurposeStore)
	if err != nil {
		return required, fmt.Errorf("embed required skills: %w", err)
	}

	var gaps []string
	for i, rv := range reqVecs {
		best := 0.0
		for _, uv := range userVecs {
			if sim := embedding.Dot(uv, rv); sim > best {
				best = sim
			}
		}
		if best < g.threshold {
			gaps = append(gaps, required[i])
		}
	}
	return gaps, nil
}

// embedAll encodes every skill concurrently with bounded fan-out. Skills are
// independent of each other; there is no ordering dependency between them.
func (g *GapFinder) embedAll(ctx context.Context, skills []string, purpose embedding.Purpose) ([][]float32, error) {
	vecs := make([][]float32, len(skills))
	errs := make([]error, len(skills))
	sem := make(chan struct{}, g.fanout)

	var wg sync.WaitGroup
	for i, skill := range skills {
		wg.Add(1)
		go func(i int, skill string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			vecs[i], errs[i] = g.embedder.EmbedSkill(ctx, skill, purpose)
		}(i, skill)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return vecs, nil
}
