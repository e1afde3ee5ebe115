package match

import (
	"context"
	"fmt"
	"time"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/pkg/logger"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// Candidate sourcing labels reported in Outcome.Source.
const (
	SourceIndex   = "index"
	SourceScan    = "scan"
	SourceOverlap = "overlap"
)

// Defaults for result and candidate sizing.
const (
	defaultTopK          = 20
	defaultTopKMax       = 100
	defaultCandidatePage = 200
)

// Store is the candidate source the ranker reads from.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetPosting(ctx context.Context, id string) (*model.Posting, error)

	// ListPostings returns active postings of a kind, newest first,
	// up to limit.
	ListPostings(ctx context.Context, kind model.EntityKind, limit int) ([]model.Posting, error)
}

// Request describes one ranking call.
type Request struct {
	UserID   string
	Kind     model.EntityKind
	Strategy string
	TopK     int
}

// Outcome is the full result of a ranking call, including how candidates
// were sourced and whether the pipeline degraded.
type Outcome struct {
	Results          []model.MatchResult `json:"matches"`
	Strategy         string              `json:"strategy"`
	Source           string              `json:"source"`
	Message          string              `json:"message,omitempty"`
	NeedsProfileData bool                `json:"needs_profile_data,omitempty"`
}

// RankerOption applies a configuration option to the Ranker.
type RankerOption func(*Ranker)

// WithTopKDefault sets the result count used when a request leaves TopK zero.
func WithTopKDefault(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.topKDefault = n
		}
	}
}

// WithTopKMax caps the result count a request may ask for.
func WithTopKMax(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.topKMax = n
		}
	}
}

// WithCandidatePageSize sets how many candidates are pulled from the index
// or the store per ranking call.
func WithCandidatePageSize(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithRankerLogger sets a custom logger.
func WithRankerLogger(log logger.Logger) RankerOption {
	return func(r *Ranker) {
		if log != nil {
			r.log = log
		}
	}
}

// Ranker is the matching pipeline entry point. It loads the user, sources
// candidates from the vector index or the store, dispatches to a strategy
// and reports how the results were produced.
type Ranker struct {
	store    Store
	index    Index
	builder  *embedding.Builder
	semantic *SemanticStrategy
	overlap  *OverlapStrategy
	log      logger.Logger

	topKDefault int
	topKMax     int
	pageSize    int
}

// NewRanker wires the pipeline.
func NewRanker(store Store, index Index, builder *embedding.Builder, semantic *SemanticStrategy, opts ...RankerOption) *Ranker {
	r := &Ranker{
		store:       store,
		index:       index,
		builder:     builder,
		semantic:    semantic,
		overlap:     NewOverlapStrategy(),
		topKDefault: defaultTopK,
		topKMax:     defaultTopKMax,
		pageSize:    defaultCandidatePage,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Match runs one ranking call. An empty user skill set short-circuits with
// NeedsProfileData set rather than scoring against placeholder text.
func (r *Ranker) Match(ctx context.Context, req Request) (*Outcome, error) {
	start := time.Now()

	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategySemantic
	}
	if strategy != StrategySemantic && strategy != StrategyOverlap {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, req.Strategy)
	}
	metrics.RecordRankCall(strategy)

	kind := req.Kind
	if kind == "" {
		kind = model.KindJob
	}

	user, err := r.store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", req.UserID, err)
	}
	if len(model.NormalizeSkills(user.Skills)) == 0 {
		return &Outcome{
			Results:          []model.MatchResult{},
			Strategy:         strategy,
			NeedsProfileData: true,
			Message:          "add skills to your profile to get matches",
		}, nil
	}

	topK := r.clampTopK(req.TopK)

	var out *Outcome
	if strategy == StrategyOverlap {
		out, err = r.matchOverlap(ctx, user, kind, topK)
	} else {
		out, err = r.matchSemantic(ctx, user, kind, topK)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordRankLatency(float64(time.Since(start).Milliseconds()))
	metrics.RecordMatchesReturned(len(out.Results))
	return out, nil
}

func (r *Ranker) clampTopK(topK int) int {
	if topK <= 0 {
		return r.topKDefault
	}
	if topK > r.topKMax {
		return r.topKMax
	}
	return topK
}

func (r *Ranker) matchOverlap(ctx context.Context, user *model.User, kind model.EntityKind, topK int) (*Outcome, error) {
	candidates, err := r.store.ListPostings(ctx, kind, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	results, err := r.overlap.Rank(ctx, user, candidates, topK)
	if err != nil {
		return nil, err
	}
	return &Outcome{Results: results, Strategy: StrategyOverlap, Source: SourceOverlap}, nil
}

// matchSemantic ranks through the vector index when it is up, otherwise
// scans store candidates. An encoder failure on the query embedding fails
// the whole call; there is nothing meaningful to rank without it.
func (r *Ranker) matchSemantic(ctx context.Context, user *model.User, kind model.EntityKind, topK int) (*Outcome, error) {
	queryVec, err := r.builder.EmbedUser(ctx, user, embedding.PurposeQuery)
	if err != nil {
		return nil, fmt.Errorf("build query embedding: %w", err)
	}

	candidates, source, err := r.sourceCandidates(ctx, queryVec, kind)
	if err != nil {
		return nil, err
	}

	results, err := r.semantic.RankWithVector(ctx, user, queryVec, candidates, topK)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Results: results, Strategy: StrategySemantic, Source: source}
	if source == SourceScan {
		out.Message = "vector index unavailable, results computed from a store scan"
	}
	return out, nil
}

func (r *Ranker) sourceCandidates(ctx context.Context, queryVec []float32, kind model.EntityKind) ([]model.Posting, string, error) {
	if r.index != nil {
		hits, err := r.index.Query(ctx, queryVec, r.pageSize, IndexFilter{Kind: kind, Model: r.builder.Model()})
		if err == nil {
			return r.resolveHits(ctx, hits), SourceIndex, nil
		}
		metrics.RecordRankFallback()
		if r.log != nil {
			r.log.Warn(ctx, "index query failed, falling back to store scan", logger.Error(err))
		}
	}

	candidates, err := r.store.ListPostings(ctx, kind, r.pageSize)
	if err != nil {
		return nil, "", fmt.Errorf("list postings: %w", err)
	}
	return candidates, SourceScan, nil
}

// resolveHits loads postings behind index hits, preserving index order.
// Stale ids and inactive postings are dropped silently; the index lags the
// store between refresh cycles.
func (r *Ranker) resolveHits(ctx context.Context, hits []IndexMatch) []model.Posting {
	postings := make([]model.Posting, 0, len(hits))
	for _, hit := range hits {
		id := EntityID(hit.ID)
		p, err := r.store.GetPosting(ctx, id)
		if err != nil || p == nil || !p.Active {
			continue
		}
		postings = append(postings, *p)
	}
	return postings
}
