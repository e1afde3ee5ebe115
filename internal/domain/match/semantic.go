package match

import (
	"context"
	"fmt"
	"math"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/internal/domain/scoring"
	"github.com/hirestorm/matchd/pkg/logger"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// defaultScoreFloor is the empirical floor below which embedding-based
// rankings are noise for this encoder family. Re-validate when substituting
// a different encoder.
const defaultScoreFloor = 50

// SemanticOption applies a configuration option to the SemanticStrategy.
type SemanticOption func(*SemanticStrategy)

// WithScoreFloor overrides the minimum score a candidate must reach to be
// surfaced.
func WithScoreFloor(floor float64) SemanticOption {
	return func(s *SemanticStrategy) {
		if floor >= 0 && floor <= 100 {
			s.floor = floor
		}
	}
}

// WithSemanticLogger sets a custom logger.
func WithSemanticLogger(log logger.Logger) SemanticOption {
	return func(s *SemanticStrategy) {
		if log != nil {
			s.log = log
		}
	}
}

// SemanticStrategy scores candidates by cosine similarity between the
// user's query-mode embedding and each posting's store-mode embedding.
type SemanticStrategy struct {
	builder *embedding.Builder
	gaps    *scoring.GapFinder
	floor   float64
	log     logger.Logger
}

// NewSemanticStrategy creates the embedding-based strategy.
func NewSemanticStrategy(builder *embedding.Builder, gaps *scoring.GapFinder, opts ...SemanticOption) *SemanticStrategy {
	s := &SemanticStrategy{
		builder: builder,
		gaps:    gaps,
		floor:   defaultScoreFloor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Strategy.
func (s *SemanticStrategy) Name() string { return StrategySemantic }

// Rank implements Strategy. The query embedding is built once; an encoder
// failure there fails the whole call with no partial results.
func (s *SemanticStrategy) Rank(ctx context.Context, user *model.User, candidates []model.Posting, topK int) ([]model.MatchResult, error) {
	queryVec, err := s.builder.EmbedUser(ctx, user, embedding.PurposeQuery)
	if err != nil {
		return nil, fmt.Errorf("build query embedding: %w", err)
	}
	return s.RankWithVector(ctx, user, queryVec, candidates, topK)
}

// RankWithVector ranks candidates against a pre-built query embedding,
// letting the pipeline reuse the vector it already needed for index
// candidate selection.
func (s *SemanticStrategy) RankWithVector(ctx context.Context, user *model.User, queryVec []float32, candidates []model.Posting, topK int) ([]model.MatchResult, error) {
	results := make([]model.MatchResult, 0, len(candidates))

	for i := range candidates {
		posting := candidates[i]
		if user.Rejected(posting.ID) {
			continue
		}

		postingVec, err := s.builder.EmbedPosting(ctx, &posting, embedding.PurposeStore)
		if err != nil {
			// A whole-call encoder outage surfaces on the query embedding;
			// a per-candidate failure here degrades only this candidate.
			if s.log != nil {
				s.log.Warn(ctx, "skipping candidate: embedding failed",
					logger.String("posting_id", posting.ID), logger.Error(err))
			}
			continue
		}

		metrics.RecordCandidateScored()
		score := scoring.Similarity(queryVec, postingVec)
		if score < s.floor {
			continue
		}

		results = append(results, s.buildResult(ctx, user, posting, score))
	}

	return sortAndTruncate(results, topK), nil
}

// buildResult computes gaps, rejection estimate, reasoning and action for a
// candidate that passed the floor. Gap failures degrade the single
// candidate: the full required set is reported missing.
func (s *SemanticStrategy) buildResult(ctx context.Context, user *model.User, posting model.Posting, score float64) model.MatchResult {
	degraded := false
	missing, err := s.gaps.Gaps(ctx, user.Skills, posting.RequiredSkills)
	if err != nil {
		degraded = true
		if s.log != nil {
			s.log.Warn(ctx, "gap computation degraded",
				logger.String("posting_id", posting.ID), logger.Error(err))
		}
	}
	matched := scoring.MatchedSkills(user.Skills, posting.RequiredSkills)

	est := scoring.EstimateRejection(score, len(missing), user.ExperienceLevel, posting.Experience)

	return model.MatchResult{
		Posting:              posting,
		MatchScore:           round2(score),
		RejectionProbability: est.Probability,
		RejectionRisk:        est.Risk,
		MatchedSkills:        matched,
		MissingSkills:        missing,
		Reasoning:            scoring.SemanticReasoning(score, matched, missing, user.ExperienceLevel, posting.Experience),
		RecommendedAction:    scoring.RecommendedAction(score, est.Probability),
		Degraded:             degraded,
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
