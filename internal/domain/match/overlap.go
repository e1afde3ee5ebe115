package match

import (
	"context"

	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/internal/domain/scoring"
	"github.com/hirestorm/matchd/pkg/metrics"
)

// defaultOverlapScore applies when a posting lists no required skills:
// there is nothing to compare, so the match is a coin flip.
const defaultOverlapScore = 50

// OverlapStrategy scores candidates on the raw skill-set intersection
// ratio. It needs no encoder and no index, which makes it both the cheap
// first-pass filter and the fallback when the vector path is down.
type OverlapStrategy struct{}

// NewOverlapStrategy creates the skill-intersection strategy.
func NewOverlapStrategy() *OverlapStrategy { return &OverlapStrategy{} }

// Name implements Strategy.
func (o *OverlapStrategy) Name() string { return StrategyOverlap }

// Rank implements Strategy.
func (o *OverlapStrategy) Rank(_ context.Context, user *model.User, candidates []model.Posting, topK int) ([]model.MatchResult, error) {
	userSkills := model.NormalizeSkills(user.Skills)
	userSet := make(map[string]struct{}, len(userSkills))
	for _, s := range userSkills {
		userSet[s] = struct{}{}
	}

	results := make([]model.MatchResult, 0, len(candidates))
	for i := range candidates {
		posting := candidates[i]
		if user.Rejected(posting.ID) {
			continue
		}
		metrics.RecordCandidateScored()

		required := model.NormalizeSkills(posting.RequiredSkills)
		var matched, missing []string
		var score float64
		if len(required) > 0 {
			for _, s := range required {
				if _, ok := userSet[s]; ok {
					matched = append(matched, s)
				} else {
					missing = append(missing, s)
				}
			}
			score = float64(len(matched)) / float64(len(required)) * 100
		} else {
			score = defaultOverlapScore
		}

		prob := scoring.OverlapRejection(score, len(missing))

		results = append(results, model.MatchResult{
			Posting:              posting,
			MatchScore:           round1(score),
			RejectionProbability: prob,
			RejectionRisk:        scoring.TierPolicyOverlap.Tier(prob),
			MatchedSkills:        matched,
			MissingSkills:        missing,
			Reasoning:            scoring.OverlapReasoning(score, matched, missing),
			RecommendedAction:    scoring.OverlapAction(score),
		})
	}

	return sortAndTruncate(results, topK), nil
}
