package match

import (
	"context"
	"sort"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// Strategy names.
const (
	StrategySemantic = "semantic"
	StrategyOverlap  = "overlap"
)

// Strategy ranks candidate postings for a user. The two implementations are
// alternative scoring methodologies, not layers of one algorithm: the
// semantic strategy scores in embedding space, the overlap strategy on raw
// skill-set intersection. Both emit the same MatchResult shape.
type Strategy interface {
	Name() string

	// Rank returns results ordered descending by match score, ties
	// preserving candidate input order, truncated to topK. Candidates in
	// the user's rejection history are never returned.
	Rank(ctx context.Context, user *model.User, candidates []model.Posting, topK int) ([]model.MatchResult, error)
}

// sortAndTruncate orders results by score descending with a stable sort so
// equal scores keep candidate input order, then truncates to topK.
func sortAndTruncate(results []model.MatchResult, topK int) []model.MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
