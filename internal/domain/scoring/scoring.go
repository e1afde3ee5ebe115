// Package scoring implements the deterministic match-scoring primitives:
// cosine similarity, semantic skill-gap detection and rejection estimation.
package scoring

import (
	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/model"
)

const maxScoreValue = 100

// Similarity computes a bounded match percentage between two unit-norm
// vectors. The dot product equals cosine similarity for normalized inputs;
// the result is scaled by 100 and clamped to [0,100]. Negative cosine clamps
// to 0, treating anti-correlated profiles the same as no overlap.
func Similarity(a, b []float32) float64 {
	score := embedding.Dot(a, b) * 100
	if score < 0 {
		return 0
	}
	if score > maxScoreValue {
		return maxScoreValue
	}
	return score
}

// MatchedSkills returns the literal case-insensitive intersection of a user
// skill list and a required skill list, in required-skill order.
func MatchedSkills(userSkills, requiredSkills []string) []string {
	user := model.NormalizeSkills(userSkills)
	set := make(map[string]struct{}, len(user))
	for _, s := range user {
		set[s] = struct{}{}
	}
	var matched []string
	for _, s := range model.NormalizeSkills(requiredSkills) {
		if _, ok := set[s]; ok {
			matched = append(matched, s)
		}
	}
	return matched
}
