package scoring

import (
	"math"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// Rejection estimator constants. The piecewise base penalty encodes the
// calibration belief that the embedding score is most trustworthy in its top
// band; do not flatten it into a linear curve.
const (
	highBandFloor = 85
	midBandFloor  = 70
	lowBandFloor  = 55

	highBandPenalty = 5
	midBandPenalty  = 15
	lowBandPenalty  = 30

	gapPenaltyPerSkill = 8
	gapPenaltyCeiling  = 45
	levelGapPenalty    = 12

	// probabilityCap leaves room for the possibility of acceptance:
	// never report certainty of rejection.
	probabilityCap = 95
)

// Risk tier labels.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// TierPolicy buckets a rejection probability into a discrete risk tier.
// Two policies coexist on purpose: the semantic and overlap scoring paths
// key off different inputs and carry their own calibration. Do not unify.
type TierPolicy struct {
	Name        string
	LowBelow    float64
	MediumBelow float64
}

// The two named tier policies.
var (
	TierPolicySemantic = TierPolicy{Name: "semantic", LowBelow: 25, MediumBelow: 50}
	TierPolicyOverlap  = TierPolicy{Name: "overlap", LowBelow: 30, MediumBelow: 60}
)

// Tier maps a probability to a risk tier label under this policy.
func (p TierPolicy) Tier(probability float64) string {
	switch {
	case probability < p.LowBelow:
		return RiskLow
	case probability < p.MediumBelow:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Estimate carries a rejection probability and its risk tier.
type Estimate struct {
	Probability float64
	Risk        string
}

// EstimateRejection maps (match score, gap count, experience delta) to a
// rejection probability in [0,95] and a semantic-policy risk tier.
func EstimateRejection(matchScore float64, gapCount int, userLevel, targetLevel model.ExperienceLevel) Estimate {
	var scorePenalty float64
	switch {
	case matchScore >= highBandFloor:
		scorePenalty = highBandPenalty
	case matchScore >= midBandFloor:
		scorePenalty = midBandPenalty
	case matchScore >= lowBandFloor:
		scorePenalty = lowBandPenalty
	default:
		scorePenalty = (100 - matchScore) * 0.5
	}

	gapPenalty := math.Min(float64(gapCount)*gapPenaltyPerSkill, gapPenaltyCeiling)

	levelGap := math.Abs(float64(userLevel.Numeric() - targetLevel.Numeric()))
	expPenalty := levelGap * levelGapPenalty

	total := math.Min(scorePenalty+gapPenalty+expPenalty, probabilityCap)
	total = math.Round(total*10) / 10

	return Estimate{
		Probability: total,
		Risk:        TierPolicySemantic.Tier(total),
	}
}

// OverlapRejection is the cheaper rejection heuristic used by the
// skill-intersection scoring path: 100 minus the score plus five points per
// missing skill, clamped to [0,100]. Tiered with TierPolicyOverlap.
func OverlapRejection(matchScore float64, missingCount int) float64 {
	prob := 100 - matchScore + float64(missingCount)*5
	if prob < 0 {
		return 0
	}
	if prob > 100 {
		return 100
	}
	return math.Round(prob*10) / 10
}

// RecommendedAction returns the semantic-path action for a score and
// rejection probability.
func RecommendedAction(score, probability float64) string {
	switch {
	case score >= 85 && probability < 25:
		return "Apply Now - Excellent Match!"
	case score >= 75 && probability < 40:
		return "Strongly Consider Applying"
	case score >= 65 && probability < 55:
		return "Apply with Portfolio"
	case score >= 55:
		return "Consider After Skill Improvement"
	default:
		return "Build Skills First"
	}
}

// OverlapAction returns the overlap-path action for a score.
func OverlapAction(score float64) string {
	switch {
	case score >= 70:
		return "Apply Now!"
	case score >= 40:
		return "Consider Upskilling"
	default:
		return "Focus on Learning"
	}
}
