package scoring_test

import (
	"testing"

	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEstimateRejection(t *testing.T) {
	Convey("Given the piecewise base penalty", t, func() {
		Convey("Then the band edges map to fixed penalties", func() {
			So(scoring.EstimateRejection(85, 0, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, 5)
			So(scoring.EstimateRejection(92, 0, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, 5)
			So(scoring.EstimateRejection(70, 0, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, 15)
			So(scoring.EstimateRejection(84.9, 0, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, 15)
			So(scoring.EstimateRejection(55, 0, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, 30)
			So(scoring.EstimateRejection(69.9, 0, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, 30)
		})

		Convey("And below 55 the penalty is linear in (100 - score)", func() {
			So(scoring.EstimateRejection(40, 0, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, 30)
			So(scoring.EstimateRejection(20, 0, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, 40)
		})
	})

	Convey("Given the skill-gap penalty", t, func() {
		Convey("Then it is linear with a hard ceiling of 45", func() {
			base := scoring.EstimateRejection(90, 0, model.LevelEntry, model.LevelEntry).Probability
			So(scoring.EstimateRejection(90, 1, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, base+8)
			So(scoring.EstimateRejection(90, 5, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, base+40)
			So(scoring.EstimateRejection(90, 6, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, base+45)
			So(scoring.EstimateRejection(90, 100, model.LevelEntry, model.LevelEntry).Probability, ShouldEqual, base+45)
		})

		Convey("And probability is monotonically non-decreasing in gap count", func() {
			prev := 0.0
			for gaps := 0; gaps <= 12; gaps++ {
				p := scoring.EstimateRejection(75, gaps, model.LevelEntry, model.LevelEntry).Probability
				So(p, ShouldBeGreaterThanOrEqualTo, prev)
				prev = p
			}
		})
	})

	Convey("Given the experience-gap penalty", t, func() {
		Convey("Then each level of distance costs 12 points", func() {
			base := scoring.EstimateRejection(90, 0, model.LevelEntry, model.LevelEntry).Probability
			So(scoring.EstimateRejection(90, 0, model.LevelEntry, model.LevelMid).Probability, ShouldEqual, base+12)
			So(scoring.EstimateRejection(90, 0, model.LevelEntry, model.LevelSenior).Probability, ShouldEqual, base+24)
			So(scoring.EstimateRejection(90, 0, model.LevelSenior, model.LevelEntry).Probability, ShouldEqual, base+24)
		})
	})

	Convey("Given extreme inputs", t, func() {
		Convey("Then probability never exceeds 95", func() {
			e := scoring.EstimateRejection(0, 100, model.LevelEntry, model.LevelSenior)
			So(e.Probability, ShouldEqual, 95)
			So(e.Risk, ShouldEqual, scoring.RiskHigh)
		})
	})
}

func TestTierPolicies(t *testing.T) {
	Convey("Given the semantic tier policy", t, func() {
		p := scoring.TierPolicySemantic

		Convey("Then the 25/50 breakpoints hold exactly", func() {
			So(p.Tier(24.9), ShouldEqual, scoring.RiskLow)
			So(p.Tier(25), ShouldEqual, scoring.RiskMedium)
			So(p.Tier(49.9), ShouldEqual, scoring.RiskMedium)
			So(p.Tier(50), ShouldEqual, scoring.RiskHigh)
		})
	})

	Convey("Given the overlap tier policy", t, func() {
		p := scoring.TierPolicyOverlap

		Convey("Then the 30/60 breakpoints hold exactly", func() {
			So(p.Tier(29.9), ShouldEqual, scoring.RiskLow)
			So(p.Tier(30), ShouldEqual, scoring.RiskMedium)
			So(p.Tier(59.9), ShouldEqual, scoring.RiskMedium)
			So(p.Tier(60), ShouldEqual, scoring.RiskHigh)
		})
	})
}

func TestOverlapRejection(t *testing.T) {
	Convey("Given the overlap rejection heuristic", t, func() {
		Convey("Then it is 100 - score + 5 per missing skill, clamped", func() {
			So(scoring.OverlapRejection(80, 2), ShouldEqual, 30)
			So(scoring.OverlapRejection(100, 0), ShouldEqual, 0)
			So(scoring.OverlapRejection(0, 20), ShouldEqual, 100)
		})
	})
}

func TestActions(t *testing.T) {
	Convey("Given the semantic action bands", t, func() {
		So(scoring.RecommendedAction(90, 10), ShouldEqual, "Apply Now - Excellent Match!")
		So(scoring.RecommendedAction(78, 30), ShouldEqual, "Strongly Consider Applying")
		So(scoring.RecommendedAction(66, 50), ShouldEqual, "Apply with Portfolio")
		So(scoring.RecommendedAction(58, 70), ShouldEqual, "Consider After Skill Improvement")
		So(scoring.RecommendedAction(40, 80), ShouldEqual, "Build Skills First")

		Convey("And a high score with high risk falls through the bands", func() {
			So(scoring.RecommendedAction(90, 60), ShouldEqual, "Consider After Skill Improvement")
		})
	})

	Convey("Given the overlap action bands", t, func() {
		So(scoring.OverlapAction(75), ShouldEqual, "Apply Now!")
		So(scoring.OverlapAction(50), ShouldEqual, "Consider Upskilling")
		So(scoring.OverlapAction(20), ShouldEqual, "Focus on Learning")
	})
}

func TestReasoning(t *testing.T) {
	Convey("Given a semantic match with gaps", t, func() {
		text := scoring.SemanticReasoning(82.5,
			[]string{"python", "django"},
			[]string{"docker", "kubernetes", "aws", "terraform", "helm", "argo"},
			model.LevelEntry, model.LevelEntry)

		Convey("Then the template lines are present", func() {
			So(text, ShouldContainSubstring, "Match Score: 82.5%")
			So(text, ShouldContainSubstring, "Strong Match: python, django")
			So(text, ShouldContainSubstring, "Skills to Develop: docker, kubernetes, aws, terraform, helm and 1 more")
			So(text, ShouldContainSubstring, "Experience Level: Perfect match (entry)")
			So(text, ShouldContainSubstring, "Recommendation: Strong fit - apply with confidence")
		})
	})

	Convey("Given a match with no literal overlap and no gaps", t, func() {
		text := scoring.SemanticReasoning(88, nil, nil, model.LevelMid, model.LevelSenior)

		Convey("Then transferable-skills and level-mismatch lines appear", func() {
			So(text, ShouldContainSubstring, "Semantic analysis found transferable skills")
			So(text, ShouldContainSubstring, "All required skills covered")
			So(text, ShouldContainSubstring, "Experience: senior required, you have mid")
			So(text, ShouldContainSubstring, "Recommendation: Excellent match - apply now")
		})
	})

	Convey("Given the overlap reasoning bands", t, func() {
		So(scoring.OverlapReasoning(85, []string{"a", "b"}, nil), ShouldContainSubstring, "Excellent match! You have 2 matching skills.")
		So(scoring.OverlapReasoning(65, []string{"a"}, []string{"x", "y", "z", "w"}), ShouldContainSubstring, "Learn x, y, z to improve.")
		So(scoring.OverlapReasoning(45, nil, []string{"x"}), ShouldContainSubstring, "Fair match. Consider learning: x")
		So(scoring.OverlapReasoning(10, nil, []string{"x", "y"}), ShouldContainSubstring, "Focus on: x, y")
	})
}
