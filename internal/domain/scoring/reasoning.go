package scoring

import (
	"fmt"
	"strings"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// Reasoning text limits.
const (
	reasoningGapPreview     = 5
	overlapGapPreviewShort  = 3
	overlapGapPreviewLong   = 5
)

// SemanticReasoning renders the justification text for a semantic match.
// Deterministic template, not free-form generation.
func SemanticReasoning(score float64, matched, missing []string, userLevel, targetLevel model.ExperienceLevel) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Match Score: %.1f%%", score))

	if len(matched) > 0 {
		parts = append(parts, "Strong Match: "+strings.Join(matched, ", "))
	} else {
		parts = append(parts, "Semantic analysis found transferable skills")
	}

	if len(missing) > 0 {
		preview := missing
		if len(preview) > reasoningGapPreview {
			preview = preview[:reasoningGapPreview]
		}
		line := "Skills to Develop: " + strings.Join(preview, ", ")
		if rest := len(missing) - reasoningGapPreview; rest > 0 {
			line += fmt.Sprintf(" and %d more", rest)
		}
		parts = append(parts, line)
	} else {
		parts = append(parts, "All required skills covered")
	}

	if userLevel == targetLevel {
		parts = append(parts, fmt.Sprintf("Experience Level: Perfect match (%s)", targetLevel))
	} else {
		parts = append(parts, fmt.Sprintf("Experience: %s required, you have %s", targetLevel, userLevel))
	}

	switch {
	case score >= 85:
		parts = append(parts, "Recommendation: Excellent match - apply now")
	case score >= 70:
		parts = append(parts, "Recommendation: Strong fit - apply with confidence")
	case score >= 55:
		parts = append(parts, "Recommendation: Consider applying with a good cover letter")
	default:
		parts = append(parts, "Recommendation: Build missing skills first")
	}

	return strings.Join(parts, "\n")
}

// OverlapReasoning renders the single-sentence justification used by the
// skill-intersection path.
func OverlapReasoning(score float64, matched, missing []string) string {
	switch {
	case score >= 80:
		return fmt.Sprintf("Excellent match! You have %d matching skills.", len(matched))
	case score >= 60:
		return fmt.Sprintf("Good match with %d skills. Learn %s to improve.",
			len(matched), strings.Join(head(missing, overlapGapPreviewShort), ", "))
	case score >= 40:
		return "Fair match. Consider learning: " + strings.Join(head(missing, overlapGapPreviewLong), ", ")
	default:
		return "This role requires skills you're still developing. Focus on: " +
			strings.Join(head(missing, overlapGapPreviewLong), ", ")
	}
}

func head(xs []string, n int) []string {
	if len(xs) <= n {
		return xs
	}
	return xs[:n]
}
