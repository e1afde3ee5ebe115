// Package inference extracts structured fields from raw posting text.
//
// External feeds often lack structured skill or experience fields; these
// keyword heuristics fill them in. They are a fallback, not a replacement
// for structured data: callers apply them only when the feed record is
// missing the field.
package inference

import (
	"strings"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// skillVocabulary is the fixed list of skills recognized in free text.
// Matching is case-insensitive containment.
var skillVocabulary = []string{
	"python", "java", "javascript", "typescript", "react", "angular", "vue",
	"node.js", "nodejs", "express", "django", "flask", "fastapi",
	"sql", "mysql", "postgresql", "mongodb", "redis",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins",
	"machine learning", "deep learning", "ai", "data science",
	"html", "css", "bootstrap", "tailwind",
	"git", "github", "gitlab", "jira", "agile", "scrum",
	"rest api", "graphql", "microservices", "react native", "flutter",
	"pandas", "numpy", "tensorflow", "pytorch",
}

// Keyword sets for experience-level detection. First match wins in priority
// order senior > mid > entry.
var (
	seniorKeywords = []string{"senior", "5+ years", "7+ years", "10+ years", "lead", "architect", "principal"}
	midKeywords    = []string{"mid", "2-4 years", "3+ years", "2+ years", "intermediate"}
)

// degreeVocabulary lists the degree names and abbreviations recognized in
// resume text, abbreviations alongside their long forms.
var degreeVocabulary = []string{
	"b.tech", "btech", "bachelor of technology",
	"b.e", "bachelor of engineering",
	"bca", "bachelor of computer application",
	"m.tech", "mtech", "master of technology",
	"m.e", "master of engineering",
	"mca", "master of computer application",
	"bsc", "bachelor of science",
	"msc", "master of science",
	"mba", "master of business administration",
	"phd", "doctorate",
}

// Skills returns the vocabulary skills found in text, title-cased, in
// vocabulary order with duplicates removed.
func Skills(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, skill := range skillVocabulary {
		if strings.Contains(lower, skill) {
			found = append(found, titleCase(skill))
		}
	}
	return found
}

// Education returns the degrees found in text, uppercased, in vocabulary
// order with duplicates removed.
func Education(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var found []string
	for _, degree := range degreeVocabulary {
		if !strings.Contains(lower, degree) {
			continue
		}
		upper := strings.ToUpper(degree)
		if seen[upper] {
			continue
		}
		seen[upper] = true
		found = append(found, upper)
	}
	return found
}

// Experience infers an experience level from free text. Defaults to entry;
// phrases like "fresher" land there naturally.
func Experience(text string) model.ExperienceLevel {
	lower := strings.ToLower(text)
	for _, kw := range seniorKeywords {
		if strings.Contains(lower, kw) {
			return model.LevelSenior
		}
	}
	for _, kw := range midKeywords {
		if strings.Contains(lower, kw) {
			return model.LevelMid
		}
	}
	return model.LevelEntry
}

// WorkMode infers remote/hybrid/onsite from free text. Defaults to onsite.
func WorkMode(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "remote"), strings.Contains(lower, "work from home"), strings.Contains(lower, "wfh"):
		return "remote"
	case strings.Contains(lower, "hybrid"):
		return "hybrid"
	default:
		return "onsite"
	}
}

// DurationMonths infers internship duration. Recognized: 3, 6 and 12
// months; anything else defaults to 6.
func DurationMonths(text string) int {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "3 month"), strings.Contains(lower, "3-month"):
		return 3
	case strings.Contains(lower, "6 month"), strings.Contains(lower, "6-month"):
		return 6
	case strings.Contains(lower, "12 month"), strings.Contains(lower, "1 year"):
		return 12
	default:
		return 6
	}
}

// EducationRequired infers whether an internship requires a completed
// degree. Defaults to pursuing.
func EducationRequired(text string) string {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "graduated") || strings.Contains(lower, "degree holder") {
		return "graduated"
	}
	return "pursuing"
}

// YearOfStudy infers the expected year of study for an internship.
func YearOfStudy(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "final year"), strings.Contains(lower, "4th year"):
		return "4th"
	case strings.Contains(lower, "3rd year"), strings.Contains(lower, "third year"):
		return "3rd"
	case strings.Contains(lower, "2nd year"), strings.Contains(lower, "second year"):
		return "2nd"
	case strings.Contains(lower, "1st year"), strings.Contains(lower, "first year"):
		return "1st"
	default:
		return "any"
	}
}

// FillPosting applies the heuristics to a posting for any matching-relevant
// field the feed left unset.
func FillPosting(p *model.Posting) {
	if len(p.RequiredSkills) == 0 {
		p.RequiredSkills = Skills(p.Description)
	}
	if p.Experience == "" {
		p.Experience = Experience(p.Description)
	}
	if p.WorkMode == "" {
		p.WorkMode = WorkMode(p.Description)
	}
	if p.Kind == model.KindInternship {
		if p.DurationMonths == 0 {
			p.DurationMonths = DurationMonths(p.Description)
		}
		if p.EducationRequired == "" {
			p.EducationRequired = EducationRequired(p.Description)
		}
		if p.YearOfStudy == "" {
			p.YearOfStudy = YearOfStudy(p.Description)
		}
	}
}

// titleCase uppercases the first letter of each space-separated word,
// leaving the rest of the word untouched so "node.js" becomes "Node.js".
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
