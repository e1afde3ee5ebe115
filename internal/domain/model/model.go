// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// EntityKind labels the owning entity type of a stored vector.
type EntityKind string

// Entity kinds. Vector index tag filters key off these values.
const (
	KindUser       EntityKind = "user"
	KindJob        EntityKind = "job"
	KindInternship EntityKind = "internship"
	KindResume     EntityKind = "resume"
)

// ExperienceLevel is the coarse seniority scale used across matching.
type ExperienceLevel string

// Experience levels, ordered.
const (
	LevelEntry  ExperienceLevel = "entry"
	LevelMid    ExperienceLevel = "mid"
	LevelSenior ExperienceLevel = "senior"
)

// Numeric returns the rank of a level for distance computations.
// Unknown levels default to entry.
func (l ExperienceLevel) Numeric() int {
	switch l {
	case LevelMid:
		return 2
	case LevelSenior:
		return 3
	default:
		return 1
	}
}

// ParseLevel normalizes a free-form level string to an ExperienceLevel.
func ParseLevel(s string) ExperienceLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mid", "intermediate":
		return LevelMid
	case "senior", "lead", "principal":
		return LevelSenior
	default:
		return LevelEntry
	}
}

// User is a candidate profile. External records are normalized into this
// shape at the boundary; absent fields carry zero values and the embedding
// builder substitutes documented placeholders.
type User struct {
	ID               string          `json:"id"`
	Email            string          `json:"email,omitempty"`
	FullName         string          `json:"full_name,omitempty"`
	Skills           []string        `json:"skills"`
	ExperienceLevel  ExperienceLevel `json:"experience_level"`
	Interests        string          `json:"interests,omitempty"`
	CareerGoals      string          `json:"career_goals,omitempty"`
	Education        []string        `json:"education,omitempty"`
	RejectionHistory []string        `json:"rejection_history,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at,omitempty"`
}

// Rejected reports whether a posting id is in the user's rejection history.
func (u *User) Rejected(postingID string) bool {
	for _, id := range u.RejectionHistory {
		if id == postingID {
			return true
		}
	}
	return false
}

// Posting is a job or internship posting. Jobs and internships share the
// matching-relevant fields; internship-only fields stay zero for jobs.
type Posting struct {
	ID             string          `json:"id"`
	Kind           EntityKind      `json:"kind"`
	Title          string          `json:"title"`
	Company        string          `json:"company"`
	Description    string          `json:"description,omitempty"`
	Location       string          `json:"location,omitempty"`
	WorkMode       string          `json:"work_mode,omitempty"` // remote, hybrid, onsite
	RequiredSkills []string        `json:"required_skills"`
	Experience     ExperienceLevel `json:"experience_required"`
	SalaryMin      float64         `json:"salary_min,omitempty"`
	SalaryMax      float64         `json:"salary_max,omitempty"`
	URL            string          `json:"url,omitempty"`
	Source         string          `json:"source,omitempty"`
	Category       string          `json:"category,omitempty"`
	Active         bool            `json:"active"`
	PostedAt       time.Time       `json:"posted_at,omitempty"`

	// Internship-only fields.
	DurationMonths    int    `json:"duration_months,omitempty"`
	EducationRequired string `json:"education_required,omitempty"` // graduated or pursuing
	YearOfStudy       string `json:"year_of_study,omitempty"`      // 1st..4th or any
}

// Resume is parsed resume content attached to a user.
type Resume struct {
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Skills    []string  `json:"skills"`
	Education []string  `json:"education,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Application statuses.
const (
	StatusApplied   = "applied"
	StatusInterview = "interview"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
)

// Application records a user applying to a posting.
type Application struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	PostingID            string    `json:"posting_id"`
	Kind                 EntityKind `json:"application_type"` // job or internship
	Status               string    `json:"status"`
	MatchScore           float64   `json:"match_score"`
	RejectionProbability float64   `json:"rejection_probability"`
	CreatedAt            time.Time `json:"created_at,omitempty"`
	UpdatedAt            time.Time `json:"updated_at,omitempty"`
}

// Rejection reason categories.
const (
	ReasonSkillGap         = "skill_gap"
	ReasonExperienceGap    = "experience_gap"
	ReasonOverqualified    = "overqualified"
	ReasonLocationMismatch = "location_mismatch"
	ReasonOther            = "other"
)

// Rejection records a rejected application, kept for insight analysis.
type Rejection struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ApplicationID string    `json:"application_id"`
	Reason        string    `json:"reason"`
	SkillGaps     []string  `json:"skill_gaps,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// MatchResult is the per-candidate outcome of one ranking call. It is built
// fresh on every call and never persisted as a source of truth.
type MatchResult struct {
	Posting              Posting  `json:"posting"`
	MatchScore           float64  `json:"match_score"`
	RejectionProbability float64  `json:"rejection_probability"`
	RejectionRisk        string   `json:"rejection_risk"`
	MatchedSkills        []string `json:"matched_skills"`
	MissingSkills        []string `json:"missing_skills"`
	Reasoning            string   `json:"reasoning"`
	RecommendedAction    string   `json:"recommended_action"`
	Degraded             bool     `json:"degraded,omitempty"`
}

// NormalizeSkills lowercases, trims and de-duplicates a skill list while
// preserving first-seen order. Comparison across the codebase is
// case-insensitive; duplicates are treated as a set.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
