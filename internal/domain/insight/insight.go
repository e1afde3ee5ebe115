// Package insight turns a user's application and rejection history into
// actionable feedback: why rejections happen, which skills keep showing up
// missing, and whether the situation is improving.
package insight

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hirestorm/matchd/internal/domain/model"
)

const topSkillGaps = 10

// Store is the history source the analyzer reads from.
type Store interface {
	ListApplications(ctx context.Context, userID string) ([]model.Application, error)
	ListRejections(ctx context.Context, userID string) ([]model.Rejection, error)
}

// ReasonCount is one slice of the rejection reason breakdown.
type ReasonCount struct {
	Reason  string  `json:"reason"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// SkillFrequency is one missing skill and how often it appeared in
// rejection records.
type SkillFrequency struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// RejectionInsights is the analyzer output for one user.
type RejectionInsights struct {
	TotalApplications int              `json:"total_applications"`
	TotalRejections   int              `json:"total_rejections"`
	RejectionRate     float64          `json:"rejection_rate"`
	ReasonBreakdown   []ReasonCount    `json:"reason_breakdown"`
	TopReason         string           `json:"top_reason,omitempty"`
	TopReasonPercent  float64          `json:"top_reason_percent,omitempty"`
	TopSkillGaps      []SkillFrequency `json:"top_skill_gaps"`
	Suggestions       []string         `json:"suggestions"`
	Trend             string           `json:"trend"`
}

// StatusCount maps application status to count.
type StatusCount map[string]int

// ApplicationStats is the per-kind application overview.
type ApplicationStats struct {
	Kind          model.EntityKind `json:"application_type"`
	Total         int              `json:"total"`
	ByStatus      StatusCount      `json:"by_status"`
	SuccessRate   float64          `json:"success_rate"`
	RejectionRate float64          `json:"rejection_rate"`
}

// Trend labels. The trend is a naive first-half versus second-half
// comparison of rejection counts, enough to tell a user whether recent
// applications fare better.
const (
	TrendImproving    = "improving"
	TrendWorsening    = "worsening"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient_data"
)

// Suggestions per rejection reason. Static text, keyed by the reason
// categories recorded at rejection time.
var reasonSuggestions = map[string]string{
	model.ReasonSkillGap:         "Focus on closing your most frequent skill gaps before applying again.",
	model.ReasonExperienceGap:    "Target roles one level closer to your current experience to build a track record.",
	model.ReasonOverqualified:    "Aim for more senior roles or emphasize growth motivation in your applications.",
	model.ReasonLocationMismatch: "Broaden your work-mode preferences or filter postings by location up front.",
	model.ReasonOther:            "Request feedback from recruiters to understand what held your application back.",
}

// Analyzer computes rejection insights and application stats.
type Analyzer struct {
	store Store
}

// NewAnalyzer creates an Analyzer over a history store.
func NewAnalyzer(store Store) *Analyzer {
	return &Analyzer{store: store}
}

// Rejections analyzes a user's rejection history.
func (a *Analyzer) Rejections(ctx context.Context, userID string) (*RejectionInsights, error) {
	apps, err := a.store.ListApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	rejections, err := a.store.ListRejections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}

	out := &RejectionInsights{
		TotalApplications: len(apps),
		TotalRejections:   len(rejections),
		TopSkillGaps:      []SkillFrequency{},
		Suggestions:       []string{},
		Trend:             trend(apps),
	}
	if len(apps) > 0 {
		out.RejectionRate = round1(float64(len(rejections)) / float64(len(apps)) * 100)
	}
	if len(rejections) == 0 {
		out.ReasonBreakdown = []ReasonCount{}
		return out, nil
	}

	out.ReasonBreakdown = reasonBreakdown(rejections)
	out.TopReason = out.ReasonBreakdown[0].Reason
	out.TopReasonPercent = out.ReasonBreakdown[0].Percent
	out.TopSkillGaps = skillGaps(rejections)

	for _, rc := range out.ReasonBreakdown {
		if s, ok := reasonSuggestions[rc.Reason]; ok {
			out.Suggestions = append(out.Suggestions, s)
		}
	}
	return out, nil
}

// Applications computes the per-kind application overview for a user.
func (a *Analyzer) Applications(ctx context.Context, userID string) ([]ApplicationStats, error) {
	apps, err := a.store.ListApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	byKind := map[model.EntityKind][]model.Application{}
	for _, app := range apps {
		byKind[app.Kind] = append(byKind[app.Kind], app)
	}

	kinds := make([]model.EntityKind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	stats := make([]ApplicationStats, 0, len(kinds))
	for _, kind := range kinds {
		group := byKind[kind]
		st := ApplicationStats{Kind: kind, Total: len(group), ByStatus: StatusCount{}}
		for _, app := range group {
			st.ByStatus[app.Status]++
		}
		st.SuccessRate = round1(float64(st.ByStatus[model.StatusAccepted]) / float64(st.Total) * 100)
		st.RejectionRate = round1(float64(st.ByStatus[model.StatusRejected]) / float64(st.Total) * 100)
		stats = append(stats, st)
	}
	return stats, nil
}

// reasonBreakdown counts reasons and orders them by frequency descending,
// ties alphabetical so output is deterministic.
func reasonBreakdown(rejections []model.Rejection) []ReasonCount {
	counts := map[string]int{}
	for _, r := range rejections {
		reason := r.Reason
		if reason == "" {
			reason = model.ReasonOther
		}
		counts[reason]++
	}

	out := make([]ReasonCount, 0, len(counts))
	for reason, n := range counts {
		out = append(out, ReasonCount{
			Reason:  reason,
			Count:   n,
			Percent: round1(float64(n) / float64(len(rejections)) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// skillGaps aggregates missing skills across rejection records and keeps
// the ten most frequent.
func skillGaps(rejections []model.Rejection) []SkillFrequency {
	counts := map[string]int{}
	for _, r := range rejections {
		for _, s := range model.NormalizeSkills(r.SkillGaps) {
			counts[s]++
		}
	}

	out := make([]SkillFrequency, 0, len(counts))
	for skill, n := range counts {
		out = append(out, SkillFrequency{Skill: skill, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})
	if len(out) > topSkillGaps {
		out = out[:topSkillGaps]
	}
	return out
}

// trend compares the rejection rate of the older and newer half of the
// application list, which the store returns in chronological order.
func trend(apps []model.Application) string {
	if len(apps) < 4 {
		return TrendInsufficient
	}
	half := len(apps) / 2
	older, newer := apps[:half], apps[half:]

	olderRate := rejectedRate(older)
	newerRate := rejectedRate(newer)
	switch {
	case newerRate < olderRate:
		return TrendImproving
	case newerRate > olderRate:
		return TrendWorsening
	default:
		return TrendStable
	}
}

func rejectedRate(apps []model.Application) float64 {
	var rejected int
	for _, app := range apps {
		if app.Status == model.StatusRejected {
			rejected++
		}
	}
	return float64(rejected) / float64(len(apps))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
