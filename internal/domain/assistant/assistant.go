// Package assistant answers career questions grounded in the data the
// matching engine already has: the user's profile, their current top
// matches and their rejection history. The language model stays behind
// the Generator interface; this package only assembles the prompt.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/hirestorm/matchd/internal/domain/insight"
	"github.com/hirestorm/matchd/internal/domain/model"
)

// Generator produces a completion for one prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Message is one prior chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intents recognized in user messages.
const (
	IntentRejections = "rejections"
	IntentJobs       = "jobs"
	IntentSkills     = "skills"
	IntentResume     = "resume"
	IntentSalary     = "salary"
	IntentMotivation = "motivation"
	IntentHelp       = "help"
	IntentGeneral    = "general"
)

// Intent keyword lists, checked in order; the first list with a hit wins.
var intentKeywords = []struct {
	intent   string
	keywords []string
}{
	{IntentRejections, []string{"reject", "rejection", "why", "failed", "denied"}},
	{IntentJobs, []string{"job", "apply", "recommend", "suggest", "find"}},
	{IntentSkills, []string{"skill", "learn", "improve", "study", "course"}},
	{IntentResume, []string{"resume", "cv", "profile", "update"}},
	{IntentSalary, []string{"salary", "pay", "compensation", "package"}},
	{IntentMotivation, []string{"sad", "depressed", "frustrated", "tired", "give up"}},
	{IntentHelp, []string{"help", "what can you", "features"}},
}

// Per-intent steering appended to the prompt.
var intentGuidance = map[string]string{
	IntentRejections: "The user is asking about rejections. Use the rejection history above: name the top reason and the most frequent missing skills, then give concrete next steps.",
	IntentJobs:       "The user wants job recommendations. Recommend only from the matched postings above, best score first, and say why each fits.",
	IntentSkills:     "The user wants to grow their skills. Prioritize the missing skills from their rejection history, then skills common in their matched postings.",
	IntentResume:     "The user is asking about their resume or profile. Suggest specific improvements based on the profile above and the skills their matches ask for.",
	IntentSalary:     "The user is asking about compensation. Give realistic guidance for their experience level and skills; use stipend or salary data from the matched postings when present.",
	IntentMotivation: "The user sounds discouraged. Be encouraging first, point at their strengths from the profile above, and keep advice short.",
	IntentHelp:       "Explain briefly what you can help with: finding matches, understanding rejections, skill gaps, resume advice and salary questions.",
	IntentGeneral:    "Answer the question using the context above where it applies.",
}

// DetectIntent classifies a message by keyword.
func DetectIntent(message string) string {
	lower := strings.ToLower(message)
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}

// Option applies a configuration option to the Assistant.
type Option func(*Assistant)

// WithMaxMatches caps how many matched postings enter the prompt.
func WithMaxMatches(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxMatches = n
		}
	}
}

// Assistant turns a question plus matching context into a grounded answer.
type Assistant struct {
	gen        Generator
	maxMatches int
}

// New creates an Assistant over a generator.
func New(gen Generator, opts ...Option) *Assistant {
	a := &Assistant{gen: gen, maxMatches: 5}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Request carries one question and the context to ground it in. Matches and
// Insights are optional; the prompt notes their absence instead of failing.
type Request struct {
	User     *model.User
	Message  string
	History  []Message
	Matches  []model.MatchResult
	Insights *insight.RejectionInsights
}

// Answer builds the grounded prompt and runs it through the generator.
func (a *Assistant) Answer(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", ErrEmptyMessage
	}
	if req.User == nil {
		return "", ErrMissingUser
	}
	return a.gen.Generate(ctx, a.buildPrompt(req))
}

func (a *Assistant) buildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString("You are a career coach for a job matching platform.\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Format answers in Markdown with short bullet points.\n")
	sb.WriteString("- Use only the context below; never invent postings or numbers.\n")
	sb.WriteString("- Be honest about skill gaps.\n")
	sb.WriteString("- When recommending a posting, include its apply link if one is given.\n")
	sb.WriteString("- Keep greetings short.\n\n")

	writeProfile(&sb, req.User)
	a.writeMatches(&sb, req.Matches)
	writeInsights(&sb, req.Insights)
	writeHistory(&sb, req.History)

	if guidance, ok := intentGuidance[DetectIntent(req.Message)]; ok {
		sb.WriteString(guidance)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "Question: %s\n", req.Message)
	return sb.String()
}

func writeProfile(sb *strings.Builder, u *model.User) {
	sb.WriteString("User profile:\n")
	if u.FullName != "" {
		fmt.Fprintf(sb, "Name: %s\n", u.FullName)
	}
	if len(u.Skills) > 0 {
		fmt.Fprintf(sb, "Skills: %s\n", strings.Join(u.Skills, ", "))
	}
	if u.ExperienceLevel != "" {
		fmt.Fprintf(sb, "Experience: %s\n", u.ExperienceLevel)
	}
	if u.Interests != "" {
		fmt.Fprintf(sb, "Interests: %s\n", u.Interests)
	}
	if u.CareerGoals != "" {
		fmt.Fprintf(sb, "Career goals: %s\n", u.CareerGoals)
	}
	sb.WriteString("\n")
}

func (a *Assistant) writeMatches(sb *strings.Builder, matches []model.MatchResult) {
	sb.WriteString("Matched postings:\n")
	if len(matches) == 0 {
		sb.WriteString("No matches yet.\n\n")
		return
	}
	if len(matches) > a.maxMatches {
		matches = matches[:a.maxMatches]
	}
	for _, m := range matches {
		fmt.Fprintf(sb, "- %s at %s", m.Posting.Title, m.Posting.Company)
		if m.Posting.Location != "" {
			fmt.Fprintf(sb, " (%s)", m.Posting.Location)
		}
		sb.WriteString("\n")
		if len(m.Posting.RequiredSkills) > 0 {
			fmt.Fprintf(sb, "  Skills: %s\n", strings.Join(m.Posting.RequiredSkills, ", "))
		}
		fmt.Fprintf(sb, "  Match score: %.0f%%\n", m.MatchScore)
		if m.Posting.URL != "" {
			fmt.Fprintf(sb, "  Apply: %s\n", m.Posting.URL)
		}
	}
	sb.WriteString("\n")
}

func writeInsights(sb *strings.Builder, ins *insight.RejectionInsights) {
	if ins == nil || ins.TotalRejections == 0 {
		return
	}
	sb.WriteString("Rejection history:\n")
	fmt.Fprintf(sb, "%d rejections out of %d applications.\n", ins.TotalRejections, ins.TotalApplications)
	if ins.TopReason != "" {
		fmt.Fprintf(sb, "Most common reason: %s.\n", ins.TopReason)
	}
	if len(ins.TopSkillGaps) > 0 {
		var gaps []string
		for _, g := range ins.TopSkillGaps {
			gaps = append(gaps, g.Skill)
		}
		fmt.Fprintf(sb, "Frequently missing skills: %s\n", strings.Join(gaps, ", "))
	}
	sb.WriteString("\n")
}

func writeHistory(sb *strings.Builder, history []Message) {
	sb.WriteString("Conversation so far:\n")
	if len(history) == 0 {
		sb.WriteString("No previous history.\n\n")
		return
	}
	for _, m := range history {
		fmt.Fprintf(sb, "%s: %s\n", m.Role, m.Content)
	}
	sb.WriteString("\n")
}
