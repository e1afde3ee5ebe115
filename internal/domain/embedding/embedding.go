// Package embedding turns entities into dense vectors via a text encoder.
//
// The builder renders a deterministic, human-readable text per entity kind
// and hands it to an Encoder. Query-purpose and store-purpose encodes are
// asymmetric: the encoder family frames search queries differently from
// indexed documents so that the dot product approximates relevance.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// Purpose selects the encoding framing.
type Purpose string

// Encoding purposes.
const (
	PurposeQuery Purpose = "query"
	PurposeStore Purpose = "store"
)

// Character budgets for free-text fields fed into the encoder.
const (
	postingDescriptionBudget = 1000
	resumeTextBudget         = 2000
)

// Placeholder values used when optional profile fields are absent.
const (
	defaultLevel     = "entry"
	defaultInterests = "software development"
	defaultGoals     = "grow as developer"
	defaultLocation  = "India"
	defaultWorkMode  = "remote"
)

// Encoder produces unit-norm vectors from text. Implementations are safe for
// concurrent use after construction and must never return a zero vector on
// success.
type Encoder interface {
	// Encode returns a unit-norm vector for text under the given purpose.
	Encode(ctx context.Context, text string, purpose Purpose) ([]float32, error)

	// Dims reports the vector dimensionality, e.g. 768.
	Dims() int

	// Model reports the encoder model identifier. Vectors from different
	// models are never comparable; stored vectors carry this tag.
	Model() string
}

// Builder renders entity text and produces embeddings through an Encoder.
type Builder struct {
	enc Encoder
}

// NewBuilder creates a Builder bound to an encoder.
func NewBuilder(enc Encoder) *Builder {
	return &Builder{enc: enc}
}

// Model exposes the underlying encoder's model tag.
func (b *Builder) Model() string { return b.enc.Model() }

// Dims exposes the underlying encoder's dimensionality.
func (b *Builder) Dims() int { return b.enc.Dims() }

// EmbedUser vectorizes a user profile.
func (b *Builder) EmbedUser(ctx context.Context, u *model.User, purpose Purpose) ([]float32, error) {
	vec, err := b.enc.Encode(ctx, UserText(u), purpose)
	if err != nil {
		return nil, fmt.Errorf("embed user %s: %w", u.ID, err)
	}
	return vec, nil
}

// EmbedPosting vectorizes a job or internship posting.
func (b *Builder) EmbedPosting(ctx context.Context, p *model.Posting, purpose Purpose) ([]float32, error) {
	vec, err := b.enc.Encode(ctx, PostingText(p), purpose)
	if err != nil {
		return nil, fmt.Errorf("embed posting %s: %w", p.ID, err)
	}
	return vec, nil
}

// EmbedResume vectorizes resume text combined with extracted skills.
func (b *Builder) EmbedResume(ctx context.Context, r *model.Resume, purpose Purpose) ([]float32, error) {
	vec, err := b.enc.Encode(ctx, ResumeText(r), purpose)
	if err != nil {
		return nil, fmt.Errorf("embed resume for user %s: %w", r.UserID, err)
	}
	return vec, nil
}

// EmbedSkill vectorizes a single skill string. Used by gap detection, where
// "has this skill" is a search-like relation: user skills encode as queries,
// required skills as documents.
func (b *Builder) EmbedSkill(ctx context.Context, skill string, purpose Purpose) ([]float32, error) {
	vec, err := b.enc.Encode(ctx, skill, purpose)
	if err != nil {
		return nil, fmt.Errorf("embed skill %q: %w", skill, err)
	}
	return vec, nil
}

// UserText renders the profile template for a user.
func UserText(u *model.User) string {
	level := string(u.ExperienceLevel)
	if level == "" {
		level = defaultLevel
	}
	interests := u.Interests
	if interests == "" {
		interests = defaultInterests
	}
	goals := u.CareerGoals
	if goals == "" {
		goals = defaultGoals
	}

	var sb strings.Builder
	sb.WriteString("Professional Profile:\n")
	sb.WriteString("Skills: " + strings.Join(u.Skills, ", ") + "\n")
	sb.WriteString("Experience Level: " + level + "\n")
	sb.WriteString("Interests: " + interests + "\n")
	sb.WriteString("Career Goals: " + goals + "\n")
	sb.WriteString("Education: " + strings.Join(u.Education, ", "))
	return sb.String()
}

// PostingText renders the posting template. Descriptions are truncated to a
// fixed budget; long tails add noise without improving the embedding.
func PostingText(p *model.Posting) string {
	level := string(p.Experience)
	if level == "" {
		level = defaultLevel
	}
	location := p.Location
	if location == "" {
		location = defaultLocation
	}
	mode := p.WorkMode
	if mode == "" {
		mode = defaultWorkMode
	}

	var sb strings.Builder
	sb.WriteString("Job Position: " + p.Title + "\n")
	sb.WriteString("Company: " + p.Company + "\n")
	sb.WriteString("Job Description: " + truncate(p.Description, postingDescriptionBudget) + "\n")
	sb.WriteString("Required Skills: " + strings.Join(p.RequiredSkills, ", ") + "\n")
	sb.WriteString("Experience Required: " + level + "\n")
	sb.WriteString("Location: " + location + "\n")
	sb.WriteString("Job Type: " + mode)
	return sb.String()
}

// ResumeText renders the resume template.
func ResumeText(r *model.Resume) string {
	var sb strings.Builder
	sb.WriteString("Resume:\n")
	sb.WriteString(truncate(r.Text, resumeTextBudget))
	sb.WriteString("\n\nKey Skills: " + strings.Join(r.Skills, ", "))
	return sb.String()
}

func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	return s[:budget]
}

// Dot computes the dot product of two equal-length vectors. For unit-norm
// inputs this equals the cosine similarity.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Normalize scales v to unit L2 norm in place and returns it. A zero vector
// is returned unchanged; callers must treat it as an encoding failure since
// cosine similarity is undefined for it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
