package match

import (
	"context"
	"fmt"

	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/internal/domain/scoring"
	"github.com/hirestorm/matchd/pkg/logger"
)

// Reverse matching defaults.
const (
	defaultNotifyMinScore = 70
	defaultNotifyMaxUsers = 50
)

// Notifier delivers a match notification to one user. Implementations are
// best-effort; the reverse matcher logs and counts failures but keeps going.
type Notifier interface {
	NotifyJobMatch(ctx context.Context, user *model.User, posting *model.Posting, score float64, missing []string) error
}

// ReverseOption applies a configuration option to the ReverseMatcher.
type ReverseOption func(*ReverseMatcher)

// WithNotifyMinScore sets the minimum match score that triggers an email.
func WithNotifyMinScore(score float64) ReverseOption {
	return func(r *ReverseMatcher) {
		if score >= 0 && score <= 100 {
			r.minScore = score
		}
	}
}

// WithNotifyMaxUsers caps how many candidate users one posting considers.
func WithNotifyMaxUsers(n int) ReverseOption {
	return func(r *ReverseMatcher) {
		if n > 0 {
			r.maxUsers = n
		}
	}
}

// WithReverseLogger sets a custom logger.
func WithReverseLogger(log logger.Logger) ReverseOption {
	return func(r *ReverseMatcher) {
		if log != nil {
			r.log = log
		}
	}
}

// ReverseMatcher runs matching in the posting-to-users direction: when a
// posting is ingested, find the users it fits and notify them.
type ReverseMatcher struct {
	store    Store
	index    Index
	builder  *embedding.Builder
	gaps     *scoring.GapFinder
	notifier Notifier
	log      logger.Logger

	minScore float64
	maxUsers int
}

// NewReverseMatcher wires the reverse matching path.
func NewReverseMatcher(store Store, index Index, builder *embedding.Builder, gaps *scoring.GapFinder, notifier Notifier, opts ...ReverseOption) *ReverseMatcher {
	r := &ReverseMatcher{
		store:    store,
		index:    index,
		builder:  builder,
		gaps:     gaps,
		notifier: notifier,
		minScore: defaultNotifyMinScore,
		maxUsers: defaultNotifyMaxUsers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NotifyMatchingUsers finds users matching a posting and emails each one.
// The posting embeds in query mode here; it is the searching side. Returns
// how many notifications went out. Notification failures do not stop the
// sweep; embedding or index failures do, since no users can be found.
func (r *ReverseMatcher) NotifyMatchingUsers(ctx context.Context, posting *model.Posting) (int, error) {
	jobVec, err := r.builder.EmbedPosting(ctx, posting, embedding.PurposeQuery)
	if err != nil {
		return 0, fmt.Errorf("embed posting %s: %w", posting.ID, err)
	}

	hits, err := r.index.Query(ctx, jobVec, r.maxUsers, IndexFilter{Kind: model.KindUser, Model: r.builder.Model()})
	if err != nil {
		return 0, fmt.Errorf("query user vectors: %w", err)
	}

	notified := 0
	for _, hit := range hits {
		user, err := r.store.GetUser(ctx, EntityID(hit.ID))
		if err != nil {
			// Stale index entry.
			continue
		}

		userVec, err := r.builder.EmbedUser(ctx, user, embedding.PurposeStore)
		if err != nil {
			continue
		}
		score := scoring.Similarity(jobVec, userVec)
		if score < r.minScore {
			continue
		}

		missing, err := r.gaps.Gaps(ctx, user.Skills, posting.RequiredSkills)
		if err != nil && r.log != nil {
			r.log.Warn(ctx, "gap computation degraded for notification",
				logger.String("user_id", user.ID), logger.Error(err))
		}

		if err := r.notifier.NotifyJobMatch(ctx, user, posting, score, missing); err != nil {
			if r.log != nil {
				r.log.Warn(ctx, "match notification failed",
					logger.String("user_id", user.ID),
					logger.String("posting_id", posting.ID),
					logger.Error(err))
			}
			continue
		}
		notified++
	}
	return notified, nil
}
