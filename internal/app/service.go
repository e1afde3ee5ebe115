// Package app composes the matching service: it wires the store, encoder,
// vector index, ingest pipeline, notifier and scheduler together and
// implements the dependencies required by the HTTP API.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hirestorm/matchd/internal/adapters/encoder"
	"github.com/hirestorm/matchd/internal/adapters/feed"
	"github.com/hirestorm/matchd/internal/adapters/http/api"
	"github.com/hirestorm/matchd/internal/adapters/index"
	"github.com/hirestorm/matchd/internal/adapters/llm"
	"github.com/hirestorm/matchd/internal/adapters/mq/queue"
	"github.com/hirestorm/matchd/internal/adapters/mq/worker"
	"github.com/hirestorm/matchd/internal/adapters/notify"
	"github.com/hirestorm/matchd/internal/adapters/repository"
	"github.com/hirestorm/matchd/internal/config"
	"github.com/hirestorm/matchd/internal/domain/assistant"
	"github.com/hirestorm/matchd/internal/domain/dedupe"
	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/inference"
	"github.com/hirestorm/matchd/internal/domain/insight"
	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/internal/domain/scoring"
	"github.com/hirestorm/matchd/pkg/logger"

	"github.com/google/uuid"
)

// Default feed refresh queries. The cron sweep pulls one page per kind per
// source; narrower searches go through the manual refresh endpoint.
const (
	defaultJobKeywords        = "software developer"
	defaultInternshipKeywords = "software engineering intern"
	refreshTimeout            = 2 * time.Minute
	digestTimeout             = 5 * time.Minute
	chatTopMatches            = 5
)

// DigestNotifier is the optional digest capability on a notifier. The SMTP
// mailer implements it; per-posting reverse matching does not need it.
type DigestNotifier interface {
	NotifyUserDigest(ctx context.Context, user *model.User, results []model.MatchResult) error
}

// Store is the persistence surface the service composes over. It is the
// union of the repository slices the domain packages consume.
type Store interface {
	match.Store
	insight.Store
	worker.Store

	CreateUser(ctx context.Context, u *model.User) error
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateApplication(ctx context.Context, a *model.Application) error
	GetApplication(ctx context.Context, id string) (*model.Application, error)
	UpdateApplicationStatus(ctx context.Context, id, status string) error
	CreateRejection(ctx context.Context, r *model.Rejection) error
	SaveResume(ctx context.Context, r *model.Resume) error
	GetResume(ctx context.Context, userID string) (*model.Resume, error)
	UpdatePosting(ctx context.Context, p *model.Posting) error
	DeletePosting(ctx context.Context, id string) error
	Close() error
}

// Service implements the API dependencies for the matching system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components.
	store     Store
	enc       embedding.Encoder
	builder   *embedding.Builder
	index     match.Index
	ranker    *match.Ranker
	reverse   *match.ReverseMatcher
	analyzer  *insight.Analyzer
	deduper   dedupe.Deduper
	generator assistant.Generator
	assistant *assistant.Assistant
	fetcher   *feed.Fetcher
	queue     queue.Queue
	pool      *worker.Pool
	notifier  match.Notifier
	sources   []feed.Source
	cron      *cron.Cron

	// State.
	started    bool
	startedAt  time.Time
	refreshing atomic.Bool

	log logger.Logger
}

var _ api.Dependencies = (*Service)(nil)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStore injects a pre-built store, skipping the SQLite open.
func WithStore(store Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEncoder injects a pre-built encoder, skipping provider selection.
func WithEncoder(enc embedding.Encoder) Option {
	return func(s *Service) {
		if enc != nil {
			s.enc = enc
		}
	}
}

// WithIndex injects a pre-built vector index, skipping provider selection.
func WithIndex(idx match.Index) Option {
	return func(s *Service) {
		if idx != nil {
			s.index = idx
		}
	}
}

// WithNotifier injects a notifier, skipping the SMTP mailer setup.
func WithNotifier(n match.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithGenerator injects a text generator, skipping the Gemini client setup.
func WithGenerator(gen assistant.Generator) Option {
	return func(s *Service) {
		if gen != nil {
			s.generator = gen
		}
	}
}

// WithFeedSources injects feed sources, skipping credential-based setup.
func WithFeedSources(sources ...feed.Source) Option {
	return func(s *Service) {
		if len(sources) > 0 {
			s.sources = sources
		}
	}
}

// New constructs a Service around cfg. Components are built in Start so a
// half-wired Service never escapes on error.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds and starts the service components. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("app")
	}

	if s.store == nil {
		store, err := repository.Open(s.cfg.StorePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}

	if s.enc == nil {
		enc, err := s.buildEncoder()
		if err != nil {
			return err
		}
		s.enc = encoder.NewCached(enc,
			encoder.WithCacheTTL(time.Duration(s.cfg.EncoderCacheTTLS)*time.Second),
		)
	}
	s.builder = embedding.NewBuilder(s.enc)

	if s.index == nil {
		idx, err := s.buildIndex()
		if err != nil {
			return err
		}
		s.index = idx
	}

	gaps := scoring.NewGapFinder(s.builder,
		scoring.WithGapThreshold(s.cfg.GapThreshold),
	)
	semantic := match.NewSemanticStrategy(s.builder, gaps,
		match.WithScoreFloor(s.cfg.ScoreFloor),
	)
	s.ranker = match.NewRanker(s.store, s.index, s.builder, semantic,
		match.WithTopKDefault(s.cfg.TopKDefault),
		match.WithTopKMax(s.cfg.TopKMax),
		match.WithCandidatePageSize(s.cfg.CandidatePageSize),
	)
	s.analyzer = insight.NewAnalyzer(s.store)

	if s.notifier == nil && s.cfg.SMTPHost != "" {
		mailer, err := notify.NewMailer(notify.Config{
			Host:     s.cfg.SMTPHost,
			Port:     s.cfg.SMTPPort,
			Username: s.cfg.SMTPUser,
			Password: s.cfg.SMTPPassword,
			From:     s.cfg.SMTPFrom,
		})
		if err != nil {
			return fmt.Errorf("smtp mailer: %w", err)
		}
		s.notifier = mailer
	}
	if s.notifier != nil {
		s.reverse = match.NewReverseMatcher(s.store, s.index, s.builder, gaps, s.notifier,
			match.WithNotifyMinScore(s.cfg.NotifyMinScore),
			match.WithNotifyMaxUsers(s.cfg.NotifyMaxPerJob),
		)
	}

	if s.generator == nil && s.cfg.ChatAPIKey != "" {
		gen, err := llm.NewGemini(s.cfg.ChatAPIKey, llm.WithGeminiModel(s.cfg.ChatModel))
		if err != nil {
			return fmt.Errorf("chat generator: %w", err)
		}
		s.generator = gen
	}
	if s.generator != nil {
		s.assistant = assistant.New(s.generator)
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.cfg.DedupeSize),
	)
	if s.sources == nil {
		s.sources = s.buildSources()
	}
	s.fetcher = feed.NewFetcher(s.deduper, s.sources)

	s.queue = queue.NewInMemory(
		queue.WithCapacity(s.cfg.IngestQueueSize),
	)
	poolOpts := []worker.Option{worker.WithWorkerCount(s.cfg.WorkerCount)}
	var reverse worker.Reverse
	if s.reverse != nil {
		reverse = s.reverse
	} else {
		poolOpts = append(poolOpts, worker.WithoutReverseMatching())
	}
	s.pool = worker.NewPool(s.queue, s.store, s.builder, s.index, reverse, poolOpts...)
	s.pool.Start(ctx)

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.RefreshCron, func() { s.RefreshFeeds(context.Background()) }); err != nil {
		s.log.Warn(ctx, "invalid refresh cron spec, periodic refresh disabled",
			logger.String("spec", s.cfg.RefreshCron), logger.Error(err))
	}
	if _, ok := s.notifier.(DigestNotifier); ok {
		if _, err := s.cron.AddFunc(s.cfg.DigestCron, func() {
			digestCtx, cancel := context.WithTimeout(context.Background(), digestTimeout)
			defer cancel()
			if _, err := s.SendDigests(digestCtx); err != nil {
				s.log.Warn(digestCtx, "digest sweep failed", logger.Error(err))
			}
		}); err != nil {
			s.log.Warn(ctx, "invalid digest cron spec, periodic digests disabled",
				logger.String("spec", s.cfg.DigestCron), logger.Error(err))
		}
	}
	s.cron.Start()

	s.started = true
	s.startedAt = time.Now()
	s.log.Info(ctx, "matching service started",
		logger.String("encoder", s.cfg.EncoderProvider),
		logger.String("index", s.cfg.IndexProvider),
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queue_size", s.cfg.IngestQueueSize),
		logger.Int("feed_sources", len(s.sources)),
	)
	return nil
}

// Stop gracefully shuts the service down: stops the scheduler, drains the
// ingest pipeline and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.pool != nil {
		if err := s.pool.Stop(ctx); err != nil {
			s.log.Warn(ctx, "ingest pool drain incomplete", logger.Error(err))
		}
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn(ctx, "store close", logger.Error(err))
	}
	s.started = false
	s.log.Info(ctx, "matching service stopped")
	return nil
}

func (s *Service) buildEncoder() (embedding.Encoder, error) {
	switch s.cfg.EncoderProvider {
	case "bge":
		return encoder.NewBGE(s.cfg.EncoderBaseURL,
			encoder.WithBGEModel(s.cfg.EncoderModel),
			encoder.WithBGEDims(s.cfg.EncoderDims),
			encoder.WithBGETimeout(time.Duration(s.cfg.EncoderTimeoutMS)*time.Millisecond),
		)
	case "gemini":
		opts := []encoder.GeminiOption{encoder.WithGeminiDims(s.cfg.EncoderDims)}
		// The config model default names the bge family; let the gemini
		// client fall back to its own default unless explicitly overridden.
		if m := s.cfg.EncoderModel; m != "" && m != config.New().EncoderModel {
			opts = append(opts, encoder.WithGeminiModel(m))
		}
		return encoder.NewGemini(s.cfg.EncoderAPIKey, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoderProvider, s.cfg.EncoderProvider)
	}
}

func (s *Service) buildIndex() (match.Index, error) {
	switch s.cfg.IndexProvider {
	case "memory":
		return index.NewMemory(), nil
	case "pinecone":
		return index.NewPinecone(s.cfg.IndexHost, s.cfg.IndexAPIKey,
			index.WithNamespace(s.cfg.IndexNamespace),
			index.WithPineconeTimeout(time.Duration(s.cfg.IndexTimeoutMS)*time.Millisecond),
		)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndexProvider, s.cfg.IndexProvider)
	}
}

func (s *Service) buildSources() []feed.Source {
	var sources []feed.Source
	if s.cfg.AdzunaAppID != "" && s.cfg.AdzunaAppKey != "" {
		src, err := feed.NewAdzuna(s.cfg.AdzunaAppID, s.cfg.AdzunaAppKey,
			feed.WithAdzunaCountry(s.cfg.AdzunaCountry),
		)
		if err == nil {
			sources = append(sources, src)
		}
	}
	if s.cfg.JSearchAPIKey != "" {
		src, err := feed.NewJSearch(s.cfg.JSearchAPIKey)
		if err == nil {
			sources = append(sources, src)
		}
	}
	return sources
}

// Match ranks postings for one user.
func (s *Service) Match(ctx context.Context, req match.Request) (*match.Outcome, error) {
	return s.ranker.Match(ctx, req)
}

// ReverseMatch runs the users-for-posting sweep and sends notifications.
func (s *Service) ReverseMatch(ctx context.Context, postingID string) (int, error) {
	posting, err := s.store.GetPosting(ctx, postingID)
	if err != nil {
		return 0, err
	}
	if s.reverse == nil {
		return 0, notify.ErrNotConfigured
	}
	return s.reverse.NotifyMatchingUsers(ctx, posting)
}

// SendDigests ranks current matches for every user with an email address and
// mails each one their top results. Returns how many digests went out.
// Per-user failures are logged and skipped so one bad profile cannot stall
// the sweep.
func (s *Service) SendDigests(ctx context.Context) (int, error) {
	digest, ok := s.notifier.(DigestNotifier)
	if !ok {
		return 0, notify.ErrNotConfigured
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range users {
		user := &users[i]
		if user.Email == "" {
			continue
		}
		out, err := s.ranker.Match(ctx, match.Request{
			UserID: user.ID,
			Kind:   model.KindJob,
			TopK:   s.cfg.DigestTopK,
		})
		if err != nil {
			s.log.Warn(ctx, "digest ranking failed",
				logger.String("user_id", user.ID), logger.Error(err))
			continue
		}
		var top []model.MatchResult
		for _, r := range out.Results {
			if r.MatchScore >= s.cfg.NotifyMinScore {
				top = append(top, r)
			}
		}
		if len(top) == 0 {
			continue
		}
		if err := digest.NotifyUserDigest(ctx, user, top); err != nil {
			s.log.Warn(ctx, "digest not delivered",
				logger.String("user_id", user.ID), logger.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// Chat answers a career question grounded in the user's profile, their
// current top matches and their rejection history. Context gathering
// degrades: a failing ranker or analyzer drops that block from the prompt
// instead of failing the chat.
func (s *Service) Chat(ctx context.Context, userID, message string, history []assistant.Message) (string, error) {
	if s.assistant == nil {
		return "", assistant.ErrNotConfigured
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	req := assistant.Request{User: user, Message: message, History: history}
	if out, err := s.ranker.Match(ctx, match.Request{
		UserID: userID,
		Kind:   model.KindJob,
		TopK:   chatTopMatches,
	}); err != nil {
		s.log.Warn(ctx, "chat without match context",
			logger.String("user_id", userID), logger.Error(err))
	} else {
		req.Matches = out.Results
	}
	if ins, err := s.analyzer.Rejections(ctx, userID); err != nil {
		s.log.Warn(ctx, "chat without rejection context",
			logger.String("user_id", userID), logger.Error(err))
	} else {
		req.Insights = ins
	}

	return s.assistant.Answer(ctx, req)
}

// RecordApplication validates referenced entities and persists an application.
func (s *Service) RecordApplication(ctx context.Context, app *model.Application) error {
	if _, err := s.store.GetUser(ctx, app.UserID); err != nil {
		return err
	}
	if _, err := s.store.GetPosting(ctx, app.PostingID); err != nil {
		return err
	}
	return s.store.CreateApplication(ctx, app)
}

// TransitionApplication updates an application's status. A transition to
// rejected records a rejection for insight analysis and adds the posting to
// the user's rejection history so future rankings exclude it.
func (s *Service) TransitionApplication(ctx context.Context, id, status, reason string, skillGaps []string) error {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.UpdateApplicationStatus(ctx, id, status); err != nil {
		return err
	}
	if status != model.StatusRejected {
		return nil
	}

	if reason == "" {
		reason = model.ReasonOther
	}
	rejection := &model.Rejection{
		ID:            uuid.NewString(),
		UserID:        app.UserID,
		ApplicationID: app.ID,
		Reason:        reason,
		SkillGaps:     model.NormalizeSkills(skillGaps),
	}
	if err := s.store.CreateRejection(ctx, rejection); err != nil {
		return err
	}

	user, err := s.store.GetUser(ctx, app.UserID)
	if err != nil {
		return err
	}
	if !user.Rejected(app.PostingID) {
		user.RejectionHistory = append(user.RejectionHistory, app.PostingID)
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// Insights returns rejection analysis for a user.
func (s *Service) Insights(ctx context.Context, userID string) (*insight.RejectionInsights, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.analyzer.Rejections(ctx, userID)
}

// ApplicationStats returns per-kind application statistics for a user.
func (s *Service) ApplicationStats(ctx context.Context, userID string) ([]insight.ApplicationStats, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.analyzer.Applications(ctx, userID)
}

// CreateUser persists a profile and builds its vector.
func (s *Service) CreateUser(ctx context.Context, u *model.User) error {
	u.Skills = model.NormalizeSkills(u.Skills)
	if err := s.store.CreateUser(ctx, u); err != nil {
		return err
	}
	s.upsertUserVector(ctx, u)
	return nil
}

// UpdateUser persists profile changes and rebuilds the vector. The stored
// vector is re-created whole, never patched.
func (s *Service) UpdateUser(ctx context.Context, u *model.User) error {
	u.Skills = model.NormalizeSkills(u.Skills)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.upsertUserVector(ctx, u)
	return nil
}

// GetUser loads a profile by id.
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

// DeleteUser removes the profile and its index entries.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	ids := []string{
		match.VectorID(model.KindUser, id),
		match.VectorID(model.KindResume, id),
	}
	if err := s.index.Delete(ctx, ids...); err != nil {
		s.log.Warn(ctx, "user vectors not removed from index",
			logger.String("user_id", id), logger.Error(err))
	}
	return nil
}

// UploadResume parses already-extracted resume text, merges inferred skills,
// education and experience into the profile, and stores a resume-tagged
// vector alongside the rebuilt profile vector.
func (s *Service) UploadResume(ctx context.Context, userID, text string) (*model.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	skills := inference.Skills(text)
	user.Skills = model.NormalizeSkills(append(user.Skills, skills...))
	education := inference.Education(text)
	user.Education = mergeDegrees(user.Education, education)
	if level := inference.Experience(text); level.Numeric() > user.ExperienceLevel.Numeric() {
		user.ExperienceLevel = level
	}

	resume := &model.Resume{
		UserID:    userID,
		Text:      text,
		Skills:    model.NormalizeSkills(skills),
		Education: education,
	}
	if err := s.store.SaveResume(ctx, resume); err != nil {
		return nil, err
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.upsertUserVector(ctx, user)
	if vec, err := s.builder.EmbedResume(ctx, resume, embedding.PurposeStore); err != nil {
		s.log.Warn(ctx, "resume stored without embedding",
			logger.String("user_id", userID), logger.Error(err))
	} else {
		s.upsertVector(ctx, match.IndexItem{
			ID:     match.VectorID(model.KindResume, userID),
			Vector: vec,
			Kind:   model.KindResume,
			Model:  s.builder.Model(),
		})
	}
	return user, nil
}

// SubmitPosting enqueues a posting for asynchronous ingest. Returns false on
// backpressure.
func (s *Service) SubmitPosting(ctx context.Context, p *model.Posting) (bool, error) {
	inference.FillPosting(p)
	return s.queue.Enqueue(ctx, queue.Task{Posting: *p}), nil
}

// GetPosting loads a posting by id.
func (s *Service) GetPosting(ctx context.Context, id string) (*model.Posting, error) {
	return s.store.GetPosting(ctx, id)
}

// UpdatePosting persists changes to a stored posting and refreshes its
// vector so future matches see the new content.
func (s *Service) UpdatePosting(ctx context.Context, p *model.Posting) error {
	current, err := s.store.GetPosting(ctx, p.ID)
	if err != nil {
		return err
	}
	if p.Kind == "" {
		p.Kind = current.Kind
	}
	inference.FillPosting(p)
	if err := s.store.UpdatePosting(ctx, p); err != nil {
		return err
	}

	if vec, err := s.builder.EmbedPosting(ctx, p, embedding.PurposeStore); err != nil {
		s.log.Warn(ctx, "posting updated without embedding refresh",
			logger.String("posting_id", p.ID), logger.Error(err))
	} else {
		s.upsertVector(ctx, match.IndexItem{
			ID:     match.VectorID(p.Kind, p.ID),
			Vector: vec,
			Kind:   p.Kind,
			Model:  s.builder.Model(),
		})
	}
	// A kind change moves the posting to a new vector id.
	if current.Kind != p.Kind {
		if err := s.index.Delete(ctx, match.VectorID(current.Kind, p.ID)); err != nil {
			s.log.Warn(ctx, "stale posting vector not removed from index",
				logger.String("posting_id", p.ID), logger.Error(err))
		}
	}
	return nil
}

// DeletePosting removes a posting and its index vector.
func (s *Service) DeletePosting(ctx context.Context, id string) error {
	p, err := s.store.GetPosting(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePosting(ctx, id); err != nil {
		return err
	}
	if err := s.index.Delete(ctx, match.VectorID(p.Kind, id)); err != nil {
		s.log.Warn(ctx, "posting vector not removed from index",
			logger.String("posting_id", id), logger.Error(err))
	}
	return nil
}

// GetResume loads the stored resume for a user.
func (s *Service) GetResume(ctx context.Context, userID string) (*model.Resume, error) {
	return s.store.GetResume(ctx, userID)
}

// RefreshFeeds triggers an asynchronous fetch across all configured feed
// sources. Returns false when a refresh is already running.
func (s *Service) RefreshFeeds(ctx context.Context) bool {
	if !s.refreshing.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer s.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		s.refresh(ctx)
	}()
	return true
}

func (s *Service) refresh(ctx context.Context) {
	queries := []feed.Query{
		{Keywords: defaultJobKeywords, Kind: model.KindJob},
		{Keywords: defaultInternshipKeywords, Kind: model.KindInternship},
	}
	var enqueued, dropped int
	for _, q := range queries {
		for _, posting := range s.fetcher.FetchAll(ctx, q) {
			if s.queue.Enqueue(ctx, queue.Task{Posting: posting}) {
				enqueued++
				continue
			}
			// Let a future refresh re-admit what the queue rejected.
			s.deduper.Unrecord(ctx, dedupe.Key(posting.Title, posting.Company))
			dropped++
		}
	}
	s.log.Info(ctx, "feed refresh finished",
		logger.Int("enqueued", enqueued),
		logger.Int("dropped", dropped),
	)
}

// Snapshot reports current service state for GET /stats.
func (s *Service) Snapshot(ctx context.Context) api.Snapshot {
	snap := api.Snapshot{
		QueueDepth:    s.queue.Len(ctx),
		DedupeEntries: s.deduper.Size(),
	}
	s.mu.RLock()
	if s.started {
		snap.UptimeSeconds = int64(time.Since(s.startedAt).Seconds())
	}
	s.mu.RUnlock()

	switch idx := s.index.(type) {
	case interface{ Len() int }:
		snap.IndexVectors = idx.Len()
	case interface{ Stats(context.Context) (int, error) }:
		if n, err := idx.Stats(ctx); err == nil {
			snap.IndexVectors = n
		}
	}
	return snap
}

// upsertUserVector rebuilds and stores the profile vector. Failures degrade:
// the profile stays persisted and the vector is rebuilt on the next update.
func (s *Service) upsertUserVector(ctx context.Context, u *model.User) {
	vec, err := s.builder.EmbedUser(ctx, u, embedding.PurposeStore)
	if err != nil {
		s.log.Warn(ctx, "profile stored without embedding",
			logger.String("user_id", u.ID), logger.Error(err))
		return
	}
	s.upsertVector(ctx, match.IndexItem{
		ID:     match.VectorID(model.KindUser, u.ID),
		Vector: vec,
		Kind:   model.KindUser,
		Model:  s.builder.Model(),
	})
}

func (s *Service) upsertVector(ctx context.Context, item match.IndexItem) {
	if err := s.index.Upsert(ctx, item); err != nil {
		s.log.Warn(ctx, "vector upsert failed",
			logger.String("id", item.ID), logger.Error(err))
	}
}

// mergeDegrees unions two degree lists, keeping first-seen order.
func mergeDegrees(existing, inferred []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := existing
	for _, d := range existing {
		seen[d] = true
	}
	for _, d := range inferred {
		if seen[d] {
			continue
		}
		seen[d] = true
		merged = append(merged, d)
	}
	return merged
}
