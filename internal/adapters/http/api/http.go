// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hirestorm/matchd/internal/adapters/notify"
	"github.com/hirestorm/matchd/internal/adapters/repository"
	"github.com/hirestorm/matchd/internal/domain/assistant"
	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/insight"
	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/internal/domain/model"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the service wiring behind it.
type Dependencies interface {
	// Matching.
	Match(ctx context.Context, req match.Request) (*match.Outcome, error)
	ReverseMatch(ctx context.Context, postingID string) (int, error)

	// Application history.
	RecordApplication(ctx context.Context, app *model.Application) error
	TransitionApplication(ctx context.Context, id, status, reason string, skillGaps []string) error
	Insights(ctx context.Context, userID string) (*insight.RejectionInsights, error)
	ApplicationStats(ctx context.Context, userID string) ([]insight.ApplicationStats, error)

	// Profiles and postings.
	CreateUser(ctx context.Context, u *model.User) error
	UpdateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	UploadResume(ctx context.Context, userID, text string) (*model.User, error)
	GetResume(ctx context.Context, userID string) (*model.Resume, error)
	SubmitPosting(ctx context.Context, p *model.Posting) (bool, error)
	GetPosting(ctx context.Context, id string) (*model.Posting, error)
	UpdatePosting(ctx context.Context, p *model.Posting) error
	DeletePosting(ctx context.Context, id string) error

	// Career assistant.
	Chat(ctx context.Context, userID, message string, history []assistant.Message) (string, error)

	// Feeds and service state.
	RefreshFeeds(ctx context.Context) bool
	Snapshot(ctx context.Context) Snapshot
}

// Snapshot is the service state summary served by GET /stats.
type Snapshot struct {
	QueueDepth    int   `json:"queue_depth"`
	IndexVectors  int   `json:"index_vectors"`
	DedupeEntries int64 `json:"dedupe_entries"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// Server wires HTTP routes for the matching API.
type Server struct {
	deps Dependencies

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	matchingHandler    *MatchingHandler
	applicationHandler *ApplicationHandler
	profileHandler     *ProfileHandler
	feedsHandler       *FeedsHandler
	chatHandler        *ChatHandler
}

// NewServer creates the API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		deps:               deps,
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		matchingHandler:    NewMatchingHandler(deps),
		applicationHandler: NewApplicationHandler(deps),
		profileHandler:     NewProfileHandler(deps),
		feedsHandler:       NewFeedsHandler(deps),
		chatHandler:        NewChatHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/matching/matches", MetricsMiddleware(s.matchingHandler.HandleMatches, "matches"))
	mux.HandleFunc("/api/matching/reverse/", MetricsMiddleware(s.matchingHandler.HandleReverse, "reverse"))
	mux.HandleFunc("/api/matching/applications", MetricsMiddleware(s.applicationHandler.HandleCreate, "applications"))
	mux.HandleFunc("/api/matching/applications/", MetricsMiddleware(s.applicationHandler.HandleStatus, "application_status"))
	mux.HandleFunc("/api/matching/insights/", MetricsMiddleware(s.applicationHandler.HandleInsights, "insights"))
	mux.HandleFunc("/api/matching/stats/", MetricsMiddleware(s.applicationHandler.HandleStats, "application_stats"))

	mux.HandleFunc("/api/users", MetricsMiddleware(s.profileHandler.HandleUsers, "users"))
	mux.HandleFunc("/api/users/", MetricsMiddleware(s.profileHandler.HandleUser, "user"))
	mux.HandleFunc("/api/postings", MetricsMiddleware(s.profileHandler.HandlePostings, "postings"))
	mux.HandleFunc("/api/postings/", MetricsMiddleware(s.profileHandler.HandlePosting, "posting"))

	mux.HandleFunc("/api/feeds/refresh", MetricsMiddleware(s.feedsHandler.HandleRefresh, "feeds_refresh"))

	mux.HandleFunc("/api/chat/message", MetricsMiddleware(s.chatHandler.HandleMessage, "chat"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps known sentinel errors to their HTTP shape; anything
// unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, embedding.ErrEncodingUnavailable):
		writeError(w, http.StatusServiceUnavailable, "encoder_unavailable", err)
	case errors.Is(err, match.ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, notify.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "notifications_disabled", err)
	case errors.Is(err, assistant.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "chat_disabled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
