package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hirestorm/matchd/internal/adapters/http/api"
	"github.com/hirestorm/matchd/internal/adapters/notify"
	"github.com/hirestorm/matchd/internal/adapters/repository"
	"github.com/hirestorm/matchd/internal/domain/assistant"
	"github.com/hirestorm/matchd/internal/domain/embedding"
	"github.com/hirestorm/matchd/internal/domain/insight"
	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/internal/domain/model"
	"github.com/hirestorm/matchd/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init("console")
	m.Run()
}

// stubDeps implements api.Dependencies with overridable behavior per test.
type stubDeps struct {
	matchFn         func(context.Context, match.Request) (*match.Outcome, error)
	reverseFn       func(context.Context, string) (int, error)
	recordFn        func(context.Context, *model.Application) error
	submitFn        func(context.Context, *model.Posting) (bool, error)
	refreshFn       func(context.Context) bool
	getUserFn       func(context.Context, string) (*model.User, error)
	uploadFn        func(context.Context, string, string) (*model.User, error)
	getResumeFn     func(context.Context, string) (*model.Resume, error)
	updatePostingFn func(context.Context, *model.Posting) error
	deletePostingFn func(context.Context, string) error
	chatFn          func(context.Context, string, string, []assistant.Message) (string, error)
}

func (s *stubDeps) Match(ctx context.Context, req match.Request) (*match.Outcome, error) {
	if s.matchFn != nil {
		return s.matchFn(ctx, req)
	}
	return &match.Outcome{Strategy: match.StrategySemantic, Source: match.SourceIndex}, nil
}

func (s *stubDeps) ReverseMatch(ctx context.Context, postingID string) (int, error) {
	if s.reverseFn != nil {
		return s.reverseFn(ctx, postingID)
	}
	return 0, nil
}

func (s *stubDeps) RecordApplication(ctx context.Context, app *model.Application) error {
	if s.recordFn != nil {
		return s.recordFn(ctx, app)
	}
	return nil
}

func (s *stubDeps) TransitionApplication(context.Context, string, string, string, []string) error {
	return nil
}

func (s *stubDeps) Insights(context.Context, string) (*insight.RejectionInsights, error) {
	return &insight.RejectionInsights{Trend: insight.TrendInsufficient}, nil
}

func (s *stubDeps) ApplicationStats(context.Context, string) ([]insight.ApplicationStats, error) {
	return []insight.ApplicationStats{{Kind: model.KindJob, Total: 2}}, nil
}

func (s *stubDeps) CreateUser(context.Context, *model.User) error { return nil }
func (s *stubDeps) UpdateUser(context.Context, *model.User) error { return nil }

func (s *stubDeps) GetUser(ctx context.Context, id string) (*model.User, error) {
	if s.getUserFn != nil {
		return s.getUserFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}

func (s *stubDeps) DeleteUser(context.Context, string) error { return nil }

func (s *stubDeps) UploadResume(ctx context.Context, userID, text string) (*model.User, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, userID, text)
	}
	return &model.User{ID: userID}, nil
}

func (s *stubDeps) SubmitPosting(ctx context.Context, p *model.Posting) (bool, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, p)
	}
	return true, nil
}

func (s *stubDeps) GetResume(ctx context.Context, userID string) (*model.Resume, error) {
	if s.getResumeFn != nil {
		return s.getResumeFn(ctx, userID)
	}
	return &model.Resume{UserID: userID, Text: "stored text"}, nil
}

func (s *stubDeps) GetPosting(context.Context, string) (*model.Posting, error) {
	return &model.Posting{ID: "j1", Kind: model.KindJob, Title: "Dev", Company: "Acme"}, nil
}

func (s *stubDeps) UpdatePosting(ctx context.Context, p *model.Posting) error {
	if s.updatePostingFn != nil {
		return s.updatePostingFn(ctx, p)
	}
	return nil
}

func (s *stubDeps) DeletePosting(ctx context.Context, id string) error {
	if s.deletePostingFn != nil {
		return s.deletePostingFn(ctx, id)
	}
	return nil
}

func (s *stubDeps) Chat(ctx context.Context, userID, message string, history []assistant.Message) (string, error) {
	if s.chatFn != nil {
		return s.chatFn(ctx, userID, message, history)
	}
	return "answer", nil
}

func (s *stubDeps) RefreshFeeds(ctx context.Context) bool {
	if s.refreshFn != nil {
		return s.refreshFn(ctx)
	}
	return true
}

func (s *stubDeps) Snapshot(context.Context) api.Snapshot {
	return api.Snapshot{QueueDepth: 3, IndexVectors: 7, DedupeEntries: 11, UptimeSeconds: 42}
}

func newTestServer(deps *stubDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func do(t *testing.T, method, url string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestMatchesEndpoint(t *testing.T) {
	Convey("POST /api/matching/matches", t, func() {
		Convey("returns ranked matches", func(c C) {
			deps := &stubDeps{matchFn: func(_ context.Context, req match.Request) (*match.Outcome, error) {
				c.So(req.UserID, ShouldEqual, "u1")
				c.So(req.Kind, ShouldEqual, model.KindInternship)
				return &match.Outcome{
					Results:  []model.MatchResult{{Posting: model.Posting{ID: "i1"}, MatchScore: 87}},
					Strategy: match.StrategySemantic,
					Source:   match.SourceIndex,
				}, nil
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/matching/matches",
				map[string]any{"user_id": "u1", "match_type": "internships"})
			So(status, ShouldEqual, http.StatusOK)
			So(body["matches"], ShouldHaveLength, 1)
			So(body["strategy"], ShouldEqual, match.StrategySemantic)
		})

		Convey("reports a profile without skills as 200 with a message", func() {
			deps := &stubDeps{matchFn: func(context.Context, match.Request) (*match.Outcome, error) {
				return &match.Outcome{
					Strategy:         match.StrategySemantic,
					NeedsProfileData: true,
					Message:          "add skills to your profile to get matches",
				}, nil
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/matching/matches",
				map[string]any{"user_id": "u1"})
			So(status, ShouldEqual, http.StatusOK)
			So(body["needs_profile_data"], ShouldEqual, true)
			So(body["message"], ShouldNotBeEmpty)
		})

		Convey("maps unknown users to 404", func() {
			deps := &stubDeps{matchFn: func(context.Context, match.Request) (*match.Outcome, error) {
				return nil, fmt.Errorf("load user: %w", repository.ErrNotFound)
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/matching/matches",
				map[string]any{"user_id": "ghost"})
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})

		Convey("maps an encoder outage to a distinct 503", func() {
			deps := &stubDeps{matchFn: func(context.Context, match.Request) (*match.Outcome, error) {
				return nil, fmt.Errorf("embed query: %w", embedding.ErrEncodingUnavailable)
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/matching/matches",
				map[string]any{"user_id": "u1"})
			So(status, ShouldEqual, http.StatusServiceUnavailable)
			So(body["code"], ShouldEqual, "encoder_unavailable")
		})

		Convey("maps an unknown strategy to 400", func() {
			deps := &stubDeps{matchFn: func(context.Context, match.Request) (*match.Outcome, error) {
				return nil, fmt.Errorf("%w: %q", match.ErrUnknownStrategy, "cosmic")
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/matching/matches",
				map[string]any{"user_id": "u1", "strategy": "cosmic"})
			So(status, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("rejects missing user_id and bad match_type", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, _ := do(t, http.MethodPost, srv.URL+"/api/matching/matches", map[string]any{})
			So(status, ShouldEqual, http.StatusBadRequest)

			status, _ = do(t, http.MethodPost, srv.URL+"/api/matching/matches",
				map[string]any{"user_id": "u1", "match_type": "gigs"})
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestReverseEndpoint(t *testing.T) {
	Convey("POST /api/matching/reverse/{id}", t, func() {
		Convey("returns the notified count", func(c C) {
			deps := &stubDeps{reverseFn: func(_ context.Context, id string) (int, error) {
				c.So(id, ShouldEqual, "j1")
				return 4, nil
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/matching/reverse/j1", nil)
			So(status, ShouldEqual, http.StatusOK)
			So(body["notified"], ShouldEqual, 4)
			So(body["posting_id"], ShouldEqual, "j1")
		})

		Convey("maps disabled notifications to 503", func() {
			deps := &stubDeps{reverseFn: func(context.Context, string) (int, error) {
				return 0, notify.ErrNotConfigured
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/matching/reverse/j1", nil)
			So(status, ShouldEqual, http.StatusServiceUnavailable)
			So(body["code"], ShouldEqual, "notifications_disabled")
		})

		Convey("rejects a missing posting id", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, _ := do(t, http.MethodPost, srv.URL+"/api/matching/reverse/", nil)
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestApplicationEndpoints(t *testing.T) {
	Convey("POST /api/matching/applications", t, func() {
		Convey("records a job application", func() {
			var recorded *model.Application
			deps := &stubDeps{recordFn: func(_ context.Context, app *model.Application) error {
				recorded = app
				return nil
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/matching/applications",
				map[string]any{"user_id": "u1", "job_id": "j1", "match_score": 80.5})
			So(status, ShouldEqual, http.StatusCreated)
			So(recorded, ShouldNotBeNil)
			So(recorded.Kind, ShouldEqual, model.KindJob)
			So(recorded.Status, ShouldEqual, model.StatusApplied)
			So(body["id"], ShouldNotBeEmpty)
		})

		Convey("requires exactly one posting id", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, _ := do(t, http.MethodPost, srv.URL+"/api/matching/applications",
				map[string]any{"user_id": "u1"})
			So(status, ShouldEqual, http.StatusBadRequest)

			status, _ = do(t, http.MethodPost, srv.URL+"/api/matching/applications",
				map[string]any{"user_id": "u1", "job_id": "j1", "internship_id": "i1"})
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("PUT /api/matching/applications/{id}/status", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		Convey("accepts a valid transition", func() {
			status, body := do(t, http.MethodPut, srv.URL+"/api/matching/applications/a1/status",
				map[string]any{"status": model.StatusRejected, "reason": model.ReasonSkillGap, "skill_gaps": []string{"docker"}})
			So(status, ShouldEqual, http.StatusOK)
			So(body["id"], ShouldEqual, "a1")
			So(body["status"], ShouldEqual, model.StatusRejected)
		})

		Convey("rejects an unknown status", func() {
			status, _ := do(t, http.MethodPut, srv.URL+"/api/matching/applications/a1/status",
				map[string]any{"status": "ghosted"})
			So(status, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("GET insights and stats", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		status, body := do(t, http.MethodGet, srv.URL+"/api/matching/insights/u1", nil)
		So(status, ShouldEqual, http.StatusOK)
		So(body["trend"], ShouldEqual, insight.TrendInsufficient)

		status, body = do(t, http.MethodGet, srv.URL+"/api/matching/stats/u1", nil)
		So(status, ShouldEqual, http.StatusOK)
		So(body["user_id"], ShouldEqual, "u1")
		So(body["stats"], ShouldHaveLength, 1)
	})
}

func TestProfileEndpoints(t *testing.T) {
	Convey("User routes", t, func() {
		Convey("POST /api/users assigns an id when absent", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/users",
				map[string]any{"email": "u@example.com", "skills": []string{"go"}})
			So(status, ShouldEqual, http.StatusCreated)
			So(body["id"], ShouldNotBeEmpty)
		})

		Convey("GET /api/users/{id} maps missing users to 404", func() {
			deps := &stubDeps{getUserFn: func(context.Context, string) (*model.User, error) {
				return nil, repository.ErrNotFound
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodGet, srv.URL+"/api/users/ghost", nil)
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})

		Convey("POST /api/users/{id}/resume requires text", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, _ := do(t, http.MethodPost, srv.URL+"/api/users/u1/resume",
				map[string]any{"text": " "})
			So(status, ShouldEqual, http.StatusBadRequest)

			status, body := do(t, http.MethodPost, srv.URL+"/api/users/u1/resume",
				map[string]any{"text": "Python developer"})
			So(status, ShouldEqual, http.StatusOK)
			So(body["id"], ShouldEqual, "u1")
		})

		Convey("GET /api/users/{id}/resume returns the stored resume", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, body := do(t, http.MethodGet, srv.URL+"/api/users/u1/resume", nil)
			So(status, ShouldEqual, http.StatusOK)
			So(body["user_id"], ShouldEqual, "u1")
			So(body["text"], ShouldEqual, "stored text")
		})

		Convey("GET /api/users/{id}/resume maps a missing resume to 404", func() {
			deps := &stubDeps{getResumeFn: func(context.Context, string) (*model.Resume, error) {
				return nil, repository.ErrNotFound
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodGet, srv.URL+"/api/users/u1/resume", nil)
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})
	})

	Convey("Posting routes", t, func() {
		Convey("POST /api/postings accepts into the ingest pipeline", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/postings",
				map[string]any{"title": "Dev", "company": "Acme"})
			So(status, ShouldEqual, http.StatusAccepted)
			So(body["kind"], ShouldEqual, string(model.KindJob))
			So(body["active"], ShouldEqual, true)
		})

		Convey("requires title and company", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, _ := do(t, http.MethodPost, srv.URL+"/api/postings",
				map[string]any{"title": "Dev"})
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("signals backpressure with 429", func() {
			deps := &stubDeps{submitFn: func(context.Context, *model.Posting) (bool, error) {
				return false, nil
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/postings",
				map[string]any{"title": "Dev", "company": "Acme"})
			So(status, ShouldEqual, http.StatusTooManyRequests)
			So(body["code"], ShouldEqual, "backpressure")
		})

		Convey("PUT /api/postings/{id} updates in place", func() {
			var updated *model.Posting
			deps := &stubDeps{updatePostingFn: func(_ context.Context, p *model.Posting) error {
				updated = p
				return nil
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPut, srv.URL+"/api/postings/j1",
				map[string]any{"title": "Staff Dev", "company": "Acme"})
			So(status, ShouldEqual, http.StatusOK)
			So(updated, ShouldNotBeNil)
			So(updated.ID, ShouldEqual, "j1")
			So(body["title"], ShouldEqual, "Staff Dev")
		})

		Convey("PUT /api/postings/{id} requires title and company", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, _ := do(t, http.MethodPut, srv.URL+"/api/postings/j1",
				map[string]any{"title": "Staff Dev"})
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("DELETE /api/postings/{id} removes the posting", func() {
			var deleted string
			deps := &stubDeps{deletePostingFn: func(_ context.Context, id string) error {
				deleted = id
				return nil
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodDelete, srv.URL+"/api/postings/j1", nil)
			So(status, ShouldEqual, http.StatusOK)
			So(deleted, ShouldEqual, "j1")
			So(body["status"], ShouldEqual, "deleted")
		})

		Convey("DELETE /api/postings/{id} maps missing postings to 404", func() {
			deps := &stubDeps{deletePostingFn: func(context.Context, string) error {
				return repository.ErrNotFound
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodDelete, srv.URL+"/api/postings/ghost", nil)
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})
	})
}

func TestChatEndpoint(t *testing.T) {
	Convey("POST /api/chat/message", t, func() {
		Convey("returns the assistant's answer", func(c C) {
			deps := &stubDeps{chatFn: func(_ context.Context, userID, message string, history []assistant.Message) (string, error) {
				c.So(userID, ShouldEqual, "u1")
				c.So(message, ShouldEqual, "find me a job")
				c.So(history, ShouldHaveLength, 1)
				return "here are your matches", nil
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/chat/message",
				map[string]any{
					"user_id": "u1", "message": "find me a job",
					"messages": []map[string]string{{"role": "user", "content": "hi"}},
				})
			So(status, ShouldEqual, http.StatusOK)
			So(body["user_id"], ShouldEqual, "u1")
			So(body["response"], ShouldEqual, "here are your matches")
		})

		Convey("requires user_id and message", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, _ := do(t, http.MethodPost, srv.URL+"/api/chat/message",
				map[string]any{"message": "hello"})
			So(status, ShouldEqual, http.StatusBadRequest)

			status, _ = do(t, http.MethodPost, srv.URL+"/api/chat/message",
				map[string]any{"user_id": "u1", "message": " "})
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("maps unknown users to 404", func() {
			deps := &stubDeps{chatFn: func(context.Context, string, string, []assistant.Message) (string, error) {
				return "", repository.ErrNotFound
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/chat/message",
				map[string]any{"user_id": "ghost", "message": "hello"})
			So(status, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})

		Convey("maps a disabled assistant to 503", func() {
			deps := &stubDeps{chatFn: func(context.Context, string, string, []assistant.Message) (string, error) {
				return "", assistant.ErrNotConfigured
			}}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/chat/message",
				map[string]any{"user_id": "u1", "message": "hello"})
			So(status, ShouldEqual, http.StatusServiceUnavailable)
			So(body["code"], ShouldEqual, "chat_disabled")
		})
	})
}

func TestFeedsAndStatsEndpoints(t *testing.T) {
	Convey("POST /api/feeds/refresh", t, func() {
		Convey("acknowledges an accepted trigger", func() {
			srv := newTestServer(&stubDeps{})
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/feeds/refresh", nil)
			So(status, ShouldEqual, http.StatusAccepted)
			So(body["status"], ShouldEqual, "refresh started")
		})

		Convey("reports an in-flight refresh as 409", func() {
			deps := &stubDeps{refreshFn: func(context.Context) bool { return false }}
			srv := newTestServer(deps)
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/api/feeds/refresh", nil)
			So(status, ShouldEqual, http.StatusConflict)
			So(body["code"], ShouldEqual, "refresh_in_progress")
		})
	})

	Convey("GET /stats returns the service snapshot", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		status, body := do(t, http.MethodGet, srv.URL+"/stats", nil)
		So(status, ShouldEqual, http.StatusOK)
		So(body["queue_depth"], ShouldEqual, 3)
		So(body["index_vectors"], ShouldEqual, 7)
		So(body["uptime_seconds"], ShouldEqual, 42)
	})

	Convey("GET /healthz serves prometheus metrics", t, func() {
		srv := newTestServer(&stubDeps{})
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/healthz")
		So(err, ShouldBeNil)
		defer resp.Body.Close()
		So(resp.StatusCode, ShouldEqual, http.StatusOK)
	})
}
