package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// ApplicationHandler serves application recording, status transitions and
// rejection insights.
type ApplicationHandler struct {
	deps Dependencies
}

// NewApplicationHandler creates a new application handler.
func NewApplicationHandler(deps Dependencies) *ApplicationHandler {
	return &ApplicationHandler{deps: deps}
}

// applicationRequest mirrors the body of POST /api/matching/applications.
// Exactly one of job_id or internship_id must be set.
type applicationRequest struct {
	UserID               string  `json:"user_id"`
	JobID                string  `json:"job_id"`
	InternshipID         string  `json:"internship_id"`
	MatchScore           float64 `json:"match_score"`
	RejectionProbability float64 `json:"rejection_probability"`
}

func (a applicationRequest) validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return errors.New("missing user_id")
	}
	if (a.JobID == "") == (a.InternshipID == "") {
		return errors.New("exactly one of job_id or internship_id is required")
	}
	return nil
}

func (a applicationRequest) toModel() *model.Application {
	app := &model.Application{
		ID:                   uuid.NewString(),
		UserID:               a.UserID,
		Status:               model.StatusApplied,
		MatchScore:           a.MatchScore,
		RejectionProbability: a.RejectionProbability,
	}
	if a.JobID != "" {
		app.PostingID = a.JobID
		app.Kind = model.KindJob
	} else {
		app.PostingID = a.InternshipID
		app.Kind = model.KindInternship
	}
	return app
}

// HandleCreate handles POST /api/matching/applications.
func (h *ApplicationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	app := req.toModel()
	if err := h.deps.RecordApplication(r.Context(), app); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// statusRequest mirrors the body of PUT /applications/{id}/status.
type statusRequest struct {
	Status    string   `json:"status"`
	Reason    string   `json:"reason"`
	SkillGaps []string `json:"skill_gaps"`
}

func (s statusRequest) validate() error {
	switch s.Status {
	case model.StatusApplied, model.StatusInterview, model.StatusAccepted, model.StatusRejected:
		return nil
	default:
		return errors.New("status must be applied, interview, accepted or rejected")
	}
}

// HandleStatus handles PUT /api/matching/applications/{id}/status.
func (h *ApplicationHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/matching/applications/")
	id, ok := strings.CutSuffix(rest, "/status")
	if !ok || id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.deps.TransitionApplication(r.Context(), id, req.Status, req.Reason, req.SkillGaps); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

// HandleInsights handles GET /api/matching/insights/{user_id}.
func (h *ApplicationHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/matching/insights/")
	if userID == "" || strings.Contains(userID, "/") {
		http.NotFound(w, r)
		return
	}

	out, err := h.deps.Insights(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleStats handles GET /api/matching/stats/{user_id}.
func (h *ApplicationHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/matching/stats/")
	if userID == "" || strings.Contains(userID, "/") {
		http.NotFound(w, r)
		return
	}

	stats, err := h.deps.ApplicationStats(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "stats": stats})
}
