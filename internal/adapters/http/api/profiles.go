package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hirestorm/matchd/internal/domain/model"
)

// ProfileHandler serves the minimal user and posting CRUD used for seeding
// and profile upkeep.
type ProfileHandler struct {
	deps Dependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps Dependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandleUsers handles POST /api/users.
func (h *ProfileHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var u model.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	if err := h.deps.CreateUser(r.Context(), &u); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// HandleUser handles GET, PUT and DELETE /api/users/{id}, plus
// POST /api/users/{id}/resume.
func (h *ProfileHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")

	if id, ok := strings.CutSuffix(rest, "/resume"); ok && id != "" && !strings.Contains(id, "/") {
		h.handleResume(w, r, id)
		return
	}
	if rest == "" || strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}
	id := rest

	switch r.Method {
	case http.MethodGet:
		u, err := h.deps.GetUser(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPut:
		var u model.User
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		u.ID = id
		if err := h.deps.UpdateUser(r.Context(), &u); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodDelete:
		if err := h.deps.DeleteUser(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
	default:
		http.NotFound(w, r)
	}
}

// resumeRequest mirrors the body of POST /api/users/{id}/resume. Text
// arrives already extracted; PDF parsing happens upstream.
type resumeRequest struct {
	Text string `json:"text"`
}

func (h *ProfileHandler) handleResume(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		resume, err := h.deps.GetResume(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resume)
	case http.MethodPost:
		var req resumeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing resume text"))
			return
		}

		user, err := h.deps.UploadResume(r.Context(), userID, req.Text)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	default:
		http.NotFound(w, r)
	}
}

// HandlePostings handles POST /api/postings: the posting goes through the
// same ingest pipeline as feed records.
func (h *ProfileHandler) HandlePostings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var p model.Posting
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Company) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing title or company"))
		return
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Kind == "" {
		p.Kind = model.KindJob
	}
	p.Active = true

	accepted, err := h.deps.SubmitPosting(r.Context(), &p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !accepted {
		writeError(w, http.StatusTooManyRequests, "backpressure", errors.New("ingest queue is full"))
		return
	}
	writeJSON(w, http.StatusAccepted, p)
}

// HandlePosting handles GET, PUT and DELETE /api/postings/{id}.
func (h *ProfileHandler) HandlePosting(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/postings/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := h.deps.GetPosting(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var p model.Posting
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Company) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing title or company"))
			return
		}
		p.ID = id
		if err := h.deps.UpdatePosting(r.Context(), &p); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := h.deps.DeletePosting(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
	default:
		http.NotFound(w, r)
	}
}
