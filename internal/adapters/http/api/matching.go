package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/internal/domain/model"
)

// MatchingHandler serves ranked matches and reverse matching.
type MatchingHandler struct {
	deps Dependencies
}

// NewMatchingHandler creates a new matching handler.
func NewMatchingHandler(deps Dependencies) *MatchingHandler {
	return &MatchingHandler{deps: deps}
}

// matchRequest mirrors the body of POST /api/matching/matches.
type matchRequest struct {
	UserID    string `json:"user_id"`
	MatchType string `json:"match_type"` // jobs or internships
	Strategy  string `json:"strategy"`   // semantic or overlap
	TopK      int    `json:"top_k"`
}

func (m matchRequest) validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return errors.New("missing user_id")
	}
	switch m.MatchType {
	case "", "jobs", "internships":
	default:
		return errors.New("match_type must be jobs or internships")
	}
	return nil
}

func (m matchRequest) kind() model.EntityKind {
	if m.MatchType == "internships" {
		return model.KindInternship
	}
	return model.KindJob
}

// HandleMatches handles POST /api/matching/matches.
func (h *MatchingHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	outcome, err := h.deps.Match(r.Context(), match.Request{
		UserID:   req.UserID,
		Kind:     req.kind(),
		Strategy: req.Strategy,
		TopK:     req.TopK,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type reverseResponse struct {
	PostingID string `json:"posting_id"`
	Notified  int    `json:"notified"`
}

// HandleReverse handles POST /api/matching/reverse/{posting_id}.
func (h *MatchingHandler) HandleReverse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	postingID := strings.TrimPrefix(r.URL.Path, "/api/matching/reverse/")
	if postingID == "" || strings.Contains(postingID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing posting id"))
		return
	}

	notified, err := h.deps.ReverseMatch(r.Context(), postingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reverseResponse{PostingID: postingID, Notified: notified})
}
