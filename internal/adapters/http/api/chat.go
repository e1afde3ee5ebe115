package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hirestorm/matchd/internal/domain/assistant"
)

// ChatHandler serves the career assistant.
type ChatHandler struct {
	deps Dependencies
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(deps Dependencies) *ChatHandler {
	return &ChatHandler{deps: deps}
}

// chatRequest mirrors the body of POST /api/chat/message.
type chatRequest struct {
	UserID   string              `json:"user_id"`
	Message  string              `json:"message"`
	Messages []assistant.Message `json:"messages"`
}

func (c chatRequest) validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return errors.New("missing user_id")
	}
	if strings.TrimSpace(c.Message) == "" {
		return errors.New("missing message")
	}
	return nil
}

type chatResponse struct {
	UserID   string `json:"user_id"`
	Response string `json:"response"`
}

// HandleMessage handles POST /api/chat/message.
func (h *ChatHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	answer, err := h.deps.Chat(r.Context(), req.UserID, req.Message, req.Messages)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{UserID: req.UserID, Response: answer})
}
