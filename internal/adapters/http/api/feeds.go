package api

import (
	"errors"
	"net/http"
)

// FeedsHandler triggers manual feed refreshes.
type FeedsHandler struct {
	deps Dependencies
}

// NewFeedsHandler creates a new feeds handler.
func NewFeedsHandler(deps Dependencies) *FeedsHandler {
	return &FeedsHandler{deps: deps}
}

// HandleRefresh handles POST /api/feeds/refresh. The refresh runs
// asynchronously; the response only acknowledges the trigger.
func (h *FeedsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if !h.deps.RefreshFeeds(r.Context()) {
		writeError(w, http.StatusConflict, "refresh_in_progress", errors.New("a refresh is already running"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}
