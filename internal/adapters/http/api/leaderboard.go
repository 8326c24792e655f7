// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// LeaderboardHandler handles leaderboard view requests.
type LeaderboardHandler struct {
	reader LeaderboardReader
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(reader LeaderboardReader) *LeaderboardHandler {
	return &LeaderboardHandler{reader: reader}
}

// HandleGetLeaderboard handles GET /leaderboards/{key} requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/leaderboards/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	view, err := h.reader.View(r.Context(), key)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
