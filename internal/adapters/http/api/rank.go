// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// RankHandler handles my-rank requests.
type RankHandler struct {
	reader LeaderboardReader
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(reader LeaderboardReader) *RankHandler {
	return &RankHandler{reader: reader}
}

// HandleGetRank handles GET /leaderboards/{key}/rank/{cluster_id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	key, clusterKey, ok := splitRankPath(r.URL.Path)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	entry, err := h.reader.MyRank(r.Context(), key, clusterKey)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// splitRankPath parses /leaderboards/{key}/rank/{cluster_id}. ok is false
// when the path has any other shape.
func splitRankPath(path string) (key, clusterKey string, ok bool) {
	rest := strings.TrimPrefix(path, "/leaderboards/")
	if rest == path {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "rank" || parts[0] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[0], parts[2], true
}
