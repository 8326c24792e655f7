// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/questforge/internal/app/etl"
)

// triggerRequest mirrors the body of POST /etl/trigger.
type triggerRequest struct {
	Mode string `json:"mode"`
}

// triggerResponse reports the trigger outcome.
type triggerResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// TriggerHandler handles manual ETL trigger requests.
type TriggerHandler struct {
	runner Runner
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(runner Runner) *TriggerHandler {
	return &TriggerHandler{runner: runner}
}

// HandleTrigger handles POST /etl/trigger requests with body
// {"mode":"incremental"|"full"}.
func (h *TriggerHandler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	var (
		res etl.BatchResult
		err error
	)
	switch req.Mode {
	case "incremental":
		res, err = h.runner.RunIncremental(r.Context())
	case "full":
		res, err = h.runner.RunDailySnapshot(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "bad_request", ErrUnknownMode)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if res.Skipped {
		writeJSON(w, http.StatusConflict, triggerResponse{
			Success: false,
			Message: "a run is already in flight",
		})
		return
	}
	writeJSON(w, http.StatusOK, triggerResponse{
		Success:   true,
		Message:   "run complete",
		Processed: res.Processed,
		Failed:    res.Failed,
	})
}
