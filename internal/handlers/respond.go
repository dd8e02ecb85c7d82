package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/draft"
)

// ErrorResponse is the error shape for every API error
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{draft.ErrInvalidConfiguration, http.StatusBadRequest, "INVALID_CONFIGURATION"},
	{draft.ErrInvalidTeam, http.StatusBadRequest, "INVALID_TEAM"},
	{draft.ErrNotInitialized, http.StatusBadRequest, "NOT_INITIALIZED"},
	{draft.ErrUnknownPlayer, http.StatusNotFound, "UNKNOWN_PLAYER"},
	{draft.ErrPlayerAlreadyDrafted, http.StatusConflict, "PLAYER_ALREADY_DRAFTED"},
	{draft.ErrOutOfTurn, http.StatusConflict, "OUT_OF_TURN"},
	{draft.ErrNoSlotAvailable, http.StatusConflict, "NO_SLOT_AVAILABLE"},
	{draft.ErrDraftAlreadyComplete, http.StatusConflict, "DRAFT_COMPLETE"},
	{draft.ErrNoEligibleCandidates, http.StatusUnprocessableEntity, "NO_ELIGIBLE_CANDIDATES"},
}

// StatusForError maps a draft error to an HTTP status and error code
func StatusForError(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, status, resp)
}

func writeDraftError(w http.ResponseWriter, err error) {
	status, code := StatusForError(err)
	writeError(w, status, code, err.Error())
}
