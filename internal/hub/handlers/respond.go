// Package handlers serves the hub pages and the JSON endpoints the browser
// client calls.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"learning-hub/internal/hub/store"
	"learning-hub/internal/logging"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondOK(w http.ResponseWriter, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["success"] = true
	respondJSON(w, http.StatusOK, fields)
}

func respondFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}

// handleError maps store errors to a status and a message the client shows.
func handleError(w http.ResponseWriter, logger logging.Logger, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondFailure(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, store.ErrInvalidRating):
		respondFailure(w, http.StatusBadRequest, "Rating must be between 1 and 5.")
	case errors.Is(err, store.ErrInvalidVote):
		respondFailure(w, http.StatusBadRequest, "Vote must be upvote or downvote.")
	case errors.Is(err, store.ErrEmptyComment):
		respondFailure(w, http.StatusBadRequest, "Comment cannot be empty.")
	case errors.Is(err, store.ErrInvalidAction):
		respondFailure(w, http.StatusBadRequest, "Action must be approve, reject, delete or feature.")
	case errors.Is(err, store.ErrInvalidType):
		respondFailure(w, http.StatusBadRequest, "Unknown item type.")
	case errors.Is(err, store.ErrNoItems):
		respondFailure(w, http.StatusBadRequest, "No items selected.")
	case errors.Is(err, store.ErrUserRequired):
		respondFailure(w, http.StatusUnauthorized, "Login required.")
	default:
		if logger != nil {
			logger.Printf("%s: %v", op, err)
		}
		respondFailure(w, http.StatusInternalServerError, "Something went wrong.")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}

func pathID(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	return id, err == nil && id > 0
}
