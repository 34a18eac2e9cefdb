package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/cuetimer/internal/dispatch"
	"github.com/playperu/cuetimer/internal/labels"
	"github.com/playperu/cuetimer/internal/rooms"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps package sentinel errors onto HTTP statuses. Anything
// unrecognised is logged and reported as a generic 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	// A command naming a missing label is malformed, not a missing resource.
	case errors.Is(err, dispatch.ErrInvalidCommand),
		errors.Is(err, rooms.ErrInvalidTimer),
		errors.Is(err, labels.ErrInvalidText):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rooms.ErrNotFound):
		writeError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, labels.ErrNotFound):
		writeError(w, http.StatusNotFound, "label not found")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
