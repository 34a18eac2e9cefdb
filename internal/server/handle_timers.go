package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/playperu/cuetimer/internal/dispatch"
	"github.com/playperu/cuetimer/internal/labels"
	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/wire"
)

func etag(version uint64) string {
	return `"v` + strconv.FormatUint(version, 10) + `"`
}

// handlePoll serves pull-mode observers. A poller that already holds the
// current version gets 304 and no body.
func handlePoll(logger *slog.Logger, reg *rooms.Registry, ls *labels.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := roomQuery(r)
		if code == "" {
			writeError(w, http.StatusBadRequest, "roomCode query parameter required")
			return
		}
		snap, err := reg.Get(code)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		tag := etag(snap.Version)
		w.Header().Set("ETag", tag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		writeJSON(w, http.StatusOK, wire.FromSnapshot(snap, ls))
	}
}

// handleCommand applies one command named in the body's roomCode and
// answers with the full room snapshot.
func handleCommand(logger *slog.Logger, reg *rooms.Registry, ls *labels.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.CommandRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.RoomCode == "" {
			writeError(w, http.StatusBadRequest, "roomCode is required")
			return
		}
		applyRequest(w, logger, reg, ls, req.RoomCode, req)
	}
}

// handleRoomCommand is handleCommand with the room taken from the path, for
// macro devices that can only be configured with a URL and a fixed body.
func handleRoomCommand(logger *slog.Logger, reg *rooms.Registry, ls *labels.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.CommandRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		applyRequest(w, logger, reg, ls, roomFrom(r), req)
	}
}

func applyRequest(w http.ResponseWriter, logger *slog.Logger, reg *rooms.Registry, ls *labels.Store, code string, req wire.CommandRequest) {
	cmd, err := dispatch.FromRequest(req, ls)
	if err != nil {
		writeDomainError(w, logger, err)
		return
	}
	snap, err := reg.Apply(code, cmd)
	if err != nil {
		writeDomainError(w, logger, err)
		return
	}
	w.Header().Set("ETag", etag(snap.Version))
	writeJSON(w, http.StatusOK, wire.FromSnapshot(snap, ls))
}
