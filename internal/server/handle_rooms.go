package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/wire"
)

// handleRooms serves {action:"create"} and {action:"join", roomCode}.
func handleRooms(logger *slog.Logger, reg *rooms.Registry, labels wire.LabelResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.RoomRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		switch req.Action {
		case "create":
			snap, err := reg.Create()
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusCreated, wire.RoomCreated{
				Success:  true,
				RoomCode: snap.Code,
				State:    wire.FromSnapshot(snap, labels),
			})

		case "join":
			if req.RoomCode == "" {
				writeError(w, http.StatusBadRequest, "roomCode is required")
				return
			}
			snap, err := reg.Get(req.RoomCode)
			if err != nil {
				writeDomainError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, wire.RoomJoined{Success: true, State: wire.FromSnapshot(snap, labels)})

		default:
			writeError(w, http.StatusBadRequest, "action must be create or join")
		}
	}
}

func handleGetRoom(logger *slog.Logger, reg *rooms.Registry, labels wire.LabelResolver) http.HandlerFunc {
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
		writeJSON(w, http.StatusOK, wire.RoomJoined{Success: true, State: wire.FromSnapshot(snap, labels)})
	}
}
