package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/cuetimer/internal/dispatch"
	"github.com/playperu/cuetimer/internal/labels"
	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/studiotimer"
	"github.com/playperu/cuetimer/internal/wire"
)

// OfflineState is the single-room view for button decks that cannot be
// configured with a room code. The per-timer status strings are repeated at
// the top level so a deck key can bind to one field.
type OfflineState struct {
	Success bool `json:"success"`
	wire.RoomSnapshot
	SelectedTimerStatus string         `json:"selectedTimerStatus"`
	Timer1Status        string         `json:"timer1Status"`
	Timer2Status        string         `json:"timer2Status"`
	Labels              []labels.Label `json:"labels,omitempty"`
}

func offlineState(snap rooms.Snapshot, ls *labels.Store) OfflineState {
	ws := wire.FromSnapshot(snap, ls)
	status := func(i int) string {
		if i < 0 || i >= len(ws.Timers) {
			return wire.Status(studiotimer.PhaseInput)
		}
		return ws.Timers[i].Status
	}
	return OfflineState{
		Success:             true,
		RoomSnapshot:        ws,
		SelectedTimerStatus: status(ws.SelectedTimerID),
		Timer1Status:        status(0),
		Timer2Status:        status(1),
	}
}

// handleOfflineGet reports the bound room together with the label list so a
// deck can render label keys from one request.
func handleOfflineGet(logger *slog.Logger, reg *rooms.Registry, ls *labels.Store, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := reg.Get(code)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		resp := offlineState(snap, ls)
		resp.Labels = ls.List()
		w.Header().Set("ETag", etag(snap.Version))
		w.Header().Set("Cache-Control", "no-cache")
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleOfflinePost applies an {action, timerId, value, labelIndex} command
// to the bound room. Any roomCode in the body is ignored.
func handleOfflinePost(logger *slog.Logger, reg *rooms.Registry, ls *labels.Store, code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.CommandRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		req.RoomCode = code

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
		logger.Debug("offline command", "room", code, "action", req.Name(), "version", snap.Version)
		w.Header().Set("ETag", etag(snap.Version))
		writeJSON(w, http.StatusOK, offlineState(snap, ls))
	}
}
