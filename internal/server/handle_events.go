package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/wire"
)

// handleStream is the SSE push channel. Frames are data-only so browser
// EventSource onmessage handlers see every event; the type travels in the
// JSON body.
func handleStream(logger *slog.Logger, clock clockwork.Clock, reg *rooms.Registry, broker *Broker, labels wire.LabelResolver, heartbeat, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := roomQuery(r)
		if code == "" {
			writeError(w, http.StatusBadRequest, "roomCode query parameter required")
			return
		}

		// Subscribe before reading the initial state so no update can fall
		// between the two.
		sub := broker.Subscribe(code)
		defer broker.Unsubscribe(sub)

		snap, err := reg.Get(code)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}
		rc := http.NewResponseController(w)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func(data []byte) error {
			// A subscriber that cannot take a frame within the timeout is dead.
			_ = rc.SetWriteDeadline(time.Now().Add(timeout))
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}
		sendEvent := func(ev wire.Event) error {
			data, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			return send(data)
		}

		if err := sendEvent(wire.Connected(clock.Now())); err != nil {
			return
		}
		if err := sendEvent(wire.State(wire.FromSnapshot(snap, labels))); err != nil {
			return
		}
		logger.Debug("stream opened", "room", code, "subscriber", sub.ID)

		ping := clock.NewTicker(heartbeat)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				logger.Debug("stream closed", "room", code, "subscriber", sub.ID)
				return
			case data, ok := <-sub.C:
				if !ok {
					logger.Debug("stream dropped by broker", "room", code, "subscriber", sub.ID)
					return
				}
				if err := send(data); err != nil {
					logger.Debug("stream write failed", "room", code, "error", err)
					return
				}
			case <-ping.Chan():
				if err := sendEvent(wire.Heartbeat(clock.Now())); err != nil {
					logger.Debug("heartbeat failed", "room", code, "error", err)
					return
				}
			}
		}
	}
}
