package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/cuetimer/internal/dispatch"
	"github.com/playperu/cuetimer/internal/labels"
	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/wire"
)

// wsError is sent to a WebSocket client whose command was rejected.
type wsError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// handleWS carries the same events as the SSE stream and also accepts
// command requests for the room.
func handleWS(logger *slog.Logger, clock clockwork.Clock, reg *rooms.Registry, broker *Broker, ls *labels.Store, heartbeat, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := roomQuery(r)
		if code == "" {
			writeError(w, http.StatusBadRequest, "roomCode query parameter required")
			return
		}
		if _, err := reg.Get(code); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		sub := broker.Subscribe(code)
		defer broker.Unsubscribe(sub)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		write := func(v any) error {
			wctx, wcancel := context.WithTimeout(ctx, timeout)
			defer wcancel()
			return wsjson.Write(wctx, conn, v)
		}

		snap, err := reg.Get(code)
		if err != nil {
			conn.Close(websocket.StatusPolicyViolation, "room not found")
			return
		}
		if err := write(wire.Connected(clock.Now())); err != nil {
			return
		}
		if err := write(wire.State(wire.FromSnapshot(snap, ls))); err != nil {
			return
		}

		go func() {
			defer cancel()
			for {
				var req wire.CommandRequest
				if err := wsjson.Read(ctx, conn, &req); err != nil {
					if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
						logger.Debug("websocket read ended", "room", code, "error", err)
					}
					return
				}

				var snap rooms.Snapshot
				cmd, err := dispatch.FromRequest(req, ls)
				if err == nil {
					snap, err = reg.Apply(code, cmd)
				}
				if err == nil {
					// The sender always gets an answer, even when the command
					// was absorbed and nothing is broadcast.
					if werr := write(wire.State(wire.FromSnapshot(snap, ls))); werr != nil {
						return
					}
					continue
				}

				if errors.Is(err, rooms.ErrNotFound) {
					conn.Close(websocket.StatusPolicyViolation, "room not found")
					return
				}
				if werr := write(wsError{Type: "error", Error: err.Error()}); werr != nil {
					return
				}
			}
		}()

		ping := clock.NewTicker(heartbeat)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-sub.C:
				if !ok {
					conn.Close(websocket.StatusGoingAway, "subscription dropped")
					return
				}
				wctx, wcancel := context.WithTimeout(ctx, timeout)
				err := conn.Write(wctx, websocket.MessageText, data)
				wcancel()
				if err != nil {
					logger.Debug("websocket write failed", "room", code, "error", err)
					return
				}
			case <-ping.Chan():
				if err := write(wire.Heartbeat(clock.Now())); err != nil {
					return
				}
			}
		}
	}
}
