package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/cuetimer/internal/handler/health"
)

func addRoutes(r chi.Router, cfg Config, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Cue Timer API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(d.Logger, d.Checks).Routes())

	r.Route("/api", func(r chi.Router) {
		r.Post("/rooms", handleRooms(d.Logger, d.Rooms, d.Labels))
		r.Get("/rooms", handleGetRoom(d.Logger, d.Rooms, d.Labels))
		r.With(roomMiddleware(d.Rooms)).Post("/rooms/{code}/command", handleRoomCommand(d.Logger, d.Rooms, d.Labels))

		r.Get("/timers", handlePoll(d.Logger, d.Rooms, d.Labels))
		r.Post("/timers/command", handleCommand(d.Logger, d.Rooms, d.Labels))
		r.Get("/timers/stream", handleStream(d.Logger, d.Clock, d.Rooms, d.Broker, d.Labels, cfg.Heartbeat, cfg.SubscriberTimeout))
		r.Get("/timers/ws", handleWS(d.Logger, d.Clock, d.Rooms, d.Broker, d.Labels, cfg.Heartbeat, cfg.SubscriberTimeout))

		r.Get("/labels", handleListLabels(d.Labels))
		r.Post("/labels", handleLabels(d.Logger, d.Rooms, d.Labels))

		if cfg.OfflineRoom != "" {
			r.Get("/offline", handleOfflineGet(d.Logger, d.Rooms, d.Labels, cfg.OfflineRoom))
			r.Post("/offline", handleOfflinePost(d.Logger, d.Rooms, d.Labels, cfg.OfflineRoom))
		}
	})

	if staticDir(cfg.WebDir) {
		d.Logger.Info("serving web surfaces", "dir", cfg.WebDir)
		r.NotFound(handleStatic(cfg.WebDir))
	}
}
