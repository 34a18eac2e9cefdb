package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/handler/health"
	"github.com/playperu/cuetimer/internal/labels"
	"github.com/playperu/cuetimer/internal/rooms"
)

type Config struct {
	Addr              string
	Heartbeat         time.Duration
	SubscriberTimeout time.Duration
	CORSOrigins       []string
	WebDir            string // optional web build served for unmatched paths
	OfflineRoom       string // room behind /api/offline; empty disables it
}

// Deps are the long-lived services the handlers share. All of them are
// created once in main.
type Deps struct {
	Logger *slog.Logger
	Clock  clockwork.Clock
	Rooms  *rooms.Registry
	Labels *labels.Store
	Broker *Broker
	Checks map[string]health.Checker
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(cfg Config, d Deps) *Server {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 30 * time.Second
	}
	if cfg.SubscriberTimeout <= 0 {
		cfg.SubscriberTimeout = 60 * time.Second
	}

	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(cfg, d),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: d.Logger,
	}
}

func newRouter(cfg Config, d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(newCORS(cfg.CORSOrigins))

	addRoutes(r, cfg, d)
	return r
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until Shutdown. Request contexts derive from ctx, so push
// streams end as soon as ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				level := slog.LevelInfo
				// Pollers hit this several times a second.
				if r.Method == http.MethodGet && r.URL.Path == "/api/timers" {
					level = slog.LevelDebug
				}
				logger.Log(r.Context(), level, "http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
