package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/cuetimer/internal/config"
	"github.com/playperu/cuetimer/internal/database"
	"github.com/playperu/cuetimer/internal/handler/health"
	"github.com/playperu/cuetimer/internal/labels"
	"github.com/playperu/cuetimer/internal/migrations"
	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Labels ---
	seed, err := labels.LoadSeed(cfg.LabelsSeed)
	if err != nil {
		return fmt.Errorf("reading label seed: %w", err)
	}
	labelStore := labels.NewStore(db)
	if err := labelStore.Load(ctx, seed); err != nil {
		return fmt.Errorf("loading labels: %w", err)
	}
	logger.Info("labels loaded", "count", len(labelStore.List()))

	// --- Rooms ---
	clock := clockwork.NewRealClock()
	broker := server.NewBroker(labelStore, logger)
	registry := rooms.NewRegistry(rooms.Options{
		Clock:         clock,
		Logger:        logger,
		Publisher:     broker,
		TimersPerRoom: cfg.TimersPerRoom,
		Cadence:       cfg.DriverCadence,
		OnEvict:       broker.CloseRoom,
	})
	defer registry.Close()
	registry.Seed(cfg.DefaultRooms...)

	// --- HTTP Server ---
	srv := server.New(server.Config{
		Addr:              cfg.HTTPAddr,
		Heartbeat:         cfg.Heartbeat,
		SubscriberTimeout: cfg.SubscriberTimeout,
		CORSOrigins:       cfg.CORSOrigins,
		WebDir:            cfg.WebDir,
		OfflineRoom:       offlineRoom(cfg.DefaultRooms),
	}, server.Deps{
		Logger: logger,
		Clock:  clock,
		Rooms:  registry,
		Labels: labelStore,
		Broker: broker,
		Checks: map[string]health.Checker{
			"sqlite": labelStore,
			"schema": schemaChecker(db),
		},
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return registry.RunJanitor(gctx, cfg.JanitorInterval, cfg.RoomTTL)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// offlineRoom is the first default room; /api/offline is bound to it.
func offlineRoom(codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	return rooms.NormalizeCode(codes[0])
}
