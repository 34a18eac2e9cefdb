package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/playperu/cuetimer/internal/client"
	"github.com/playperu/cuetimer/internal/display"
	"github.com/playperu/cuetimer/internal/wire"
)

type config struct {
	ServerURL    string        `env:"CUETIMER_URL" envDefault:"http://localhost:8080"`
	Room         string        `env:"CUETIMER_ROOM" envDefault:"CTRLFR"`
	Mode         string        `env:"CUETIMER_MODE" envDefault:"stream"`
	PollInterval time.Duration `env:"CUETIMER_POLL_INTERVAL" envDefault:"500ms"`
	LogFile      string        `env:"CUETIMER_LOG_FILE"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return fmt.Errorf("parsing env: %w", err)
	}
	if len(args) > 0 {
		cfg.Room = args[0]
	}
	if cfg.Mode != "stream" && cfg.Mode != "poll" {
		return fmt.Errorf("CUETIMER_MODE must be stream or poll, got %q", cfg.Mode)
	}

	// The terminal belongs to the UI; logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewJSONHandler(logOut, nil))

	c := client.New(cfg.ServerURL, nil)
	snap, err := c.Join(ctx, cfg.Room)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(display.New(c, snap.Code, nil), tea.WithAltScreen(), tea.WithContext(ctx))

	opts := client.Options{Interval: cfg.PollInterval, Logger: logger}
	go func() {
		// Send blocks until the program is running.
		p.Send(display.SnapshotMsg{Snapshot: snap})

		var err error
		switch cfg.Mode {
		case "poll":
			err = client.NewPoller(c, snap.Code, opts).Run(ctx, func(s wire.RoomSnapshot) {
				p.Send(display.SnapshotMsg{Snapshot: s})
			})
		default:
			err = c.Follow(ctx, snap.Code, opts, func(ev wire.Event) {
				p.Send(display.EventMsg{Event: ev})
			})
		}
		p.Send(display.FollowEndedMsg{Err: err})
	}()

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
