package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/playperu/cuetimer/internal/rooms"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	WebDir   string     `env:"WEB_DIR" envDefault:"../web/out"`

	DBPath     string `env:"DB_PATH" envDefault:"data/labels.db"`
	LabelsSeed string `env:"LABELS_SEED"`

	DefaultRooms  []string      `env:"DEFAULT_ROOMS" envDefault:"CTRLFR,CTRLEN" envSeparator:","`
	TimersPerRoom int           `env:"TIMERS_PER_ROOM" envDefault:"2"`
	DriverCadence time.Duration `env:"DRIVER_CADENCE" envDefault:"250ms"`

	Heartbeat         time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"30s"`
	SubscriberTimeout time.Duration `env:"SUBSCRIBER_TIMEOUT" envDefault:"60s"`

	RoomTTL         time.Duration `env:"ROOM_TTL" envDefault:"12h"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"5m"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.TimersPerRoom < 1:
		return fmt.Errorf("TIMERS_PER_ROOM must be at least 1, got %d", c.TimersPerRoom)
	case c.DriverCadence <= 0:
		return fmt.Errorf("DRIVER_CADENCE must be positive, got %s", c.DriverCadence)
	case c.Heartbeat <= 0:
		return fmt.Errorf("HEARTBEAT_INTERVAL must be positive, got %s", c.Heartbeat)
	case c.SubscriberTimeout < c.Heartbeat:
		return fmt.Errorf("SUBSCRIBER_TIMEOUT (%s) must not be shorter than HEARTBEAT_INTERVAL (%s)", c.SubscriberTimeout, c.Heartbeat)
	case c.RoomTTL <= 0 || c.JanitorInterval <= 0:
		return fmt.Errorf("ROOM_TTL and JANITOR_INTERVAL must be positive")
	}
	for _, code := range c.DefaultRooms {
		if !rooms.ValidCode(rooms.NormalizeCode(code)) {
			return fmt.Errorf("DEFAULT_ROOMS: %q is not a 6-character room code", code)
		}
	}
	return nil
}
