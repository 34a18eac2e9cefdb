package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if !slices.Equal(cfg.DefaultRooms, []string{"CTRLFR", "CTRLEN"}) {
		t.Errorf("DefaultRooms = %v", cfg.DefaultRooms)
	}
	if cfg.DriverCadence != 250*time.Millisecond || cfg.Heartbeat != 30*time.Second {
		t.Errorf("cadence=%s heartbeat=%s", cfg.DriverCadence, cfg.Heartbeat)
	}
	if cfg.TimersPerRoom != 2 || cfg.RoomTTL != 12*time.Hour {
		t.Errorf("timers=%d ttl=%s", cfg.TimersPerRoom, cfg.RoomTTL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	data := "DEFAULT_ROOMS=STUDIO\nTIMERS_PER_ROOM=4\nHTTP_ADDR=:9000\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HTTP_ADDR", ":7000")
	// godotenv sets process variables; clear them for other tests.
	t.Cleanup(func() {
		os.Unsetenv("DEFAULT_ROOMS")
		os.Unsetenv("TIMERS_PER_ROOM")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(cfg.DefaultRooms, []string{"STUDIO"}) || cfg.TimersPerRoom != 4 {
		t.Errorf("from file: rooms=%v timers=%d", cfg.DefaultRooms, cfg.TimersPerRoom)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Errorf("HTTPAddr = %q, environment should win", cfg.HTTPAddr)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"no timers", "TIMERS_PER_ROOM", "0"},
		{"zero cadence", "DRIVER_CADENCE", "0s"},
		{"timeout below heartbeat", "SUBSCRIBER_TIMEOUT", "10s"},
		{"bad duration", "ROOM_TTL", "soon"},
		{"long room code", "DEFAULT_ROOMS", "CTRLFR,STUDIO1"},
		{"room code punctuation", "DEFAULT_ROOMS", "CTRL-F"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Error("expected error")
			}
		})
	}
}
