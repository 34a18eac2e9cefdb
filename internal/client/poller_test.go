package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/wire"
)

func receive(t *testing.T, ch <-chan wire.RoomSnapshot) wire.RoomSnapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return wire.RoomSnapshot{}
	}
}

func TestPollerDeliversOnlyChanges(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.url, nil)
	clock := clockwork.NewFakeClock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan wire.RoomSnapshot, 8)
	p := NewPoller(c, "CTRLFR", Options{Interval: 250 * time.Millisecond, Clock: clock})
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, func(s wire.RoomSnapshot) { got <- s }) }()

	if s := receive(t, got); s.Version != 0 {
		t.Fatalf("first snapshot version = %d, want 0", s.Version)
	}

	// Nothing changed: the next poll is answered 304 and not delivered.
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(250 * time.Millisecond)
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Key(ctx, "CTRLFR", "Digit4", nil); err != nil {
		t.Fatalf("key: %v", err)
	}
	clock.Advance(250 * time.Millisecond)

	s := receive(t, got)
	if s.Version != 1 {
		t.Errorf("version = %d, want 1", s.Version)
	}
	if s.Timers[0].Input != "4" {
		t.Errorf("input = %q, want %q", s.Timers[0].Input, "4")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("run returned %v after cancel", err)
	}
}

func TestPollerStopsOnUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	p := NewPoller(New(ts.url, nil), "GONE00", Options{Clock: clockwork.NewFakeClock()})

	err := p.Run(context.Background(), func(wire.RoomSnapshot) {
		t.Error("no snapshot expected")
	})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestPollerRetriesAfterFailures(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("ETag", `"v3"`)
		json.NewEncoder(w).Encode(wire.RoomSnapshot{Code: "CTRLFR", Version: 3})
	}))
	defer ts.Close()

	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan wire.RoomSnapshot, 1)
	p := NewPoller(New(ts.URL, nil), "CTRLFR", Options{Interval: 100 * time.Millisecond, Clock: clock})
	go p.Run(ctx, func(s wire.RoomSnapshot) { got <- s })

	for range 2 {
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatal(err)
		}
		clock.Advance(DefaultMaxBackoff)
	}

	if s := receive(t, got); s.Version != 3 {
		t.Errorf("version = %d, want 3", s.Version)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	b := newBackOff(Options{
		Interval:   500 * time.Millisecond,
		MaxBackoff: 30 * time.Second,
		Clock:      clockwork.NewFakeClock(),
	}.withDefaults())

	first := nextDelay(b)
	if first < 250*time.Millisecond || first > 750*time.Millisecond {
		t.Errorf("first delay = %v, want within 50%% of 500ms", first)
	}

	var last time.Duration
	for range 50 {
		last = nextDelay(b)
		if last > 30*time.Second {
			t.Fatalf("delay %v exceeds cap", last)
		}
	}
	if last < 15*time.Second {
		t.Errorf("delay after many failures = %v, want near the cap", last)
	}

	b.Reset()
	if d := nextDelay(b); d > 750*time.Millisecond {
		t.Errorf("delay after reset = %v", d)
	}
}
