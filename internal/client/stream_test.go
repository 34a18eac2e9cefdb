package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/wire"
)

func nextEvent(t *testing.T, ch <-chan wire.Event) wire.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return wire.Event{}
	}
}

func TestStreamEvents(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.url, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan wire.Event, 8)
	done := make(chan error, 1)
	go func() { done <- c.Stream(ctx, "CTRLFR", func(ev wire.Event) { events <- ev }) }()

	if ev := nextEvent(t, events); ev.Type != wire.EventConnected || ev.RoomSnapshot != nil {
		t.Fatalf("first event = %+v, want bare connected", ev)
	}
	ev := nextEvent(t, events)
	if ev.Type != wire.EventState || ev.RoomSnapshot == nil || ev.Code != "CTRLFR" {
		t.Fatalf("second event = %+v, want state for CTRLFR", ev)
	}

	if _, err := c.Key(ctx, "CTRLFR", "Digit9", nil); err != nil {
		t.Fatalf("key: %v", err)
	}
	ev = nextEvent(t, events)
	if ev.Type != wire.EventUpdate || ev.Version != 1 {
		t.Fatalf("update = type %q version %d", ev.Type, ev.Version)
	}
	if ev.Timers[0].Input != "9" {
		t.Errorf("input = %q, want %q", ev.Timers[0].Input, "9")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("stream returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after cancel")
	}
}

func TestStreamUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	err := New(ts.url, nil).Stream(context.Background(), "NOPE99", func(wire.Event) {})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("err = %v, want ErrRoomNotFound", err)
	}
}

func TestFollowEndsWhenRoomEvicted(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.url, nil)
	ctx := context.Background()

	created, err := c.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock := clockwork.NewFakeClock()
	events := make(chan wire.Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.Follow(ctx, created.RoomCode, Options{Clock: clock}, func(ev wire.Event) { events <- ev })
	}()

	nextEvent(t, events)
	if ev := nextEvent(t, events); ev.Type != wire.EventState {
		t.Fatalf("event = %q, want state", ev.Type)
	}

	ts.rooms.EvictIdle(0)

	// The stream closes; the reconnect attempt finds no room and gives up.
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(DefaultMaxBackoff)

	select {
	case err := <-done:
		if !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("err = %v, want ErrRoomNotFound", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follow did not end")
	}
}
