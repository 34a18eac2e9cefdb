package display

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/client"
	"github.com/playperu/cuetimer/internal/wire"
)

var t0 = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

type fakeSender struct {
	keys []string
	snap wire.RoomSnapshot
	err  error
}

func (f *fakeSender) Key(_ context.Context, code, key string, _ *int) (wire.RoomSnapshot, error) {
	f.keys = append(f.keys, key)
	return f.snap, f.err
}

func room(version uint64, input string) wire.RoomSnapshot {
	return wire.RoomSnapshot{
		Code:       "CTRLFR",
		RoomCode:   "CTRLFR",
		Version:    version,
		CreatedAt:  1,
		ServerTime: t0.UnixMilli(),
		Timers: []wire.Timer{
			{ID: 0, Phase: "input", IsInputMode: true, Input: input, Label: "VTR"},
			{ID: 1, Phase: "paused", BaseSeconds: 90, AccumulatedMs: 30000, TimeLeft: 60},
		},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := New(&fakeSender{}, "CTRLFR", clockwork.NewFakeClockAt(t0))
	if m.connected {
		t.Error("new model should not be connected")
	}
	if !strings.Contains(m.View(), "waiting for room state") {
		t.Error("new model should wait for state")
	}
}

func TestBrowserKey(t *testing.T) {
	tests := []struct {
		msg  tea.KeyMsg
		want string
	}{
		{runes("7"), "Digit7"},
		{runes("+"), "+"},
		{runes("="), "+"},
		{runes("-"), "-"},
		{tea.KeyMsg{Type: tea.KeyEnter}, "Enter"},
		{tea.KeyMsg{Type: tea.KeySpace}, " "},
		{tea.KeyMsg{Type: tea.KeyBackspace}, "Backspace"},
		{tea.KeyMsg{Type: tea.KeyDelete}, "Delete"},
		{tea.KeyMsg{Type: tea.KeyEsc}, "Escape"},
		{tea.KeyMsg{Type: tea.KeyUp}, "ArrowUp"},
		{tea.KeyMsg{Type: tea.KeyDown}, "ArrowDown"},
		{runes("x"), ""},
		{tea.KeyMsg{Type: tea.KeyTab}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.msg.String(), func(t *testing.T) {
			if got := browserKey(tt.msg); got != tt.want {
				t.Errorf("browserKey(%q) = %q, want %q", tt.msg.String(), got, tt.want)
			}
		})
	}
}

func TestStateEventShowsTimers(t *testing.T) {
	m := New(&fakeSender{}, "CTRLFR", clockwork.NewFakeClockAt(t0))

	updated, _ := m.Update(EventMsg{Event: wire.Connected(t0)})
	updated, _ = updated.Update(EventMsg{Event: wire.State(room(3, "15"))})
	model := updated.(Model)

	if !model.connected {
		t.Error("should be connected after connected event")
	}
	view := model.View()
	for _, want := range []string{"ROOM CTRLFR", "00:00:15", "VTR", "00:01:00", "PAUSED"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDigitIsPredictedAndSent(t *testing.T) {
	sender := &fakeSender{snap: room(4, "152")}
	m := New(sender, "CTRLFR", clockwork.NewFakeClockAt(t0))
	updated, _ := m.Update(SnapshotMsg{Snapshot: room(3, "15")})

	updated, cmd := updated.Update(runes("2"))
	if cmd == nil {
		t.Fatal("digit should produce a send command")
	}
	if view := updated.View(); !strings.Contains(view, "00:01:52") {
		t.Errorf("predicted input not shown:\n%s", view)
	}

	msg := cmd()
	sent, ok := msg.(KeySentMsg)
	if !ok {
		t.Fatalf("cmd returned %T, want KeySentMsg", msg)
	}
	if len(sender.keys) != 1 || sender.keys[0] != "Digit2" {
		t.Errorf("sent keys = %v", sender.keys)
	}

	updated, _ = updated.Update(sent)
	snap, _ := updated.(Model).view.Snapshot()
	if snap.Version != 4 {
		t.Errorf("version = %d, want 4", snap.Version)
	}
}

func TestSelectionIsPredicted(t *testing.T) {
	m := New(&fakeSender{}, "CTRLFR", clockwork.NewFakeClockAt(t0))
	updated, _ := m.Update(SnapshotMsg{Snapshot: room(1, "")})

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyDown})
	model := updated.(Model)
	if !model.overlay.Active(1, client.FieldSelection) {
		t.Error("moving down should predict timer 1 selected")
	}
}

func TestKeyErrorIsShown(t *testing.T) {
	m := New(&fakeSender{}, "CTRLFR", clockwork.NewFakeClockAt(t0))

	updated, cmd := m.Update(KeySentMsg{Key: "Enter", Err: errors.New("room not found")})
	if cmd == nil {
		t.Error("error should schedule its own removal")
	}
	if view := updated.View(); !strings.Contains(view, "room not found") {
		t.Errorf("error not shown:\n%s", view)
	}

	updated, _ = updated.Update(ClearErrorMsg{})
	if updated.(Model).errorMessage != "" {
		t.Error("error should be cleared")
	}
}

func TestFollowEndedStopsSending(t *testing.T) {
	sender := &fakeSender{}
	m := New(sender, "CTRLFR", clockwork.NewFakeClockAt(t0))

	updated, _ := m.Update(FollowEndedMsg{Err: errors.New("room not found")})
	model := updated.(Model)
	if model.connected || model.statusText != "Disconnected" {
		t.Errorf("connected=%v status=%q", model.connected, model.statusText)
	}
	if _, cmd := model.Update(runes("5")); cmd != nil {
		t.Error("keys should not be sent after the room is gone")
	}
}

func TestQuitKeys(t *testing.T) {
	m := New(&fakeSender{}, "CTRLFR", nil)
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		if _, cmd := m.Update(msg); cmd == nil {
			t.Errorf("%q should quit", msg.String())
		}
	}
}
