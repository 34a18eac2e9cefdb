// Package wire holds the JSON shapes exchanged between the server and its
// observers. Field names follow the ones control surfaces already speak
// (timeLeft, isRunning, isInputMode, ...); the booleans are derived from the
// timer phase here and nowhere else.
package wire

import (
	"encoding/json"
	"time"

	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/studiotimer"
)

// LabelResolver turns a label id into display text.
type LabelResolver interface {
	Text(id string) string
}

type Timer struct {
	ID            int     `json:"id"`
	Phase         string  `json:"phase"`
	Status        string  `json:"status"`
	Input         string  `json:"input"`
	TimeLeft      int     `json:"timeLeft"`
	IsRunning     bool    `json:"isRunning"`
	IsInputMode   bool    `json:"isInputMode"`
	IsCountingUp  bool    `json:"isCountingUp"`
	IsFinished    bool    `json:"isFinished"`
	SelectedMode  *string `json:"selectedMode"`
	BaseSeconds   int     `json:"baseSeconds"`
	StartedAt     int64   `json:"startedAt,omitempty"`
	AccumulatedMs int64   `json:"accumulatedMs"`
	LabelID       string  `json:"labelId"`
	Label         string  `json:"label"`
}

type RoomSnapshot struct {
	Code            string  `json:"code"`
	RoomCode        string  `json:"roomCode"`
	Timers          []Timer `json:"timers"`
	SelectedTimerID int     `json:"selectedTimerId"`
	SelectedTimer   int     `json:"selectedTimer"`
	Version         uint64  `json:"version"`
	CreatedAt       int64   `json:"createdAt"`
	LastActivity    int64   `json:"lastActivity"`
	ServerTime      int64   `json:"serverTime"`
}

// FromSnapshot converts a registry snapshot. labels may be nil.
func FromSnapshot(s rooms.Snapshot, labels LabelResolver) RoomSnapshot {
	out := RoomSnapshot{
		Code:            s.Code,
		RoomCode:        s.Code,
		Timers:          make([]Timer, len(s.Timers)),
		SelectedTimerID: s.SelectedTimerID,
		SelectedTimer:   s.SelectedTimerID,
		Version:         s.Version,
		CreatedAt:       Millis(s.CreatedAt),
		LastActivity:    Millis(s.LastActivityAt),
		ServerTime:      Millis(s.At),
	}
	for i, t := range s.Timers {
		out.Timers[i] = fromTimer(t, s.At, labels)
	}
	return out
}

func fromTimer(t studiotimer.Timer, at time.Time, labels LabelResolver) Timer {
	w := Timer{
		ID:            t.ID,
		Phase:         string(t.Phase),
		Status:        Status(t.Phase),
		Input:         t.Input,
		TimeLeft:      studiotimer.DisplaySeconds(t, at),
		IsRunning:     t.IsRunning(),
		IsInputMode:   t.IsInputMode(),
		IsCountingUp:  t.IsCountingUp(),
		IsFinished:    t.Phase == studiotimer.PhaseFinished,
		BaseSeconds:   t.BaseSeconds,
		AccumulatedMs: t.Accumulated.Milliseconds(),
		LabelID:       t.LabelID,
	}
	if mode := t.SelectedMode(); mode != studiotimer.DirectionNone {
		m := string(mode)
		w.SelectedMode = &m
	}
	if !t.StartedAt.IsZero() {
		w.StartedAt = Millis(t.StartedAt)
	}
	if labels != nil {
		w.Label = labels.Text(t.LabelID)
	}
	return w
}

// Status names a phase the way button decks label their keys: a running
// timer is "playing".
func Status(p studiotimer.Phase) string {
	switch p {
	case studiotimer.PhaseRunning:
		return "playing"
	case studiotimer.PhasePaused:
		return "paused"
	case studiotimer.PhaseFinished:
		return "finished"
	}
	return "input"
}

// Millis converts t to Unix milliseconds; the zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// Display recomputes a timer's shown value at now from the snapshot fields
// alone, the way a display animates between server pushes.
func (t Timer) Display(now time.Time) int {
	switch studiotimer.Phase(t.Phase) {
	case studiotimer.PhaseRunning:
		elapsed := time.Duration(t.AccumulatedMs) * time.Millisecond
		if t.StartedAt > 0 {
			if d := now.Sub(time.UnixMilli(t.StartedAt)); d > 0 {
				elapsed += d
			}
		}
		return t.shift(int(elapsed / time.Second))
	case studiotimer.PhasePaused:
		return t.shift(int(t.AccumulatedMs / 1000))
	}
	return t.TimeLeft
}

func (t Timer) shift(elapsed int) int {
	if t.IsCountingUp {
		return t.BaseSeconds + elapsed
	}
	return max(t.BaseSeconds-elapsed, 0)
}

// CommandRequest is the body of a command submission. Either Command or
// Action names the command.
type CommandRequest struct {
	Command      string          `json:"command,omitempty"`
	Action       string          `json:"action,omitempty"`
	RoomCode     string          `json:"roomCode,omitempty"`
	TimerID      *int            `json:"timerId,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
	Input        *string         `json:"input,omitempty"`
	SelectedMode *string         `json:"selectedMode,omitempty"`
	LabelIndex   *int            `json:"labelIndex,omitempty"`
}

// Name returns the command name, preferring Command over Action.
func (r CommandRequest) Name() string {
	if r.Command != "" {
		return r.Command
	}
	return r.Action
}

type RoomRequest struct {
	Action   string `json:"action"`
	RoomCode string `json:"roomCode,omitempty"`
}

type RoomCreated struct {
	Success  bool         `json:"success"`
	RoomCode string       `json:"roomCode"`
	State    RoomSnapshot `json:"state"`
}

type RoomJoined struct {
	Success bool         `json:"success"`
	State   RoomSnapshot `json:"state"`
}

const (
	EventConnected = "connected"
	EventHeartbeat = "heartbeat"
	EventState     = "state"
	EventUpdate    = "update"
)

// Event is one push-channel message. Snapshot events carry the room fields
// inline next to type.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
	*RoomSnapshot
}

func Connected(now time.Time) Event { return Event{Type: EventConnected, Timestamp: Millis(now)} }
func Heartbeat(now time.Time) Event { return Event{Type: EventHeartbeat, Timestamp: Millis(now)} }

func State(s RoomSnapshot) Event  { return Event{Type: EventState, RoomSnapshot: &s} }
func Update(s RoomSnapshot) Event { return Event{Type: EventUpdate, RoomSnapshot: &s} }
