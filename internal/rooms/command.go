package rooms

import (
	"errors"
	"time"

	"github.com/playperu/cuetimer/internal/studiotimer"
)

var (
	ErrNotFound     = errors.New("room not found")
	ErrInvalidTimer = errors.New("invalid timer id")
)

type Op int

const (
	// OpTimer applies a timer command to Target, or to the selected timer
	// when Target is nil.
	OpTimer Op = iota
	OpSelectTimer
	OpSelectNext
	OpSelectPrev
	OpResetAll
)

func (o Op) String() string {
	switch o {
	case OpTimer:
		return "timer"
	case OpSelectTimer:
		return "selectTimer"
	case OpSelectNext:
		return "selectNext"
	case OpSelectPrev:
		return "selectPrev"
	case OpResetAll:
		return "resetAll"
	}
	return "unknown"
}

// Command is a room-level instruction.
type Command struct {
	Op     Op
	Target *int
	Index  int
	Timer  studiotimer.Command
}

func TimerCommand(target *int, c studiotimer.Command) Command {
	return Command{Op: OpTimer, Target: target, Timer: c}
}

func SelectTimer(index int) Command { return Command{Op: OpSelectTimer, Index: index} }
func SelectNext() Command           { return Command{Op: OpSelectNext} }
func SelectPrev() Command           { return Command{Op: OpSelectPrev} }
func ResetAll() Command             { return Command{Op: OpResetAll} }

// Name is used for logging.
func (c Command) Name() string {
	if c.Op == OpTimer {
		return string(c.Timer.Kind)
	}
	return c.Op.String()
}

// applyCommand computes the next room value. room is not modified.
func applyCommand(room Room, cmd Command, now time.Time) (Room, error) {
	next := room.clone()
	n := len(next.Timers)

	switch cmd.Op {
	case OpTimer:
		id := next.SelectedTimerID
		if cmd.Target != nil {
			id = *cmd.Target
		}
		if id < 0 || id >= n {
			return room, ErrInvalidTimer
		}
		next.Timers[id] = studiotimer.Apply(next.Timers[id], cmd.Timer, now)
	case OpSelectTimer:
		if cmd.Index >= 0 && cmd.Index < n {
			next.SelectedTimerID = cmd.Index
		}
	case OpSelectNext:
		if n > 0 {
			next.SelectedTimerID = (next.SelectedTimerID + 1) % n
		}
	case OpSelectPrev:
		if n > 0 {
			next.SelectedTimerID = (next.SelectedTimerID - 1 + n) % n
		}
	case OpResetAll:
		for i := range next.Timers {
			next.Timers[i] = studiotimer.Apply(next.Timers[i], studiotimer.Reset(), now)
		}
	}
	return next, nil
}

// reconcile finishes every running count-down whose deadline has passed.
func reconcile(room Room, now time.Time) Room {
	next := room.clone()
	for i := range next.Timers {
		next.Timers[i] = studiotimer.Apply(next.Timers[i], studiotimer.Tick(), now)
	}
	return next
}

// changed reports whether the observable room state differs. Bookkeeping
// fields (version, activity time) are not compared.
func changed(a, b Room) bool {
	if a.SelectedTimerID != b.SelectedTimerID || len(a.Timers) != len(b.Timers) {
		return true
	}
	for i := range a.Timers {
		if a.Timers[i] != b.Timers[i] {
			return true
		}
	}
	return false
}
