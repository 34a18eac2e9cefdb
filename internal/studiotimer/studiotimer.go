// Package studiotimer defines the timer entity and its transition engine.
// It has zero external dependencies: every function is pure and takes the
// current wall-clock time as a parameter.
package studiotimer

import "time"

type Phase string

const (
	PhaseInput    Phase = "input"
	PhaseRunning  Phase = "running"
	PhasePaused   Phase = "paused"
	PhaseFinished Phase = "finished"
)

type Direction string

const (
	DirectionNone Direction = ""
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Timer is one countdown/count-up slot. Input and PendingDirection are only
// meaningful in PhaseInput; Direction, BaseSeconds, Accumulated and StartedAt
// only in PhaseRunning and PhasePaused. LabelID survives every transition
// except SetLabel.
type Timer struct {
	ID               int
	Phase            Phase
	Input            string
	PendingDirection Direction
	Direction        Direction
	BaseSeconds      int
	Accumulated      time.Duration
	StartedAt        time.Time
	LabelID          string
}

// New returns a timer in PhaseInput with no digits entered.
func New(id int) Timer {
	return Timer{ID: id, Phase: PhaseInput}
}

func (t Timer) IsRunning() bool   { return t.Phase == PhaseRunning }
func (t Timer) IsInputMode() bool { return t.Phase == PhaseInput }

func (t Timer) IsCountingUp() bool {
	return (t.Phase == PhaseRunning || t.Phase == PhasePaused) && t.Direction == DirectionUp
}

// SelectedMode is the direction a control surface should highlight: the
// pending choice while entering digits, the committed one afterwards.
func (t Timer) SelectedMode() Direction {
	switch t.Phase {
	case PhaseInput:
		return t.PendingDirection
	case PhaseRunning, PhasePaused:
		return t.Direction
	}
	return DirectionNone
}
