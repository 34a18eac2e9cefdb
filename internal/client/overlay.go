package client

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/wire"
)

// DefaultPredictionTTL is how long a local prediction masks server state.
const DefaultPredictionTTL = time.Second

// Field names what a prediction overrides.
type Field int

const (
	FieldInput Field = iota + 1
	FieldLabel
	FieldSelection
)

type predictionKey struct {
	timer int
	field Field
}

type prediction struct {
	at      time.Time
	input   string
	labelID string
	label   string
}

// Overlay holds short-lived local predictions made while a command is in
// flight. Each one expires on its own after the TTL whether or not the
// server has answered, so a lost request can never pin stale state.
type Overlay struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[predictionKey]prediction
}

func NewOverlay(clock clockwork.Clock, ttl time.Duration) *Overlay {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultPredictionTTL
	}
	return &Overlay{clock: clock, ttl: ttl, entries: make(map[predictionKey]prediction)}
}

// PredictInput records typed digits for a timer in input mode.
func (o *Overlay) PredictInput(timerID int, input string) {
	o.put(predictionKey{timerID, FieldInput}, prediction{input: input})
}

// PredictLabel records a label choice. text is what the label shows.
func (o *Overlay) PredictLabel(timerID int, labelID, text string) {
	o.put(predictionKey{timerID, FieldLabel}, prediction{labelID: labelID, label: text})
}

// PredictSelection records a change of the selected timer.
func (o *Overlay) PredictSelection(timerID int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k := range o.entries {
		if k.field == FieldSelection {
			delete(o.entries, k)
		}
	}
	o.entries[predictionKey{timerID, FieldSelection}] = prediction{at: o.clock.Now()}
}

func (o *Overlay) put(k predictionKey, p prediction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p.at = o.clock.Now()
	o.entries[k] = p
}

// Active reports whether a prediction for field on timerID is still live.
func (o *Overlay) Active(timerID int, f Field) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expire()
	_, ok := o.entries[predictionKey{timerID, f}]
	return ok
}

// Len is the number of live predictions.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expire()
	return len(o.entries)
}

// Apply lays the live predictions over a server snapshot. The input is not
// modified; timers only show a predicted input while still in input mode.
func (o *Overlay) Apply(snap wire.RoomSnapshot) wire.RoomSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.expire()
	if len(o.entries) == 0 {
		return snap
	}

	out := snap
	out.Timers = append([]wire.Timer(nil), snap.Timers...)
	for k, p := range o.entries {
		switch k.field {
		case FieldSelection:
			out.SelectedTimerID = k.timer
			out.SelectedTimer = k.timer
		case FieldInput, FieldLabel:
			for i := range out.Timers {
				t := &out.Timers[i]
				if t.ID != k.timer {
					continue
				}
				if k.field == FieldInput && t.IsInputMode {
					t.Input = p.input
				}
				if k.field == FieldLabel {
					t.LabelID = p.labelID
					t.Label = p.label
				}
			}
		}
	}
	return out
}

func (o *Overlay) expire() {
	now := o.clock.Now()
	for k, p := range o.entries {
		if now.Sub(p.at) >= o.ttl {
			delete(o.entries, k)
		}
	}
}
