package rooms

import (
	"slices"
	"time"

	"github.com/playperu/cuetimer/internal/studiotimer"
)

// Room is one collaboration session. It exclusively owns its timers.
type Room struct {
	Code            string
	Timers          []studiotimer.Timer
	SelectedTimerID int
	Version         uint64
	CreatedAt       time.Time
	LastActivityAt  time.Time

	// Pinned rooms are the well-known defaults seeded at startup; they are
	// never evicted.
	Pinned bool
}

func newRoom(code string, timers int, now time.Time) Room {
	r := Room{
		Code:           code,
		Timers:         make([]studiotimer.Timer, timers),
		CreatedAt:      now,
		LastActivityAt: now,
	}
	for i := range r.Timers {
		r.Timers[i] = studiotimer.New(i)
	}
	return r
}

func (r Room) clone() Room {
	r.Timers = slices.Clone(r.Timers)
	return r
}

// Snapshot is an immutable copy of a room taken at instant At.
type Snapshot struct {
	Code            string
	Timers          []studiotimer.Timer
	SelectedTimerID int
	Version         uint64
	CreatedAt       time.Time
	LastActivityAt  time.Time
	At              time.Time
}

func (r Room) snapshot(at time.Time) Snapshot {
	return Snapshot{
		Code:            r.Code,
		Timers:          slices.Clone(r.Timers),
		SelectedTimerID: r.SelectedTimerID,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		LastActivityAt:  r.LastActivityAt,
		At:              at,
	}
}

// Display returns the value timer i shows at the snapshot instant.
func (s Snapshot) Display(i int) int {
	if i < 0 || i >= len(s.Timers) {
		return 0
	}
	return studiotimer.DisplaySeconds(s.Timers[i], s.At)
}

func (r Room) usesLabel(id string) bool {
	for _, t := range r.Timers {
		if t.LabelID == id {
			return true
		}
	}
	return false
}
