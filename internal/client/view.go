package client

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/wire"
)

// View is one observer's copy of a room. It only ever holds whole server
// snapshots and derives the shown seconds from their fields and the local
// clock, corrected by the offset to the server clock.
type View struct {
	clock clockwork.Clock

	mu     sync.RWMutex
	snap   wire.RoomSnapshot
	have   bool
	offset time.Duration
}

func NewView(clock clockwork.Clock) *View {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &View{clock: clock}
}

// Set applies snap if it is newer than the held one and reports whether it
// did. A snapshot with a different createdAt belongs to a recreated room and
// always replaces the old one.
func (v *View) Set(snap wire.RoomSnapshot) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.have && snap.CreatedAt == v.snap.CreatedAt && snap.Version < v.snap.Version {
		return false
	}
	if v.have && snap.CreatedAt == v.snap.CreatedAt && snap.Version == v.snap.Version {
		// Same state; still refresh the clock offset.
		v.syncClock(snap.ServerTime)
		return false
	}
	v.snap = snap
	v.have = true
	v.syncClock(snap.ServerTime)
	return true
}

func (v *View) syncClock(serverMs int64) {
	if serverMs > 0 {
		v.offset = time.UnixMilli(serverMs).Sub(v.clock.Now())
	}
}

// Snapshot returns the held snapshot and whether one has been set.
func (v *View) Snapshot() (wire.RoomSnapshot, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap, v.have
}

// Offset is the estimated server clock minus the local clock.
func (v *View) Offset() time.Duration {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.offset
}

// ServerNow is the local clock moved onto the server's timeline.
func (v *View) ServerNow() time.Time {
	return v.clock.Now().Add(v.Offset())
}

// Seconds is what timer id shows right now. Unknown ids show 0.
func (v *View) Seconds(id int) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, t := range v.snap.Timers {
		if t.ID == id {
			return t.Display(v.clock.Now().Add(v.offset))
		}
	}
	return 0
}
