package studiotimer

import "time"

// Elapsed is the counted time of a run: everything accumulated before the
// last pause plus the wall-clock time since the current segment started.
// It is derived from stored fields only, never from counting ticks.
func Elapsed(t Timer, now time.Time) time.Duration {
	switch t.Phase {
	case PhaseRunning:
		since := now.Sub(t.StartedAt)
		if since < 0 {
			since = 0
		}
		return t.Accumulated + since
	case PhasePaused:
		return t.Accumulated
	}
	return 0
}

// DisplaySeconds is the value a control surface shows at instant now.
// Count-downs clamp at zero.
func DisplaySeconds(t Timer, now time.Time) int {
	if t.Phase != PhaseRunning && t.Phase != PhasePaused {
		return 0
	}
	elapsed := int(Elapsed(t, now) / time.Second)
	if t.Direction == DirectionUp {
		return t.BaseSeconds + elapsed
	}
	if left := t.BaseSeconds - elapsed; left > 0 {
		return left
	}
	return 0
}

// Expired reports whether a count-down has reached zero at now.
func Expired(t Timer, now time.Time) bool {
	if t.Phase != PhaseRunning && t.Phase != PhasePaused {
		return false
	}
	return t.Direction == DirectionDown && DisplaySeconds(t, now) <= 0
}

// Deadline is the instant a running count-down reaches zero.
func Deadline(t Timer) (time.Time, bool) {
	if t.Phase != PhaseRunning || t.Direction != DirectionDown {
		return time.Time{}, false
	}
	remaining := time.Duration(t.BaseSeconds)*time.Second - t.Accumulated
	return t.StartedAt.Add(remaining), true
}
