package studiotimer

import "time"

// Apply computes the next state of t for cmd. It is total: commands whose
// precondition does not hold return t unchanged.
func Apply(t Timer, cmd Command, now time.Time) Timer {
	switch cmd.Kind {
	case CmdDigit:
		return pressDigit(t, cmd.Digit)
	case CmdBackspace:
		if t.Phase == PhaseInput && t.Input != "" {
			t.Input = t.Input[:len(t.Input)-1]
		}
		return t
	case CmdSelectDirection:
		if t.Phase == PhaseInput && (cmd.Direction == DirectionUp || cmd.Direction == DirectionDown) {
			t.PendingDirection = cmd.Direction
		}
		return t
	case CmdCommit:
		return commit(t, cmd, now)
	case CmdPause:
		return pause(t, now)
	case CmdToggle:
		if t.Phase == PhaseRunning {
			return pause(t, now)
		}
		return commit(t, Commit(), now)
	case CmdReset:
		return Timer{ID: t.ID, Phase: PhaseInput, LabelID: t.LabelID}
	case CmdSetLabel:
		t.LabelID = cmd.LabelID
		return t
	case CmdSetInput:
		return setInput(t, cmd.Input)
	case CmdTick:
		if t.Phase == PhaseRunning && Expired(t, now) {
			return finish(t)
		}
		return t
	case CmdFinish:
		if t.Phase == PhaseRunning || t.Phase == PhasePaused {
			return finish(t)
		}
		return t
	}
	return t
}

func pressDigit(t Timer, d int) Timer {
	if d < 0 || d > 9 {
		return t
	}
	digit := string(rune('0' + d))
	if t.Phase != PhaseInput {
		return Timer{ID: t.ID, Phase: PhaseInput, Input: digit, LabelID: t.LabelID}
	}
	if len(t.Input) >= MaxInputDigits {
		return t
	}
	t.Input += digit
	return t
}

func commit(t Timer, cmd Command, now time.Time) Timer {
	switch t.Phase {
	case PhaseInput:
		input, dir := t.Input, t.PendingDirection
		if cmd.HasInput {
			input = truncateDigits(cmd.Input)
		}
		if cmd.Direction != DirectionNone {
			dir = cmd.Direction
		}
		seconds := ParseDigits(input)
		switch {
		case seconds == 0:
			dir = DirectionUp
		case dir == DirectionNone:
			dir = DirectionDown
		}
		return Timer{
			ID:          t.ID,
			Phase:       PhaseRunning,
			Direction:   dir,
			BaseSeconds: seconds,
			StartedAt:   now,
			LabelID:     t.LabelID,
		}
	case PhasePaused:
		t.Phase = PhaseRunning
		t.StartedAt = now
		return t
	case PhaseFinished:
		return Timer{
			ID:        t.ID,
			Phase:     PhaseRunning,
			Direction: DirectionUp,
			StartedAt: now,
			LabelID:   t.LabelID,
		}
	}
	return t
}

func pause(t Timer, now time.Time) Timer {
	if t.Phase != PhaseRunning {
		return t
	}
	// A count-down paused after its deadline finishes instead.
	if Expired(t, now) {
		return finish(t)
	}
	t.Accumulated = Elapsed(t, now)
	t.Phase = PhasePaused
	return t
}

func setInput(t Timer, input string) Timer {
	switch t.Phase {
	case PhaseInput:
		t.Input = truncateDigits(input)
		return t
	case PhaseFinished:
		return Timer{ID: t.ID, Phase: PhaseInput, Input: truncateDigits(input), LabelID: t.LabelID}
	}
	return t
}

func finish(t Timer) Timer {
	return Timer{ID: t.ID, Phase: PhaseFinished, LabelID: t.LabelID}
}

func truncateDigits(s string) string {
	d := digitsOnly(s)
	if len(d) > MaxInputDigits {
		d = d[:MaxInputDigits]
	}
	return d
}
