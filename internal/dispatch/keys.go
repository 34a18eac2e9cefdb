package dispatch

import (
	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/studiotimer"
)

// Key names follow the browser KeyboardEvent.key / code values that control
// surfaces send.
var keyMap = map[string]func() rooms.Command{
	"+":              timerKey(studiotimer.SelectDirection(studiotimer.DirectionUp)),
	"NumpadAdd":      timerKey(studiotimer.SelectDirection(studiotimer.DirectionUp)),
	"-":              timerKey(studiotimer.SelectDirection(studiotimer.DirectionDown)),
	"NumpadSubtract": timerKey(studiotimer.SelectDirection(studiotimer.DirectionDown)),
	"Backspace":      timerKey(studiotimer.Backspace()),
	"Delete":         timerKey(studiotimer.Reset()),
	"Escape":         timerKey(studiotimer.Reset()),
	"Enter":          timerKey(studiotimer.Toggle()),
	"NumpadEnter":    timerKey(studiotimer.Toggle()),
	" ":              timerKey(studiotimer.Toggle()),
	"Space":          timerKey(studiotimer.Toggle()),
	"ArrowUp":        rooms.SelectPrev,
	"ArrowDown":      rooms.SelectNext,
}

func timerKey(c studiotimer.Command) func() rooms.Command {
	return func() rooms.Command { return rooms.TimerCommand(nil, c) }
}

// FromKey maps one key press to a command. Timer commands go to target, or
// to the room's selected timer when target is nil.
func FromKey(key string, target *int) (rooms.Command, error) {
	if d, ok := digitKey(key); ok {
		return rooms.TimerCommand(target, studiotimer.Digit(d)), nil
	}
	mk, ok := keyMap[key]
	if !ok {
		return rooms.Command{}, invalid("unmapped key %q", key)
	}
	cmd := mk()
	if cmd.Op == rooms.OpTimer {
		cmd.Target = target
	}
	return cmd, nil
}

// digitKey accepts "7", "Digit7" and "Numpad7".
func digitKey(key string) (int, bool) {
	for _, prefix := range []string{"", "Digit", "Numpad"} {
		if len(key) == len(prefix)+1 && key[:len(prefix)] == prefix {
			c := key[len(prefix)]
			if c >= '0' && c <= '9' {
				return int(c - '0'), true
			}
		}
	}
	return 0, false
}
