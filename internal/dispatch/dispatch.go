// Package dispatch turns control-surface input into registry commands. Every
// path ends in exactly one rooms.Command; nothing here touches timer state.
package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/playperu/cuetimer/internal/labels"
	"github.com/playperu/cuetimer/internal/rooms"
	"github.com/playperu/cuetimer/internal/studiotimer"
	"github.com/playperu/cuetimer/internal/wire"
)

var ErrInvalidCommand = errors.New("invalid command")

// LabelSource resolves label references carried by setLabel.
type LabelSource interface {
	Get(id string) (labels.Label, error)
	At(pos int) (labels.Label, error)
}

// FromRequest validates a command submission and maps its name, including
// the legacy aliases, to a canonical command.
func FromRequest(req wire.CommandRequest, ls LabelSource) (rooms.Command, error) {
	target := req.TimerID
	timer := func(c studiotimer.Command) (rooms.Command, error) {
		return rooms.TimerCommand(target, c), nil
	}

	switch name := req.Name(); name {
	case "number", "digit":
		d, ok := intValue(req.Value)
		if !ok || d < 0 || d > 9 {
			return rooms.Command{}, invalid("%s needs a digit value", name)
		}
		return timer(studiotimer.Digit(d))

	case "backspace":
		return timer(studiotimer.Backspace())

	case "modeUp":
		return timer(studiotimer.SelectDirection(studiotimer.DirectionUp))
	case "modeDown":
		return timer(studiotimer.SelectDirection(studiotimer.DirectionDown))
	case "selectMode":
		raw := req.SelectedMode
		if raw == nil {
			if s, ok := stringValue(req.Value); ok {
				raw = &s
			}
		}
		if raw == nil {
			return rooms.Command{}, invalid("selectMode needs a mode")
		}
		dir, err := ParseDirection(*raw)
		if err != nil {
			return rooms.Command{}, err
		}
		return timer(studiotimer.SelectDirection(dir))

	case "enter", "start", "commit":
		dir := studiotimer.DirectionNone
		if req.SelectedMode != nil {
			var err error
			if dir, err = ParseDirection(*req.SelectedMode); err != nil {
				return rooms.Command{}, err
			}
		}
		switch {
		case req.Input != nil:
			return timer(studiotimer.CommitWith(*req.Input, dir))
		case dir != studiotimer.DirectionNone:
			return timer(studiotimer.CommitMode(dir))
		}
		return timer(studiotimer.Commit())

	case "pause":
		return timer(studiotimer.Pause())
	case "pauseResume", "toggle":
		return timer(studiotimer.Toggle())
	case "delete", "reset":
		return timer(studiotimer.Reset())
	case "timerFinished", "finish":
		return timer(studiotimer.Finish())

	case "setLabel", "updateLabel":
		id, err := labelID(req, ls)
		if err != nil {
			return rooms.Command{}, err
		}
		return timer(studiotimer.SetLabel(id))

	case "setTime", "syncInput", "setInput":
		var digits string
		switch {
		case req.Input != nil:
			digits = *req.Input
		default:
			s, ok := stringValue(req.Value)
			if !ok {
				n, isInt := intValue(req.Value)
				if !isInt || n < 0 {
					return rooms.Command{}, invalid("%s needs input digits", name)
				}
				s = strconv.Itoa(n)
			}
			digits = s
		}
		return timer(studiotimer.SetInput(digits))

	case "selectTimer":
		n, ok := intValue(req.Value)
		if !ok {
			if req.TimerID == nil {
				return rooms.Command{}, invalid("selectTimer needs a timer index")
			}
			n = *req.TimerID
		}
		return rooms.SelectTimer(n), nil
	case "selectNext":
		return rooms.SelectNext(), nil
	case "selectPrev":
		return rooms.SelectPrev(), nil
	case "resetBoth", "resetAll":
		return rooms.ResetAll(), nil

	case "key":
		key, ok := stringValue(req.Value)
		if !ok {
			return rooms.Command{}, invalid("key needs a key name")
		}
		return FromKey(key, target)

	case "":
		return rooms.Command{}, invalid("missing command")
	default:
		return rooms.Command{}, invalid("unknown command %q", name)
	}
}

// ParseDirection accepts "up" or "down" in any case. An empty string means
// no preference.
func ParseDirection(s string) (studiotimer.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return studiotimer.DirectionNone, nil
	case "up":
		return studiotimer.DirectionUp, nil
	case "down":
		return studiotimer.DirectionDown, nil
	}
	return studiotimer.DirectionNone, invalid("unknown mode %q", s)
}

// labelID resolves the label a setLabel request points at. labelIndex and
// numeric values are 1-based positions in the ordered label list; a string
// value must name an existing label, and "" or null clears it.
func labelID(req wire.CommandRequest, ls LabelSource) (string, error) {
	pos, byPos := 0, false
	if req.LabelIndex != nil {
		pos, byPos = *req.LabelIndex, true
	} else if n, ok := numberValue(req.Value); ok {
		pos, byPos = n, true
	}

	if byPos {
		if ls == nil {
			return "", invalid("labels unavailable")
		}
		l, err := ls.At(pos)
		if err != nil {
			return "", fmt.Errorf("%w: label %d: %w", ErrInvalidCommand, pos, err)
		}
		return l.ID, nil
	}

	if isNull(req.Value) {
		return "", nil
	}
	id, ok := stringValue(req.Value)
	if !ok {
		return "", invalid("setLabel needs a label id or index")
	}
	if id == "" {
		return "", nil
	}
	if ls == nil {
		return "", invalid("labels unavailable")
	}
	if _, err := ls.Get(id); err != nil {
		return "", fmt.Errorf("%w: label %q: %w", ErrInvalidCommand, id, err)
	}
	return id, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCommand, fmt.Sprintf(format, args...))
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func numberValue(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// intValue accepts a JSON integer or a string holding one.
func intValue(raw json.RawMessage) (int, bool) {
	if n, ok := numberValue(raw); ok {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func stringValue(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
