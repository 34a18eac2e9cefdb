package display

import tea "github.com/charmbracelet/bubbletea"

// Keys handled locally rather than forwarded.
const (
	KeyQuit  = "q"
	KeyCtrlC = "ctrl+c"
)

// browserKeys maps terminal key names onto the browser key names the server
// understands. Digits are handled separately.
var browserKeys = map[string]string{
	"enter":     "Enter",
	" ":         " ",
	"backspace": "Backspace",
	"delete":    "Delete",
	"esc":       "Escape",
	"up":        "ArrowUp",
	"down":      "ArrowDown",
	"+":         "+",
	"=":         "+",
	"-":         "-",
}

// browserKey returns the key name to send for msg, or "" when the key is
// not forwarded.
func browserKey(msg tea.KeyMsg) string {
	s := msg.String()
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return "Digit" + s
	}
	return browserKeys[s]
}
