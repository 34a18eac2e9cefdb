// Package display is a terminal control surface for one room. It shows the
// room's timers and forwards key presses to the server as key commands.
package display

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"github.com/playperu/cuetimer/internal/client"
	"github.com/playperu/cuetimer/internal/studiotimer"
	"github.com/playperu/cuetimer/internal/wire"
)

const (
	frameInterval = 100 * time.Millisecond
	sendTimeout   = 5 * time.Second
)

// KeySender forwards a key press to the room.
type KeySender interface {
	Key(ctx context.Context, code, key string, timerID *int) (wire.RoomSnapshot, error)
}

// Model is the root bubbletea model.
type Model struct {
	sender  KeySender
	code    string
	view    *client.View
	overlay *client.Overlay

	connected    bool
	ended        bool
	statusText   string
	errorMessage string

	width  int
	height int
}

// New returns a model for room code. clock may be nil.
func New(sender KeySender, code string, clock clockwork.Clock) Model {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return Model{
		sender:     sender,
		code:       code,
		view:       client.NewView(clock),
		overlay:    client.NewOverlay(clock, client.DefaultPredictionTTL),
		statusText: "Connecting...",
	}
}

func (m Model) Init() tea.Cmd {
	return frameCmd()
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return FrameMsg{} })
}

func clearErrorCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return ClearErrorMsg{} })
}

func sendKeyCmd(sender KeySender, code, key string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		snap, err := sender.Key(ctx, code, key, nil)
		return KeySentMsg{Key: key, Snapshot: snap, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case EventMsg:
		switch msg.Event.Type {
		case wire.EventConnected:
			m.connected = true
			m.statusText = "Live"
		case wire.EventHeartbeat:
			m.connected = true
		}
		if msg.Event.RoomSnapshot != nil {
			m.view.Set(*msg.Event.RoomSnapshot)
		}
		return m, nil

	case SnapshotMsg:
		m.connected = true
		m.statusText = "Polling"
		m.view.Set(msg.Snapshot)
		return m, nil

	case KeySentMsg:
		if msg.Err != nil {
			m.errorMessage = fmt.Sprintf("%s: %v", msg.Key, msg.Err)
			return m, clearErrorCmd()
		}
		m.view.Set(msg.Snapshot)
		return m, nil

	case FollowEndedMsg:
		m.connected = false
		m.ended = true
		m.statusText = "Disconnected"
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
		}
		return m, nil

	case FrameMsg:
		return m, frameCmd()

	case ClearErrorMsg:
		m.errorMessage = ""
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyCtrlC:
		return m, tea.Quit
	}

	key := browserKey(msg)
	if key == "" || m.ended {
		return m, nil
	}
	m.predict(key)
	return m, sendKeyCmd(m.sender, m.code, key)
}

// predict updates the overlay for keys whose effect the display can show
// before the server answers.
func (m Model) predict(key string) {
	snap, ok := m.view.Snapshot()
	if !ok || len(snap.Timers) == 0 {
		return
	}
	snap = m.overlay.Apply(snap)
	sel := snap.SelectedTimerID
	n := len(snap.Timers)

	switch key {
	case "ArrowUp":
		m.overlay.PredictSelection((sel - 1 + n) % n)
	case "ArrowDown":
		m.overlay.PredictSelection((sel + 1) % n)
	case "Backspace":
		if t, ok := timerByID(snap, sel); ok && t.IsInputMode && t.Input != "" {
			m.overlay.PredictInput(sel, t.Input[:len(t.Input)-1])
		}
	default:
		if !strings.HasPrefix(key, "Digit") {
			return
		}
		digit := strings.TrimPrefix(key, "Digit")
		t, ok := timerByID(snap, sel)
		switch {
		case !ok:
		case !t.IsInputMode:
			// A digit outside input mode starts a new entry.
			m.overlay.PredictInput(sel, digit)
		case len(t.Input) < studiotimer.MaxInputDigits:
			m.overlay.PredictInput(sel, t.Input+digit)
		}
	}
}

func timerByID(snap wire.RoomSnapshot, id int) (wire.Timer, bool) {
	for _, t := range snap.Timers {
		if t.ID == id {
			return t, true
		}
	}
	return wire.Timer{}, false
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ROOM " + m.code))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.statusText))
	b.WriteString("\n\n")

	snap, ok := m.view.Snapshot()
	if !ok {
		b.WriteString(statusStyle.Render("waiting for room state"))
		b.WriteString("\n")
	} else {
		snap = m.overlay.Apply(snap)
		for _, t := range snap.Timers {
			b.WriteString(m.renderTimer(t, t.ID == snap.SelectedTimerID))
			b.WriteString("\n")
		}
	}

	if m.errorMessage != "" {
		b.WriteString(errorStyle.Render(m.errorMessage))
		b.WriteString("\n")
	}
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderTimer(t wire.Timer, selected bool) string {
	var clock string
	if t.IsInputMode {
		clock = studiotimer.FormatInput(t.Input)
	} else {
		clock = studiotimer.FormatSeconds(m.view.Seconds(t.ID))
	}

	phase := strings.ToUpper(t.Phase)
	if t.SelectedMode != nil {
		phase += " " + arrow(*t.SelectedMode)
	} else if !t.IsInputMode && t.IsCountingUp {
		phase += " " + arrow(string(studiotimer.DirectionUp))
	}
	style, ok := phaseStyles[t.Phase]
	if !ok {
		style = statusStyle
	}

	row := lipgloss.JoinHorizontal(lipgloss.Center,
		labelStyle.Render(t.Label),
		timeStyle.Render(clock),
		"  ",
		style.Render(phase),
	)
	if selected {
		return selectedRowStyle.Render(row)
	}
	return rowStyle.Render(row)
}

func arrow(dir string) string {
	if dir == string(studiotimer.DirectionUp) {
		return "▲"
	}
	return "▼"
}

func (m Model) renderFooter() string {
	keys := []struct{ key, desc string }{
		{"0-9", "digits"},
		{"enter", "start/pause"},
		{"+/-", "up/down"},
		{"esc", "reset"},
		{"↑/↓", "select"},
		{"q", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = footerKeyStyle.Render(k.key) + " " + footerDescStyle.Render(k.desc)
	}
	return strings.Join(parts, "  ")
}
