package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/crapp/labpowerqt-sub000/internal/tui/colors"
	"github.com/crapp/labpowerqt-sub000/psu"
)

// EventMsg carries a session event into the bubbletea loop.
type EventMsg struct {
	Timestamp time.Time
	Event     psu.Event
}

// NoteMsg is a line the screen itself writes to the log, e.g. a parse error.
type NoteMsg struct {
	Timestamp time.Time
	Text      string
	Err       bool
}

type EventFormatter struct {
	showRaw bool
}

func NewEventFormatter(showRaw bool) *EventFormatter {
	return &EventFormatter{showRaw: showRaw}
}

func (f *EventFormatter) ToggleRaw() {
	f.showRaw = !f.showRaw
}

func (f *EventFormatter) ShowRaw() bool {
	return f.showRaw
}

func stamp(t time.Time) string {
	return lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(fmt.Sprintf("[%s]", t.Format("15:04:05.000")))
}

func marker(symbol string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(symbol)
}

// Format renders a log line for msg. Status updates are shown in the
// channel table instead and report false.
func (f *EventFormatter) Format(msg EventMsg) (string, bool) {
	var line string
	switch e := msg.Event.(type) {
	case psu.StatusReady:
		return "", false
	case psu.DeviceOpen:
		line = marker("●", colors.Green) + " opened " + e.Device
	case psu.ErrorOpen:
		line = marker("✗", colors.Fault) + " " + e.Error()
	case psu.ErrorReadWrite:
		line = marker("✗", colors.Fault) + " " + e.Error()
	case psu.BackgroundStopped:
		line = marker("○", colors.Overlay0) + " worker stopped"
	case psu.RequestFinished:
		line = f.formatCommand(e.Command)
	default:
		return "", false
	}
	return stamp(msg.Timestamp) + " " + line, true
}

func (f *EventFormatter) formatCommand(cmd *psu.Command) string {
	var b strings.Builder
	target := cmd.Kind.String()
	if cmd.Channel > 0 {
		target += fmt.Sprintf(" ch%d", cmd.Channel)
	}

	switch {
	case cmd.Result.Err != nil:
		b.WriteString(marker("✗", colors.Fault))
		fmt.Fprintf(&b, " %s: %v", target, cmd.Result.Err)
	case cmd.Kind.IsQuery():
		b.WriteString(marker("↙", colors.Sky))
		fmt.Fprintf(&b, " %s = %s", target, cmd.Result.Value)
	default:
		b.WriteString(marker("↗", colors.Green))
		fmt.Fprintf(&b, " %s %s ✓", target, cmd.Value)
	}

	if f.showRaw && len(cmd.Result.Raw) > 0 {
		fmt.Fprintf(&b, "  HEX: % X  ASCII: %s", cmd.Result.Raw, printable(cmd.Result.Raw))
	}
	return b.String()
}

// FormatNote renders a line the screen wrote itself.
func (f *EventFormatter) FormatNote(msg NoteMsg) string {
	if msg.Err {
		return stamp(msg.Timestamp) + " " + marker("!", colors.Fault) + " " + msg.Text
	}
	return stamp(msg.Timestamp) + " " + marker("›", colors.Mauve) + " " + msg.Text
}

// printable replaces control characters with dots.
func printable(data []byte) string {
	out := make([]byte, len(data))
	for i, c := range data {
		if c >= 32 && c <= 126 {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
