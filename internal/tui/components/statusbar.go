package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/crapp/labpowerqt-sub000/internal/tui/colors"
	"github.com/crapp/labpowerqt-sub000/internal/tui/styles"
	"github.com/crapp/labpowerqt-sub000/psu"
	"github.com/crapp/labpowerqt-sub000/serial"
)

// StatusBar is the bottom line of the watch screen: input mode, device,
// session state, line settings, protection flags and poll timing.
type StatusBar struct {
	device         string
	line           serial.Config
	identification string
	state          psu.State
	err            error
	queueLen       int
	lastPoll       time.Time
	pollDuration   time.Duration
	flags          []string
	width          int
}

func NewStatusBar(device string, line serial.Config) *StatusBar {
	return &StatusBar{device: device, line: line}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetIdentification(id string) {
	sb.identification = id
}

// SetState records the session state. err is shown until the next state
// change without an error.
func (sb *StatusBar) SetState(state psu.State, err error) {
	sb.state = state
	if err != nil || (state != psu.StateErrorOpen && state != psu.StateErrorReadWrite) {
		sb.err = err
	}
}

func (sb *StatusBar) State() psu.State {
	return sb.state
}

func (sb *StatusBar) Err() error {
	return sb.err
}

func (sb *StatusBar) SetQueueLen(n int) {
	sb.queueLen = n
}

// SetSnapshot takes poll timing and device-wide flags from snap.
func (sb *StatusBar) SetSnapshot(snap psu.Snapshot) {
	sb.lastPoll = snap.Time
	sb.pollDuration = snap.Duration

	sb.flags = sb.flags[:0]
	for _, f := range []struct {
		name string
		on   *bool
	}{
		{"OVP", snap.OVP}, {"OCP", snap.OCP}, {"OTP", snap.OTP},
		{"LOCK", snap.Locked}, {"BEEP", snap.Beeper},
	} {
		if f.on != nil && *f.on {
			sb.flags = append(sb.flags, f.name)
		}
	}
	if snap.Tracking != nil && *snap.Tracking != psu.TrackingIndependent {
		sb.flags = append(sb.flags, strings.ToUpper(snap.Tracking.String()))
	}
}

// Flags returns the active device-wide flags.
func (sb *StatusBar) Flags() []string {
	return sb.flags
}

func (sb *StatusBar) View(inputMode string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeColor := colors.Blue
	if inputMode == "COMMAND" {
		modeColor = colors.Mauve
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(modeColor).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)

	device := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.device)

	stateStyle := styles.StateStyle(sb.state)
	state := stateStyle.Render(styles.StateIndicator(sb.state) + " " + sb.state.String())
	if sb.err != nil {
		state += " " + styles.ErrorStyle.Render(sb.err.Error())
	}

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	left := lipgloss.JoinHorizontal(lipgloss.Left, mode, device, state, divider)

	var info []string
	if sb.identification != "" {
		info = append(info, sb.identification)
	}
	info = append(info, "⚡ "+sb.line.String())
	if len(sb.flags) > 0 {
		info = append(info, strings.Join(sb.flags, " "))
	}
	info = append(info, fmt.Sprintf("queue %d", sb.queueLen))
	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(strings.Join(info, " · "))

	poll := "no poll yet"
	if !sb.lastPoll.IsZero() {
		poll = fmt.Sprintf("%s (%s)", sb.lastPoll.Format("15:04:05"), sb.pollDuration.Round(time.Millisecond))
	}
	timing := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(poll)

	right := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, timing)

	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right))
}
