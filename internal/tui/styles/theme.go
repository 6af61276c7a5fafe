package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/crapp/labpowerqt-sub000/internal/tui/colors"
	"github.com/crapp/labpowerqt-sub000/psu"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Fault)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)

	VoltageStyle = lipgloss.NewStyle().Foreground(colors.Voltage).Bold(true)
	CurrentStyle = lipgloss.NewStyle().Foreground(colors.Current).Bold(true)
	PowerStyle   = lipgloss.NewStyle().Foreground(colors.Power)
)

// StateStyle colors the session state indicator.
func StateStyle(state psu.State) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch state {
	case psu.StatePolling, psu.StateCommandInFlight:
		return base.Foreground(colors.Green)
	case psu.StateOpening, psu.StateIdentifying:
		return base.Foreground(colors.Yellow)
	case psu.StateErrorOpen, psu.StateErrorReadWrite:
		return base.Foreground(colors.Fault)
	default:
		return base.Foreground(colors.Overlay0)
	}
}

// StateIndicator is the one character connection marker.
func StateIndicator(state psu.State) string {
	switch state {
	case psu.StatePolling, psu.StateCommandInFlight:
		return "●"
	case psu.StateErrorOpen, psu.StateErrorReadWrite:
		return "✗"
	default:
		return "○"
	}
}

// ModeStyle renders CV and CC in different colors.
func ModeStyle(mode psu.Mode) lipgloss.Style {
	if mode == psu.ModeCV {
		return lipgloss.NewStyle().Foreground(colors.Voltage).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(colors.Current).Bold(true)
}

// OutputStyle renders the output switch.
func OutputStyle(on bool) lipgloss.Style {
	if on {
		return lipgloss.NewStyle().Foreground(colors.OutputOn).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(colors.OutputOff)
}
