package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/crapp/labpowerqt-sub000/internal/tui/colors"
	"github.com/crapp/labpowerqt-sub000/internal/tui/styles"
)

const maxHistory = 100

// CommandInput is the request line of the watch screen with history.
type CommandInput struct {
	textInput     textinput.Model
	history       []string
	historyIndex  int
	pending       string // line being edited while browsing history
	terminalWidth int
}

func NewCommandInput(placeholder string) *CommandInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Prompt = ""

	return &CommandInput{
		textInput:    ti,
		historyIndex: -1,
	}
}

func (i *CommandInput) SetWidth(width int) {
	i.terminalWidth = width
	// border(2) + padding(2) + prompt(1) + space(1)
	usable := width - 6
	if usable < 20 {
		usable = 20
	}
	i.textInput.Width = usable
}

func (i *CommandInput) Focus() {
	i.textInput.Focus()
}

func (i *CommandInput) Blur() {
	i.textInput.Blur()
}

func (i *CommandInput) Value() string {
	return i.textInput.Value()
}

func (i *CommandInput) SetValue(value string) {
	i.textInput.SetValue(value)
}

func (i *CommandInput) Update(msg tea.Msg) (*CommandInput, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func (i *CommandInput) View(active bool) string {
	prompt := lipgloss.NewStyle().Foreground(colors.Mauve).Bold(true).Render(":")

	var content string
	if active {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	} else {
		hint := lipgloss.NewStyle().
			Foreground(colors.Overlay0).
			Render("Press ':' to enter a command, e.g. voltage 1 12.5")
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", hint)
	}

	width := i.terminalWidth - 4
	if width < 10 {
		width = 10
	}
	style := styles.InputStyle.
		Width(width).
		AlignHorizontal(lipgloss.Left)
	if active {
		style = style.BorderForeground(colors.Mauve)
	}
	return style.Render(content)
}

// AddToHistory records line unless it is empty or repeats the last entry.
func (i *CommandInput) AddToHistory(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if n := len(i.history); n > 0 && i.history[n-1] == line {
		return
	}

	i.history = append(i.history, line)
	if len(i.history) > maxHistory {
		i.history = i.history[1:]
	}
	i.historyIndex = -1
	i.pending = ""
}

func (i *CommandInput) HistoryUp() {
	if len(i.history) == 0 {
		return
	}
	if i.historyIndex == -1 {
		i.pending = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}
	i.textInput.SetValue(i.history[i.historyIndex])
}

func (i *CommandInput) HistoryDown() {
	if len(i.history) == 0 || i.historyIndex == -1 {
		return
	}
	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.textInput.SetValue(i.pending)
	i.pending = ""
}
