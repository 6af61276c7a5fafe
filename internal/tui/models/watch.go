package models

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/crapp/labpowerqt-sub000/internal/control"
	"github.com/crapp/labpowerqt-sub000/internal/tui/components"
	"github.com/crapp/labpowerqt-sub000/internal/tui/keys"
	"github.com/crapp/labpowerqt-sub000/internal/tui/styles"
	"github.com/crapp/labpowerqt-sub000/psu"
	"github.com/crapp/labpowerqt-sub000/serial"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeCommand
)

func (m InputMode) String() string {
	if m == InputModeCommand {
		return "COMMAND"
	}
	return "NORMAL"
}

const refreshInterval = 250 * time.Millisecond

// Session is what the watch screen needs from a psu.Session.
type Session interface {
	control.Target
	State() psu.State
	QueueLen() int
	Identification() string
}

var _ Session = (*psu.Session)(nil)

type refreshMsg time.Time

// WatchModel is the interactive view of one supply: a channel table, an
// event log and a command line.
type WatchModel struct {
	session Session
	now     func() time.Time

	statusBar *components.StatusBar
	channels  *components.ChannelTable
	log       *components.EventLog
	input     *components.CommandInput
	help      help.Model
	keys      keys.WatchKeys

	inputMode InputMode
	snapshot  psu.Snapshot
	ready     bool
	width     int
	height    int
}

func NewWatchModel(s Session, device string, line serial.Config, acc psu.Accuracy) *WatchModel {
	return &WatchModel{
		session:   s,
		now:       time.Now,
		statusBar: components.NewStatusBar(device, line),
		channels:  components.NewChannelTable(acc),
		log:       components.NewEventLog(0, 0),
		input:     components.NewCommandInput("voltage 1 12.5, output on, status ..."),
		help:      help.New(),
		keys:      keys.NewWatchKeys(),
	}
}

func (m *WatchModel) InputMode() InputMode             { return m.inputMode }
func (m *WatchModel) Snapshot() psu.Snapshot           { return m.snapshot }
func (m *WatchModel) Log() *components.EventLog        { return m.log }
func (m *WatchModel) StatusBar() *components.StatusBar { return m.statusBar }

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m *WatchModel) Init() tea.Cmd {
	return refresh()
}

func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.layout()
		m.ready = true
		_, cmd := m.log.Update(msg)
		cmds = append(cmds, cmd)

	case refreshMsg:
		m.statusBar.SetState(m.session.State(), nil)
		m.statusBar.SetQueueLen(m.session.QueueLen())
		m.statusBar.SetIdentification(m.session.Identification())
		cmds = append(cmds, refresh())

	case components.EventMsg:
		m.handleEvent(msg)

	case components.NoteMsg:
		m.log.AddNote(msg)

	case tea.KeyMsg:
		if m.inputMode == InputModeCommand {
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			if handled := m.handleCommandKey(msg); handled {
				return m, tea.Batch(cmds...)
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
			return m, tea.Batch(cmds...)
		}
		if cmd := m.handleNormalKey(msg); cmd != nil {
			return m, cmd
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *WatchModel) handleEvent(msg components.EventMsg) {
	switch e := msg.Event.(type) {
	case psu.StatusReady:
		m.snapshot = e.Status.Snapshot()
		m.channels.SetSnapshot(m.snapshot)
		m.statusBar.SetSnapshot(m.snapshot)
		m.layout()
	case psu.ErrorOpen:
		m.statusBar.SetState(psu.StateErrorOpen, e.Err)
	case psu.ErrorReadWrite:
		m.statusBar.SetState(psu.StateErrorReadWrite, e.Err)
	case psu.RequestFinished:
		if e.Command.Kind == psu.KindGetIdentification && e.Command.Result.Err == nil {
			m.statusBar.SetIdentification(e.Command.Result.Value.String())
		}
	}
	m.log.AddEvent(msg)
}

func (m *WatchModel) handleCommandKey(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.inputMode = InputModeNormal
		m.input.Blur()
	case key.Matches(msg, m.keys.Enter):
		line := m.input.Value()
		if line == "" {
			return true
		}
		m.execute(line)
		m.input.AddToHistory(line)
		m.input.SetValue("")
	case key.Matches(msg, m.keys.Up):
		m.input.HistoryUp()
	case key.Matches(msg, m.keys.Down):
		m.input.HistoryDown()
	default:
		return false
	}
	return true
}

func (m *WatchModel) handleNormalKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.CommandMode):
		m.inputMode = InputModeCommand
		m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
	case key.Matches(msg, m.keys.Refresh):
		m.execute(string(control.ActionStatus))
	case key.Matches(msg, m.keys.ToggleOutput):
		if m.outputOn() {
			m.execute("output off")
		} else {
			m.execute("output on")
		}
	case key.Matches(msg, m.keys.ToggleRaw):
		m.log.ToggleRaw()
	case key.Matches(msg, m.keys.Clear):
		m.log.Clear()
	}
	return nil
}

// outputOn reports whether any channel was last seen with its output on.
func (m *WatchModel) outputOn() bool {
	for _, ch := range m.snapshot.Channels {
		if ch.Output != nil && *ch.Output {
			return true
		}
	}
	return false
}

// execute parses line and queues it on the session. Results arrive later
// as RequestFinished events.
func (m *WatchModel) execute(line string) {
	note := components.NoteMsg{Timestamp: m.now()}

	req, err := control.ParseLine(line)
	if err == nil {
		_, err = req.Apply(m.session)
	}
	switch {
	case errors.Is(err, psu.ErrNotConnected):
		note.Text, note.Err = "not connected: "+req.String(), true
	case err != nil:
		note.Text, note.Err = err.Error(), true
	default:
		note.Text = "queued " + req.String()
	}
	m.log.AddNote(note)
}

// layout gives the event log whatever height the other parts leave.
func (m *WatchModel) layout() {
	if m.width == 0 {
		return
	}
	const inputHeight, statusBarHeight, borderHeight = 3, 1, 1
	used := m.channels.Height() + inputHeight + statusBarHeight + borderHeight + lipgloss.Height(m.help.View(m.keys))
	height := m.height - used
	if height < 1 {
		height = 1
	}
	m.log.SetSize(m.width, height)
}

func (m *WatchModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var table string
	if m.channels.Rows() > 0 {
		table = m.channels.View()
	} else {
		table = styles.MutedStyle.Render("waiting for the first status poll...")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		table,
		styles.ContentBorderStyle.Render(m.log.View()),
		m.input.View(m.inputMode == InputModeCommand),
		m.statusBar.View(m.inputMode.String()),
		m.help.View(m.keys),
	)
}
