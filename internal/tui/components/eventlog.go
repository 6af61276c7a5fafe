package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const maxLogEntries = 500

// logEntry keeps the source of a line so it can be re-rendered when the
// formatter changes.
type logEntry struct {
	event *EventMsg
	note  *NoteMsg
}

// EventLog is a scrolling view of session events.
type EventLog struct {
	viewport  viewport.Model
	formatter *EventFormatter
	entries   []logEntry
	lines     []string
}

func NewEventLog(width, height int) *EventLog {
	return &EventLog{
		viewport:  viewport.New(width, height),
		formatter: NewEventFormatter(false),
	}
}

func (l *EventLog) SetSize(width, height int) {
	l.viewport.Width = width
	l.viewport.Height = height
}

func (l *EventLog) Width() int {
	return l.viewport.Width
}

// AddEvent appends msg if the formatter renders it.
func (l *EventLog) AddEvent(msg EventMsg) {
	line, ok := l.formatter.Format(msg)
	if !ok {
		return
	}
	l.append(logEntry{event: &msg}, line)
}

func (l *EventLog) AddNote(msg NoteMsg) {
	l.append(logEntry{note: &msg}, l.formatter.FormatNote(msg))
}

func (l *EventLog) append(e logEntry, line string) {
	l.entries = append(l.entries, e)
	l.lines = append(l.lines, line)
	if len(l.entries) > maxLogEntries {
		l.entries = l.entries[1:]
		l.lines = l.lines[1:]
	}
	l.viewport.SetContent(strings.Join(l.lines, "\n"))
	l.viewport.GotoBottom()
}

// Len returns the number of lines in the log.
func (l *EventLog) Len() int {
	return len(l.lines)
}

// ToggleRaw switches raw reply display and re-renders every line.
func (l *EventLog) ToggleRaw() {
	l.formatter.ToggleRaw()
	l.lines = l.lines[:0]
	for _, e := range l.entries {
		if e.note != nil {
			l.lines = append(l.lines, l.formatter.FormatNote(*e.note))
			continue
		}
		line, _ := l.formatter.Format(*e.event)
		l.lines = append(l.lines, line)
	}
	l.viewport.SetContent(strings.Join(l.lines, "\n"))
	l.viewport.GotoBottom()
}

func (l *EventLog) Clear() {
	l.entries = nil
	l.lines = nil
	l.viewport.SetContent("")
}

func (l *EventLog) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Key messages stay with the model so the viewport does not eat bindings.
	switch msg.(type) {
	case tea.WindowSizeMsg:
		return l.viewport.Update(msg)
	default:
		return l.viewport, nil
	}
}

func (l *EventLog) View() string {
	return l.viewport.View()
}
