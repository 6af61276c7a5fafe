package models

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crapp/labpowerqt-sub000/internal/control"
	"github.com/crapp/labpowerqt-sub000/internal/tui/components"
	"github.com/crapp/labpowerqt-sub000/psu"
	"github.com/crapp/labpowerqt-sub000/serial"
)

// fakeSession records the requests the screen queues. Methods the tests do
// not use fall through to the nil Target and panic.
type fakeSession struct {
	control.Target
	state     psu.State
	connected bool
	calls     []string
}

func (f *fakeSession) State() psu.State       { return f.state }
func (f *fakeSession) QueueLen() int          { return len(f.calls) }
func (f *fakeSession) Identification() string { return "KORAD KA3005P V5.8" }

func (f *fakeSession) record(format string, args ...any) (*psu.Command, error) {
	if !f.connected {
		return nil, psu.ErrNotConnected
	}
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return psu.NewCommand(psu.KindGetStatus, 0, psu.NoValue), nil
}

func (f *fakeSession) GetStatus() (*psu.Command, error) { return f.record("status") }

func (f *fakeSession) SetVoltage(ch int, v float64) (*psu.Command, error) {
	return f.record("voltage %d %g", ch, v)
}

func (f *fakeSession) SetOutput(ch int, on bool) (*psu.Command, error) {
	return f.record("output %d %t", ch, on)
}

func newTestModel(t *testing.T) (*WatchModel, *fakeSession) {
	t.Helper()
	s := &fakeSession{state: psu.StatePolling, connected: true}
	m := NewWatchModel(s, "/dev/ttyACM0", serial.DefaultConfig(), psu.DefaultAccuracy)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	return m, s
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeLine(m *WatchModel, line string) {
	for _, r := range line {
		m.Update(keyRunes(string(r)))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestWatchCommandLine(t *testing.T) {
	m, s := newTestModel(t)

	m.Update(keyRunes(":"))
	require.Equal(t, InputModeCommand, m.InputMode())

	typeLine(m, "voltage 1 12.5")
	assert.Equal(t, []string{"voltage 1 12.5"}, s.calls)
	assert.Contains(t, m.Log().View(), "queued voltage 1 12.5")

	typeLine(m, "voltage one 3")
	assert.Len(t, s.calls, 1)
	assert.Contains(t, m.Log().View(), "invalid request")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, InputModeNormal, m.InputMode())
}

func TestWatchNormalKeys(t *testing.T) {
	m, s := newTestModel(t)

	m.Update(keyRunes("r"))
	m.Update(keyRunes("o"))
	assert.Equal(t, []string{"status", "output 0 true"}, s.calls)

	status := psu.NewStatus()
	status.SetOutput(1, true)
	status.SetVoltageActual(1, 3.3)
	m.Update(components.EventMsg{Event: psu.StatusReady{Status: status}})

	m.Update(keyRunes("o"))
	assert.Equal(t, "output 0 false", s.calls[2])

	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWatchNotConnected(t *testing.T) {
	m, s := newTestModel(t)
	s.connected = false

	m.Update(keyRunes("r"))
	assert.Empty(t, s.calls)
	assert.Contains(t, m.Log().View(), "not connected: status")
}

func TestWatchEvents(t *testing.T) {
	m, _ := newTestModel(t)

	status := psu.NewStatus()
	status.SetVoltageActual(1, 12)
	status.SetCurrentActual(1, 0.5)
	status.SetOVP(true)
	m.Update(components.EventMsg{Event: psu.StatusReady{Status: status}})

	require.Len(t, m.Snapshot().Channels, 1)
	assert.Equal(t, []string{"OVP"}, m.StatusBar().Flags())
	assert.Contains(t, m.View(), "12.00 V")

	m.Update(components.EventMsg{Event: psu.ErrorReadWrite{Err: fmt.Errorf("usb gone")}})
	assert.Equal(t, psu.StateErrorReadWrite, m.StatusBar().State())
	assert.Contains(t, m.Log().View(), "usb gone")

	m.Update(refreshMsg{})
	assert.Equal(t, psu.StatePolling, m.StatusBar().State())
	assert.NoError(t, m.StatusBar().Err())
}
