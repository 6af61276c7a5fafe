package control

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crapp/labpowerqt-sub000/psu"
)

// recorder is a Target that records the calls it receives.
type recorder struct {
	calls []string
}

func (r *recorder) record(format string, args ...any) (*psu.Command, error) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return &psu.Command{}, nil
}

func (r *recorder) GetIdentification() (*psu.Command, error) { return r.record("idn") }
func (r *recorder) GetStatus() (*psu.Command, error)         { return r.record("status") }
func (r *recorder) SetVoltage(ch int, v float64) (*psu.Command, error) {
	return r.record("voltage %d %.3f", ch, v)
}
func (r *recorder) SetCurrent(ch int, v float64) (*psu.Command, error) {
	return r.record("current %d %.3f", ch, v)
}
func (r *recorder) SetOutput(ch int, on bool) (*psu.Command, error) {
	return r.record("output %d %t", ch, on)
}
func (r *recorder) SetOCP(on bool) (*psu.Command, error)    { return r.record("ocp %t", on) }
func (r *recorder) SetOVP(on bool) (*psu.Command, error)    { return r.record("ovp %t", on) }
func (r *recorder) SetOTP(on bool) (*psu.Command, error)    { return r.record("otp %t", on) }
func (r *recorder) SetBeep(on bool) (*psu.Command, error)   { return r.record("beep %t", on) }
func (r *recorder) SetLocked(on bool) (*psu.Command, error) { return r.record("lock %t", on) }
func (r *recorder) SetTracking(m psu.TrackingMode) (*psu.Command, error) {
	return r.record("tracking %s", m)
}
func (r *recorder) RecallMemory(n int) (*psu.Command, error) { return r.record("recall %d", n) }
func (r *recorder) SaveMemory(n int) (*psu.Command, error)   { return r.record("save %d", n) }

func TestParseAndApply(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"voltage 1 12.5", "voltage 1 12.500"},
		{"v ch2 5", "voltage 2 5.000"},
		{"I 1 0.25", "current 1 0.250"},
		{"out on", "output 0 true"},
		{"output 2 off", "output 2 false"},
		{"ocp 1", "ocp true"},
		{"ovp false", "ovp false"},
		{"beep off", "beep false"},
		{"lock yes", "lock true"},
		{"track series", "tracking series"},
		{"tracking 2", "tracking parallel"},
		{"rcl 3", "recall 3"},
		{"save 1", "save 1"},
		{"idn", "idn"},
		{"status", "status"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			req, err := ParseLine(tt.line)
			require.NoError(t, err)

			rec := &recorder{}
			_, err = req.Apply(rec)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, rec.calls)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"explode",
		"voltage 12.5",
		"voltage x 12.5",
		"voltage 1 twelve",
		"output 1 2 3",
		"beep maybe",
		"track crossed",
		"recall first",
		"status now",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseLine(line)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestApplyRejectsUnparsedValue(t *testing.T) {
	_, err := Request{Action: ActionVoltage, Channel: 1, Value: "abc"}.Apply(&recorder{})
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestRequestString(t *testing.T) {
	req, err := ParseLine("V 1 12.5")
	require.NoError(t, err)
	assert.Equal(t, "voltage 1 12.5", req.String())
}
