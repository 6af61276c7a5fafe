package psu

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Mode is the regulation mode of a channel.
type Mode int

const (
	ModeCC Mode = iota // constant current
	ModeCV             // constant voltage
)

func (m Mode) String() string {
	if m == ModeCV {
		return "CV"
	}
	return "CC"
}

// MarshalText renders the mode as CC or CV.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// TrackingMode couples the channels of a multi-channel supply.
type TrackingMode int

const (
	TrackingIndependent TrackingMode = iota
	TrackingSeries
	TrackingParallel
)

func (t TrackingMode) String() string {
	switch t {
	case TrackingSeries:
		return "series"
	case TrackingParallel:
		return "parallel"
	default:
		return "independent"
	}
}

// MarshalText renders the tracking mode by name.
func (t TrackingMode) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ParseTrackingMode accepts independent, series and parallel.
func ParseTrackingMode(s string) (TrackingMode, error) {
	switch s {
	case "independent", "0":
		return TrackingIndependent, nil
	case "series", "1":
		return TrackingSeries, nil
	case "parallel", "2":
		return TrackingParallel, nil
	}
	return TrackingIndependent, fmt.Errorf("%w: tracking mode %q", ErrInvalidArgument, s)
}

type channelMap[T any] struct {
	mu     sync.RWMutex
	values map[int]T
}

func (c *channelMap[T]) get(channel int) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[channel]
	if !ok {
		var zero T
		return zero, fmt.Errorf("channel %d: %w", channel, ErrNotFound)
	}
	return v, nil
}

func (c *channelMap[T]) set(channel int, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.values == nil {
		c.values = make(map[int]T)
	}
	c.values[channel] = v
}

func (c *channelMap[T]) channels() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]int, 0, len(c.values))
	for ch := range c.values {
		out = append(out, ch)
	}
	return out
}

type field[T any] struct {
	mu    sync.RWMutex
	value T
	known bool
}

func (f *field[T]) get() (T, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.known {
		var zero T
		return zero, ErrNotFound
	}
	return f.value, nil
}

func (f *field[T]) set(v T) {
	f.mu.Lock()
	f.value = v
	f.known = true
	f.mu.Unlock()
}

// Status is the last known state of a supply. The worker writes it while
// other goroutines read it; every field group carries its own lock so a
// reader never waits on an unrelated write. Reading a value that was never
// observed returns ErrNotFound.
type Status struct {
	voltageActual channelMap[float64]
	voltageSet    channelMap[float64]
	currentActual channelMap[float64]
	currentSet    channelMap[float64]
	wattage       channelMap[float64]
	mode          channelMap[Mode]
	output        channelMap[bool]

	beeper   field[bool]
	locked   field[bool]
	ovp      field[bool]
	ocp      field[bool]
	otp      field[bool]
	tracking field[TrackingMode]
	time     field[time.Time]
	duration field[time.Duration]
}

// NewStatus returns an empty status.
func NewStatus() *Status {
	return &Status{}
}

func (s *Status) VoltageActual(ch int) (float64, error) { return s.voltageActual.get(ch) }
func (s *Status) SetVoltageActual(ch int, v float64)    { s.voltageActual.set(ch, v) }

func (s *Status) VoltageSetpoint(ch int) (float64, error) { return s.voltageSet.get(ch) }
func (s *Status) SetVoltageSetpoint(ch int, v float64)    { s.voltageSet.set(ch, v) }

func (s *Status) CurrentActual(ch int) (float64, error) { return s.currentActual.get(ch) }
func (s *Status) SetCurrentActual(ch int, v float64)    { s.currentActual.set(ch, v) }

func (s *Status) CurrentSetpoint(ch int) (float64, error) { return s.currentSet.get(ch) }
func (s *Status) SetCurrentSetpoint(ch int, v float64)    { s.currentSet.set(ch, v) }

func (s *Status) Wattage(ch int) (float64, error) { return s.wattage.get(ch) }
func (s *Status) SetWattage(ch int, w float64)    { s.wattage.set(ch, w) }

func (s *Status) Mode(ch int) (Mode, error) { return s.mode.get(ch) }
func (s *Status) SetMode(ch int, m Mode)    { s.mode.set(ch, m) }

func (s *Status) Output(ch int) (bool, error) { return s.output.get(ch) }
func (s *Status) SetOutput(ch int, on bool)   { s.output.set(ch, on) }

func (s *Status) Beeper() (bool, error) { return s.beeper.get() }
func (s *Status) SetBeeper(on bool)     { s.beeper.set(on) }

func (s *Status) Locked() (bool, error) { return s.locked.get() }
func (s *Status) SetLocked(on bool)     { s.locked.set(on) }

func (s *Status) OVP() (bool, error) { return s.ovp.get() }
func (s *Status) SetOVP(on bool)     { s.ovp.set(on) }

func (s *Status) OCP() (bool, error) { return s.ocp.get() }
func (s *Status) SetOCP(on bool)     { s.ocp.set(on) }

func (s *Status) OTP() (bool, error) { return s.otp.get() }
func (s *Status) SetOTP(on bool)     { s.otp.set(on) }

func (s *Status) Tracking() (TrackingMode, error) { return s.tracking.get() }
func (s *Status) SetTracking(t TrackingMode)      { s.tracking.set(t) }

// Time is when the last complete poll finished.
func (s *Status) Time() (time.Time, error) { return s.time.get() }
func (s *Status) SetTime(t time.Time)      { s.time.set(t) }

// Duration is the time between opening the device and the last poll.
func (s *Status) Duration() (time.Duration, error) { return s.duration.get() }
func (s *Status) SetDuration(d time.Duration)      { s.duration.set(d) }

// ChannelSnapshot is the copied state of one channel. Nil fields were never
// observed.
type ChannelSnapshot struct {
	Channel         int      `json:"channel" yaml:"channel"`
	VoltageActual   *float64 `json:"voltage_actual,omitempty" yaml:"voltage_actual,omitempty"`
	VoltageSetpoint *float64 `json:"voltage_set,omitempty" yaml:"voltage_set,omitempty"`
	CurrentActual   *float64 `json:"current_actual,omitempty" yaml:"current_actual,omitempty"`
	CurrentSetpoint *float64 `json:"current_set,omitempty" yaml:"current_set,omitempty"`
	Wattage         *float64 `json:"wattage,omitempty" yaml:"wattage,omitempty"`
	Mode            *Mode    `json:"mode,omitempty" yaml:"mode,omitempty"`
	Output          *bool    `json:"output,omitempty" yaml:"output,omitempty"`
}

// Snapshot is a plain copy of a Status for serialisation and display.
type Snapshot struct {
	Time     time.Time         `json:"time" yaml:"time"`
	Duration time.Duration     `json:"duration_ns" yaml:"duration"`
	Channels []ChannelSnapshot `json:"channels" yaml:"channels"`
	Beeper   *bool             `json:"beeper,omitempty" yaml:"beeper,omitempty"`
	Locked   *bool             `json:"locked,omitempty" yaml:"locked,omitempty"`
	OVP      *bool             `json:"ovp,omitempty" yaml:"ovp,omitempty"`
	OCP      *bool             `json:"ocp,omitempty" yaml:"ocp,omitempty"`
	OTP      *bool             `json:"otp,omitempty" yaml:"otp,omitempty"`
	Tracking *TrackingMode     `json:"tracking,omitempty" yaml:"tracking,omitempty"`
}

func ptr[T any](v T, err error) *T {
	if err != nil {
		return nil
	}
	return &v
}

// Channels returns every channel number with at least one observed value.
func (s *Status) Channels() []int {
	seen := make(map[int]struct{})
	for _, chs := range [][]int{
		s.voltageActual.channels(), s.voltageSet.channels(),
		s.currentActual.channels(), s.currentSet.channels(),
		s.wattage.channels(), s.mode.channels(), s.output.channels(),
	} {
		for _, ch := range chs {
			seen[ch] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// Snapshot copies the status. Field groups are read one at a time, so a
// snapshot taken while a poll is running may mix two polls.
func (s *Status) Snapshot() Snapshot {
	snap := Snapshot{
		Beeper:   ptr(s.Beeper()),
		Locked:   ptr(s.Locked()),
		OVP:      ptr(s.OVP()),
		OCP:      ptr(s.OCP()),
		OTP:      ptr(s.OTP()),
		Tracking: ptr(s.Tracking()),
	}
	snap.Time, _ = s.Time()
	snap.Duration, _ = s.Duration()

	for _, ch := range s.Channels() {
		snap.Channels = append(snap.Channels, ChannelSnapshot{
			Channel:         ch,
			VoltageActual:   ptr(s.VoltageActual(ch)),
			VoltageSetpoint: ptr(s.VoltageSetpoint(ch)),
			CurrentActual:   ptr(s.CurrentActual(ch)),
			CurrentSetpoint: ptr(s.CurrentSetpoint(ch)),
			Wattage:         ptr(s.Wattage(ch)),
			Mode:            ptr(s.Mode(ch)),
			Output:          ptr(s.Output(ch)),
		})
	}
	return snap
}
