package psu

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNotFound(t *testing.T) {
	s := NewStatus()

	_, err := s.VoltageActual(1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Mode(3)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Beeper()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Time()
	assert.ErrorIs(t, err, ErrNotFound)

	s.SetVoltageActual(1, 3.3)
	_, err = s.VoltageActual(2)
	assert.ErrorIs(t, err, ErrNotFound, "channel 2 must not default")
}

func TestStatusSetGet(t *testing.T) {
	s := NewStatus()
	s.SetCurrentSetpoint(2, 0.5)
	s.SetMode(2, ModeCV)
	s.SetTracking(TrackingSeries)
	s.SetOVP(true)

	c, err := s.CurrentSetpoint(2)
	require.NoError(t, err)
	assert.Equal(t, 0.5, c)

	m, err := s.Mode(2)
	require.NoError(t, err)
	assert.Equal(t, ModeCV, m)

	tr, err := s.Tracking()
	require.NoError(t, err)
	assert.Equal(t, TrackingSeries, tr)

	ovp, err := s.OVP()
	require.NoError(t, err)
	assert.True(t, ovp)
}

func TestStatusConcurrentAccess(t *testing.T) {
	s := NewStatus()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.SetVoltageActual(1, float64(i))
			s.SetOutput(1, i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_, _ = s.VoltageActual(1)
			_ = s.Snapshot()
		}
	}()
	wg.Wait()

	v, err := s.VoltageActual(1)
	require.NoError(t, err)
	assert.Equal(t, 999.0, v)
}

func TestStatusSnapshot(t *testing.T) {
	s := NewStatus()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.SetTime(at)
	s.SetDuration(90 * time.Second)
	s.SetVoltageActual(2, 12)
	s.SetCurrentActual(1, 0.1)
	s.SetMode(1, ModeCC)
	s.SetLocked(false)

	snap := s.Snapshot()
	assert.Equal(t, at, snap.Time)
	assert.Equal(t, 90*time.Second, snap.Duration)
	require.Len(t, snap.Channels, 2)

	ch1 := snap.Channels[0]
	assert.Equal(t, 1, ch1.Channel)
	require.NotNil(t, ch1.CurrentActual)
	assert.Equal(t, 0.1, *ch1.CurrentActual)
	assert.Nil(t, ch1.VoltageActual)

	require.NotNil(t, snap.Locked)
	assert.False(t, *snap.Locked)
	assert.Nil(t, snap.Beeper)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"CC"`)
	assert.NotContains(t, string(data), "beeper")
}

func TestParseTrackingMode(t *testing.T) {
	m, err := ParseTrackingMode("parallel")
	require.NoError(t, err)
	assert.Equal(t, TrackingParallel, m)

	_, err = ParseTrackingMode("crossed")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
