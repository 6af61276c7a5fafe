package psu

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		channel  int
		value    string
		hasValue bool
		want     string
	}{
		{"no slots", "*IDN?", 0, "", false, "*IDN?"},
		{"channel and value", "VSET%1:%2", 1, "12.500", true, "VSET1:12.500"},
		{"channel only", "VOUT%1?", 2, "", false, "VOUT2?"},
		{"single slot device wide", "OUT%1", 0, "1", true, "OUT1"},
		{"single slot with channel", "VSET%1?", 1, "", false, "VSET1?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(tt.tmpl, tt.channel, tt.value, tt.hasValue))
		})
	}
}

func newTestKorad(t *testing.T, acc Accuracy) *korad {
	t.Helper()
	c, err := NewCodec(FamilyKorad, 2, acc)
	require.NoError(t, err)
	return c.(*korad)
}

func TestKoradEncode(t *testing.T) {
	k := newTestKorad(t, Accuracy{Voltage: 3, Current: 3})

	tests := []struct {
		cmd  *Command
		want string
	}{
		{NewCommand(KindSetVoltage, 1, Float(12.5)), "VSET1:12.500"},
		{NewCommand(KindSetCurrent, 2, Float(1.5)), "ISET2:1.500"},
		{NewCommand(KindGetVoltage, 2, NoValue), "VSET2?"},
		{NewCommand(KindGetActualCurrent, 1, NoValue), "IOUT1?"},
		{NewCommand(KindSetOutput, 0, Bool(true)), "OUT1"},
		{NewCommand(KindSetOutput, 2, Bool(false)), "OUT0"},
		{NewCommand(KindSetBeep, 0, Bool(false)), "BEEP0"},
		{NewCommand(KindSetTracking, 0, Int(int(TrackingParallel))), "TRACK2"},
		{NewCommand(KindRecallMemory, 0, Int(3)), "RCL3"},
		{NewCommand(KindGetStatusByte, 0, NoValue), "STATUS?"},
		{NewCommand(KindGetIdentification, 0, NoValue), "*IDN?"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := k.Encode(tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestKoradEncodeUsesAccuracyPerQuantity(t *testing.T) {
	k := newTestKorad(t, Accuracy{Voltage: 2, Current: 3})

	got, err := k.Encode(NewCommand(KindSetVoltage, 1, Float(5)))
	require.NoError(t, err)
	assert.Equal(t, "VSET1:5.00", string(got))

	got, err = k.Encode(NewCommand(KindSetCurrent, 1, Float(0.25)))
	require.NoError(t, err)
	assert.Equal(t, "ISET1:0.250", string(got))
}

func TestKoradUnsupported(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)

	assert.False(t, k.Supports(KindSetOTP))
	assert.True(t, k.Supports(KindGetStatus))

	_, err := k.Encode(NewCommand(KindSetOTP, 0, Bool(true)))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestKoradDecodeStatusByte(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	status := NewStatus()

	k.DecodeStatusByte(0x63, 2, status)

	for ch := 1; ch <= 2; ch++ {
		out, err := status.Output(ch)
		require.NoError(t, err)
		assert.True(t, out, "output ch%d", ch)

		mode, err := status.Mode(ch)
		require.NoError(t, err)
		assert.Equal(t, ModeCV, mode, "mode ch%d", ch)
	}

	locked, err := status.Locked()
	require.NoError(t, err)
	assert.True(t, locked)

	beeper, err := status.Beeper()
	require.NoError(t, err)
	assert.False(t, beeper)
}

func TestKoradDecodeStatusByteModes(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	status := NewStatus()

	k.DecodeStatusByte(0x11, 2, status)

	m1, _ := status.Mode(1)
	m2, _ := status.Mode(2)
	assert.Equal(t, ModeCV, m1)
	assert.Equal(t, ModeCC, m2)

	out, _ := status.Output(1)
	assert.False(t, out)
	beeper, _ := status.Beeper()
	assert.True(t, beeper)
}

func TestKoradDecodeCurrentSuffix(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)

	for _, reply := range []string{"1.500K", "1.500", "1.500k"} {
		t.Run(reply, func(t *testing.T) {
			cmd := NewCommand(KindGetCurrent, 1, NoValue)
			require.NoError(t, k.Decode([]byte(reply), cmd, NewStatus()))
			assert.Equal(t, ValueFloat, cmd.Result.Value.Kind)
			assert.InDelta(t, 1.5, cmd.Result.Value.Float, 1e-9)
		})
	}
}

func TestKoradDecodeStripsOnlyOneK(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)

	err := k.Decode([]byte("1.500KK"), NewCommand(KindGetActualCurrent, 1, NoValue), NewStatus())
	assert.ErrorIs(t, err, ErrMalformedReply)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
}

func TestKoradDecodeVoltageKeepsK(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)

	err := k.Decode([]byte("5.00K"), NewCommand(KindGetActualVoltage, 1, NoValue), NewStatus())
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestKoradDecodeStoresPollValues(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	status := NewStatus()

	cmd := NewCommand(KindGetActualVoltage, 2, NoValue)
	cmd.poll = true
	require.NoError(t, k.Decode([]byte("12.01"), cmd, status))

	v, err := status.VoltageActual(2)
	require.NoError(t, err)
	assert.InDelta(t, 12.01, v, 1e-9)

	standalone := NewCommand(KindGetActualCurrent, 1, NoValue)
	require.NoError(t, k.Decode([]byte("0.100"), standalone, status))
	_, err = status.CurrentActual(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKoradDecodeSetpointReadback(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	status := NewStatus()

	require.NoError(t, k.Decode([]byte("05.00"), NewCommand(KindGetVoltage, 1, NoValue), status))
	v, err := status.VoltageSetpoint(1)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-9)
}

func TestKoradDecodeIdentification(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	cmd := NewCommand(KindGetIdentification, 0, NoValue)

	require.NoError(t, k.Decode([]byte("KORAD KA3305P V5.8 SN:03379314\n"), cmd, NewStatus()))
	assert.Equal(t, "KORAD KA3305P V5.8 SN:03379314", cmd.Result.Value.Text)
}

func TestKoradDecodeEmptyStatus(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	err := k.Decode(nil, NewCommand(KindGetStatusByte, 0, NoValue), NewStatus())
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestKoradStatusCommands(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)

	var wire []string
	for _, cmd := range k.StatusCommands(2) {
		b, err := k.Encode(cmd)
		require.NoError(t, err)
		assert.True(t, cmd.ExpectsReply)
		wire = append(wire, string(b))
	}

	assert.Equal(t, []string{
		"STATUS?",
		"ISET1?", "VSET1?", "IOUT1?", "VOUT1?",
		"ISET2?", "VSET2?", "IOUT2?", "VOUT2?",
	}, wire)
}

func TestKoradInitCommands(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)

	var wire []string
	for _, cmd := range k.InitCommands() {
		b, err := k.Encode(cmd)
		require.NoError(t, err)
		wire = append(wire, string(b))
	}
	assert.Equal(t, []string{"*IDN?", "OCP0", "OVP0"}, wire)
}

func TestKoradCalculateWattage(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	status := NewStatus()
	status.SetVoltageActual(1, 5.0)
	status.SetCurrentActual(1, 2.0)
	status.SetVoltageActual(2, 12.0)

	err := k.CalculateWattage(status)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	w, werr := status.Wattage(1)
	require.NoError(t, werr)
	assert.InDelta(t, 10.0, w, 1e-9)

	_, werr = status.Wattage(2)
	assert.True(t, errors.Is(werr, ErrNotFound))
}

func TestKoradCalculateWattageReportsChannelWithoutReadings(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	status := NewStatus()
	status.SetVoltageActual(1, 5.0)
	status.SetCurrentActual(1, 2.0)

	err := k.CalculateWattage(status)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "channel 2")

	w, werr := status.Wattage(1)
	require.NoError(t, werr)
	assert.InDelta(t, 10.0, w, 1e-9)
}

func TestKoradDecodeMirrorsSettings(t *testing.T) {
	k := newTestKorad(t, DefaultAccuracy)
	status := NewStatus()

	require.NoError(t, k.Decode(nil, NewCommand(KindSetOCP, 0, Bool(true)), status))
	require.NoError(t, k.Decode(nil, NewCommand(KindSetOVP, 0, Bool(false)), status))
	require.NoError(t, k.Decode(nil, NewCommand(KindSetTracking, 0, Int(int(TrackingParallel))), status))

	ocp, err := status.OCP()
	require.NoError(t, err)
	assert.True(t, ocp)
	ovp, err := status.OVP()
	require.NoError(t, err)
	assert.False(t, ovp)
	mode, err := status.Tracking()
	require.NoError(t, err)
	assert.Equal(t, TrackingParallel, mode)
}

func TestNewCodec(t *testing.T) {
	_, err := NewCodec(FamilyUnknown, 1, DefaultAccuracy)
	assert.ErrorIs(t, err, ErrUnknownFamily)

	_, err = NewCodec(FamilyKorad, 0, DefaultAccuracy)
	assert.ErrorIs(t, err, ErrInvalidChannel)

	c, err := NewCodec(FamilyKorad, 1, DefaultAccuracy)
	require.NoError(t, err)
	assert.Equal(t, FamilyKorad, c.Family())
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("Korad")
	require.NoError(t, err)
	assert.Equal(t, FamilyKorad, f)

	_, err = ParseFamily("rigol")
	assert.ErrorIs(t, err, ErrUnknownFamily)
}
