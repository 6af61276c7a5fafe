package psu

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Korad status register bits.
const (
	koradCh1CV  = 1 << 0
	koradCh2CV  = 1 << 1
	koradBeeper = 1 << 4
	koradLocked = 1 << 5
	koradOutput = 1 << 6
)

var koradTemplates = map[Kind]string{
	KindGetIdentification: "*IDN?",
	KindGetStatusByte:     "STATUS?",
	KindSetVoltage:        "VSET%1:%2",
	KindGetVoltage:        "VSET%1?",
	KindGetActualVoltage:  "VOUT%1?",
	KindSetCurrent:        "ISET%1:%2",
	KindGetCurrent:        "ISET%1?",
	KindGetActualCurrent:  "IOUT%1?",
	KindSetOutput:         "OUT%1",
	KindSetOCP:            "OCP%1",
	KindSetOVP:            "OVP%1",
	KindSetBeep:           "BEEP%1",
	KindSetLocked:         "LOCK%1",
	KindSetTracking:       "TRACK%1",
	KindRecallMemory:      "RCL%1",
	KindSaveMemory:        "SAV%1",
}

// koradDeviceWide lists kinds whose single slot carries the value even when
// a channel was given; the hardware switches all channels at once.
var koradDeviceWide = map[Kind]bool{
	KindSetOutput:    true,
	KindSetOCP:       true,
	KindSetOVP:       true,
	KindSetBeep:      true,
	KindSetLocked:    true,
	KindSetTracking:  true,
	KindRecallMemory: true,
	KindSaveMemory:   true,
}

// korad speaks the KAxxxxP dialect used by Korad, Velleman, Tenma and RND
// branded supplies.
type korad struct {
	channels int
	acc      Accuracy
}

var (
	_ Codec             = (*korad)(nil)
	_ WattageCalculator = (*korad)(nil)
)

func newKorad(channels int, acc Accuracy) *korad {
	return &korad{channels: channels, acc: acc}
}

func (k *korad) Family() Family { return FamilyKorad }

func (k *korad) Supports(kind Kind) bool {
	if kind == KindGetStatus {
		return true
	}
	_, ok := koradTemplates[kind]
	return ok
}

func (k *korad) Encode(cmd *Command) ([]byte, error) {
	tmpl, ok := koradTemplates[cmd.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cmd.Kind)
	}

	decimals := 0
	switch cmd.Kind {
	case KindSetVoltage:
		decimals = k.acc.Voltage
	case KindSetCurrent:
		decimals = k.acc.Current
	}

	channel := cmd.Channel
	if koradDeviceWide[cmd.Kind] {
		channel = 0
	}
	return []byte(render(tmpl, channel, formatValue(cmd.Value, decimals), cmd.Value.IsSet())), nil
}

func (k *korad) Decode(reply []byte, cmd *Command, status *Status) error {
	switch cmd.Kind {
	case KindGetStatusByte:
		if len(reply) < 1 {
			return fmt.Errorf("%w: empty status reply", ErrMalformedReply)
		}
		// The register is the first byte; some firmware appends a newline.
		cmd.Result.Value = Int(int(reply[0]))
		k.DecodeStatusByte(reply[0], k.channels, status)
		return nil

	case KindGetIdentification:
		cmd.Result.Value = Text(strings.TrimSpace(strings.Trim(string(reply), "\x00")))
		return nil

	case KindGetVoltage, KindGetActualVoltage, KindGetCurrent, KindGetActualCurrent:
		v, err := parseKoradNumber(reply, cmd.Kind)
		if err != nil {
			return err
		}
		cmd.Result.Value = Float(v)
		k.store(cmd, v, status)
		return nil

	// The protection and tracking settings cannot be read back, so a
	// written value is the only record of them.
	case KindSetOCP:
		status.SetOCP(cmd.Value.Int != 0)
	case KindSetOVP:
		status.SetOVP(cmd.Value.Int != 0)
	case KindSetTracking:
		status.SetTracking(TrackingMode(cmd.Value.Int))
	}
	return nil
}

func (k *korad) store(cmd *Command, v float64, status *Status) {
	switch cmd.Kind {
	case KindGetVoltage:
		status.SetVoltageSetpoint(cmd.Channel, v)
	case KindGetCurrent:
		status.SetCurrentSetpoint(cmd.Channel, v)
	case KindGetActualVoltage:
		if cmd.IsStatusPoll() {
			status.SetVoltageActual(cmd.Channel, v)
		}
	case KindGetActualCurrent:
		if cmd.IsStatusPoll() {
			status.SetCurrentActual(cmd.Channel, v)
		}
	}
}

// parseKoradNumber parses a decimal reply. Current readbacks on several
// firmware revisions end in a stray 'K'; exactly one is removed.
func parseKoradNumber(reply []byte, kind Kind) (float64, error) {
	s := strings.TrimSpace(strings.Trim(string(reply), "\x00"))
	if kind == KindGetCurrent || kind == KindGetActualCurrent {
		if n := len(s); n > 0 && (s[n-1] == 'K' || s[n-1] == 'k') {
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s reply %q: %w", ErrMalformedReply, kind, reply, err)
	}
	return v, nil
}

func (k *korad) DecodeStatusByte(b byte, channels int, status *Status) {
	output := b&koradOutput != 0
	for ch := 1; ch <= channels; ch++ {
		status.SetOutput(ch, output)
	}
	status.SetLocked(b&koradLocked != 0)
	status.SetBeeper(b&koradBeeper != 0)

	modes := []byte{koradCh1CV, koradCh2CV}
	for ch := 1; ch <= channels && ch <= len(modes); ch++ {
		mode := ModeCC
		if b&modes[ch-1] != 0 {
			mode = ModeCV
		}
		status.SetMode(ch, mode)
	}
}

func (k *korad) StatusCommands(channels int) []*Command {
	status := NewCommand(KindGetStatusByte, 0, NoValue)
	status.ReplyLength = 1
	cmds := []*Command{status}
	for ch := 1; ch <= channels; ch++ {
		cmds = append(cmds,
			NewCommand(KindGetCurrent, ch, NoValue),
			NewCommand(KindGetVoltage, ch, NoValue),
			NewCommand(KindGetActualCurrent, ch, NoValue),
			NewCommand(KindGetActualVoltage, ch, NoValue),
		)
	}
	return cmds
}

// InitCommands reads the identification and clears the protection latches
// so a previous trip does not keep the outputs disabled.
func (k *korad) InitCommands() []*Command {
	return []*Command{
		NewCommand(KindGetIdentification, 0, NoValue),
		NewCommand(KindSetOCP, 0, Bool(false)),
		NewCommand(KindSetOVP, 0, Bool(false)),
	}
}

// CalculateWattage sets wattage = actual voltage * actual current for every
// channel. A channel missing either reading is reported and skipped.
func (k *korad) CalculateWattage(status *Status) error {
	var errs []error
	for ch := 1; ch <= k.channels; ch++ {
		v, err := status.VoltageActual(ch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c, err := status.CurrentActual(ch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		status.SetWattage(ch, v*c)
	}
	return errors.Join(errs...)
}
