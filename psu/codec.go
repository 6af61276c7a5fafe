package psu

import (
	"fmt"
	"strconv"
	"strings"
)

// Codec translates commands to and from the wire format of one device
// family.
type Codec interface {
	Family() Family

	// Supports reports whether the family has a wire form for kind.
	Supports(kind Kind) bool

	// Encode renders the bytes to write for cmd.
	Encode(cmd *Command) ([]byte, error)

	// Decode parses reply for cmd. Parsed values land on cmd.Result.Value;
	// status poll sub-commands and set-point readbacks also update status.
	// Commands without a reply are passed with a nil reply once written.
	Decode(reply []byte, cmd *Command, status *Status) error

	// DecodeStatusByte applies the family's status register layout.
	DecodeStatusByte(b byte, channels int, status *Status)

	// StatusCommands expands a status request into its ordered sub-commands.
	StatusCommands(channels int) []*Command

	// InitCommands are executed once after the device was opened.
	InitCommands() []*Command
}

// WattageCalculator is implemented by codecs that derive power from the
// measured voltage and current.
type WattageCalculator interface {
	CalculateWattage(status *Status) error
}

// Family names a protocol dialect.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyKorad
)

func (f Family) String() string {
	switch f {
	case FamilyKorad:
		return "korad"
	default:
		return "unknown"
	}
}

// ParseFamily maps a configured family name to its Family.
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(s) {
	case "korad", "ka3005p", "ka3305p":
		return FamilyKorad, nil
	}
	return FamilyUnknown, fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// Accuracy is the number of decimals used when rendering set points.
type Accuracy struct {
	Voltage int
	Current int
}

// DefaultAccuracy matches the resolution of common bench supplies.
var DefaultAccuracy = Accuracy{Voltage: 2, Current: 3}

// NewCodec returns the codec for a supply of family with the given number
// of channels.
func NewCodec(family Family, channels int, acc Accuracy) (Codec, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidChannel, channels)
	}
	switch family {
	case FamilyKorad:
		return newKorad(channels, acc), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownFamily, family)
}

// render fills a command template. Templates carry up to two slots, %1 and
// %2. A single slot with channel 0 takes the value; otherwise %1 is the
// channel and %2 the value.
func render(tmpl string, channel int, value string, hasValue bool) string {
	slots := 0
	if strings.Contains(tmpl, "%1") {
		slots++
	}
	if strings.Contains(tmpl, "%2") {
		slots++
	}

	switch {
	case slots == 0:
		return tmpl
	case slots == 1 && channel == 0:
		return strings.Replace(tmpl, "%1", value, 1)
	}

	out := strings.Replace(tmpl, "%1", strconv.Itoa(channel), 1)
	if hasValue {
		out = strings.Replace(out, "%2", value, 1)
	}
	return out
}

// formatValue renders v using decimals for floating point values.
func formatValue(v Value, decimals int) string {
	switch v.Kind {
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'f', decimals, 64)
	case ValueInt:
		return strconv.Itoa(v.Int)
	case ValueText:
		return v.Text
	}
	return ""
}
