package psu

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Kind identifies one wire operation.
type Kind int

const (
	KindSentinel Kind = iota // unblocks the worker, never written
	KindGetStatus            // composite, expanded by the codec
	KindGetIdentification
	KindGetStatusByte
	KindSetVoltage
	KindGetVoltage
	KindGetActualVoltage
	KindSetCurrent
	KindGetCurrent
	KindGetActualCurrent
	KindSetOutput
	KindSetOCP
	KindSetOVP
	KindSetOTP
	KindSetBeep
	KindSetLocked
	KindSetTracking
	KindRecallMemory
	KindSaveMemory
)

var kindNames = map[Kind]string{
	KindSentinel:          "sentinel",
	KindGetStatus:         "get-status",
	KindGetIdentification: "get-identification",
	KindGetStatusByte:     "get-status-byte",
	KindSetVoltage:        "set-voltage",
	KindGetVoltage:        "get-voltage",
	KindGetActualVoltage:  "get-actual-voltage",
	KindSetCurrent:        "set-current",
	KindGetCurrent:        "get-current",
	KindGetActualCurrent:  "get-actual-current",
	KindSetOutput:         "set-output",
	KindSetOCP:            "set-ocp",
	KindSetOVP:            "set-ovp",
	KindSetOTP:            "set-otp",
	KindSetBeep:           "set-beep",
	KindSetLocked:         "set-locked",
	KindSetTracking:       "set-tracking",
	KindRecallMemory:      "recall-memory",
	KindSaveMemory:        "save-memory",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsQuery reports whether the device answers this kind of command.
func (k Kind) IsQuery() bool {
	switch k {
	case KindGetIdentification, KindGetStatusByte,
		KindGetVoltage, KindGetActualVoltage,
		KindGetCurrent, KindGetActualCurrent:
		return true
	}
	return false
}

// ValueKind tags the content of a Value.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueFloat
	ValueInt
	ValueText
)

// Value is the optional argument or parsed result of a command.
type Value struct {
	Kind  ValueKind
	Float float64
	Int   int
	Text  string
}

// NoValue is the absent value.
var NoValue = Value{}

// Float returns a numeric value rendered with the codec's decimal accuracy.
func Float(f float64) Value { return Value{Kind: ValueFloat, Float: f} }

// Int returns an integer value.
func Int(i int) Value { return Value{Kind: ValueInt, Int: i} }

// Bool returns 1 or 0.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Text returns a string value.
func Text(s string) Value { return Value{Kind: ValueText, Text: s} }

// IsSet reports whether the value is present.
func (v Value) IsSet() bool { return v.Kind != ValueNone }

func (v Value) String() string {
	switch v.Kind {
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case ValueInt:
		return strconv.Itoa(v.Int)
	case ValueText:
		return v.Text
	default:
		return ""
	}
}

// Result is filled in by the worker after the command was executed.
type Result struct {
	Raw   []byte
	Value Value
	Err   error
}

// Command is one unit of work for the session worker. Apart from Result it
// is not modified after it has been queued, and only the worker touches
// Result until the command is handed to the event handler.
type Command struct {
	ID           uuid.UUID
	Kind         Kind
	Channel      int // 1-based, 0 means device-wide
	Value        Value
	ExpectsReply bool
	ReplyLength  int // when > 0, reading stops after this many bytes

	Result Result

	poll     bool
	lastPoll bool
}

// NewCommand builds a command; queries are marked as expecting a reply.
func NewCommand(kind Kind, channel int, value Value) *Command {
	return &Command{
		ID:           uuid.New(),
		Kind:         kind,
		Channel:      channel,
		Value:        value,
		ExpectsReply: kind.IsQuery(),
	}
}

func newSentinel() *Command {
	return &Command{Kind: KindSentinel}
}

// IsStatusPoll reports whether the command was expanded from a status request.
func (c *Command) IsStatusPoll() bool { return c.poll }

func (c *Command) String() string {
	s := c.Kind.String()
	if c.Channel != 0 {
		s += fmt.Sprintf(" ch%d", c.Channel)
	}
	if c.Value.IsSet() {
		s += " " + c.Value.String()
	}
	return s
}
