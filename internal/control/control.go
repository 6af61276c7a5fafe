// Package control turns textual requests such as "voltage 1 12.5" into
// session commands. The CLI, the watch screen and the MQTT bridge share it.
package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/crapp/labpowerqt-sub000/psu"
)

// ErrSyntax is returned for requests that cannot be parsed.
var ErrSyntax = errors.New("control: invalid request")

// Action is a request verb.
type Action string

const (
	ActionVoltage  Action = "voltage"
	ActionCurrent  Action = "current"
	ActionOutput   Action = "output"
	ActionOCP      Action = "ocp"
	ActionOVP      Action = "ovp"
	ActionOTP      Action = "otp"
	ActionBeep     Action = "beep"
	ActionLock     Action = "lock"
	ActionTracking Action = "tracking"
	ActionRecall   Action = "recall"
	ActionSave     Action = "save"
	ActionIdentify Action = "identify"
	ActionStatus   Action = "status"
)

var aliases = map[string]Action{
	"voltage": ActionVoltage, "v": ActionVoltage, "vset": ActionVoltage,
	"current": ActionCurrent, "i": ActionCurrent, "iset": ActionCurrent,
	"output": ActionOutput, "out": ActionOutput,
	"ocp": ActionOCP, "ovp": ActionOVP, "otp": ActionOTP,
	"beep": ActionBeep, "beeper": ActionBeep,
	"lock": ActionLock, "locked": ActionLock,
	"tracking": ActionTracking, "track": ActionTracking,
	"recall": ActionRecall, "rcl": ActionRecall,
	"save": ActionSave, "sav": ActionSave,
	"identify": ActionIdentify, "idn": ActionIdentify,
	"status": ActionStatus,
}

// Request is a parsed request. Channel is 0 when none was given.
type Request struct {
	Action  Action
	Channel int
	Value   string
}

// Target is the part of psu.Session that requests are applied to.
type Target interface {
	GetIdentification() (*psu.Command, error)
	GetStatus() (*psu.Command, error)
	SetVoltage(channel int, volts float64) (*psu.Command, error)
	SetCurrent(channel int, amps float64) (*psu.Command, error)
	SetOutput(channel int, on bool) (*psu.Command, error)
	SetOCP(on bool) (*psu.Command, error)
	SetOVP(on bool) (*psu.Command, error)
	SetOTP(on bool) (*psu.Command, error)
	SetBeep(on bool) (*psu.Command, error)
	SetLocked(on bool) (*psu.Command, error)
	SetTracking(mode psu.TrackingMode) (*psu.Command, error)
	RecallMemory(n int) (*psu.Command, error)
	SaveMemory(n int) (*psu.Command, error)
}

var _ Target = (*psu.Session)(nil)

// Parse reads "<action> [channel] [value]". Voltage and current need a
// channel; output takes an optional one.
func Parse(fields []string) (Request, error) {
	if len(fields) == 0 {
		return Request{}, fmt.Errorf("%w: empty request", ErrSyntax)
	}
	action, ok := aliases[strings.ToLower(fields[0])]
	if !ok {
		return Request{}, fmt.Errorf("%w: unknown action %q", ErrSyntax, fields[0])
	}
	args := fields[1:]
	req := Request{Action: action}

	switch action {
	case ActionIdentify, ActionStatus:
		if len(args) != 0 {
			return Request{}, fmt.Errorf("%w: %s takes no arguments", ErrSyntax, action)
		}
		return req, nil

	case ActionVoltage, ActionCurrent:
		if len(args) != 2 {
			return Request{}, fmt.Errorf("%w: usage: %s <channel> <value>", ErrSyntax, action)
		}
		ch, err := parseChannel(args[0])
		if err != nil {
			return Request{}, err
		}
		req.Channel, req.Value = ch, args[1]

	case ActionOutput:
		switch len(args) {
		case 1:
			req.Value = args[0]
		case 2:
			ch, err := parseChannel(args[0])
			if err != nil {
				return Request{}, err
			}
			req.Channel, req.Value = ch, args[1]
		default:
			return Request{}, fmt.Errorf("%w: usage: output [channel] on|off", ErrSyntax)
		}

	default:
		if len(args) != 1 {
			return Request{}, fmt.Errorf("%w: usage: %s <value>", ErrSyntax, action)
		}
		req.Value = args[0]
	}
	return req, req.check()
}

// ParseLine splits line on whitespace and parses it.
func ParseLine(line string) (Request, error) {
	return Parse(strings.Fields(line))
}

func parseChannel(s string) (int, error) {
	ch, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(s), "ch"))
	if err != nil || ch < 0 {
		return 0, fmt.Errorf("%w: channel %q", ErrSyntax, s)
	}
	return ch, nil
}

// check validates the value syntax so errors surface before anything is
// queued.
func (r Request) check() error {
	switch r.Action {
	case ActionVoltage, ActionCurrent:
		_, err := r.floatValue()
		return err
	case ActionTracking:
		_, err := psu.ParseTrackingMode(strings.ToLower(r.Value))
		return err
	case ActionRecall, ActionSave:
		_, err := r.intValue()
		return err
	case ActionIdentify, ActionStatus:
		return nil
	default:
		_, err := r.boolValue()
		return err
	}
}

func (r Request) floatValue() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", ErrSyntax, r.Action, r.Value)
	}
	return v, nil
}

func (r Request) intValue() (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(r.Value))
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", ErrSyntax, r.Action, r.Value)
	}
	return v, nil
}

func (r Request) boolValue() (bool, error) {
	switch strings.ToLower(strings.TrimSpace(r.Value)) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s expects on or off, got %q", ErrSyntax, r.Action, r.Value)
}

func (r Request) String() string {
	parts := []string{string(r.Action)}
	if r.Channel != 0 {
		parts = append(parts, strconv.Itoa(r.Channel))
	}
	if r.Value != "" {
		parts = append(parts, r.Value)
	}
	return strings.Join(parts, " ")
}

// Apply queues the request on t.
func (r Request) Apply(t Target) (*psu.Command, error) {
	if err := r.check(); err != nil {
		return nil, err
	}

	switch r.Action {
	case ActionIdentify:
		return t.GetIdentification()
	case ActionStatus:
		return t.GetStatus()
	case ActionVoltage:
		v, _ := r.floatValue()
		return t.SetVoltage(r.Channel, v)
	case ActionCurrent:
		v, _ := r.floatValue()
		return t.SetCurrent(r.Channel, v)
	case ActionTracking:
		mode, _ := psu.ParseTrackingMode(strings.ToLower(r.Value))
		return t.SetTracking(mode)
	case ActionRecall:
		n, _ := r.intValue()
		return t.RecallMemory(n)
	case ActionSave:
		n, _ := r.intValue()
		return t.SaveMemory(n)
	}

	on, _ := r.boolValue()
	switch r.Action {
	case ActionOutput:
		return t.SetOutput(r.Channel, on)
	case ActionOCP:
		return t.SetOCP(on)
	case ActionOVP:
		return t.SetOVP(on)
	case ActionOTP:
		return t.SetOTP(on)
	case ActionBeep:
		return t.SetBeep(on)
	case ActionLock:
		return t.SetLocked(on)
	}
	return nil, fmt.Errorf("%w: unknown action %q", ErrSyntax, r.Action)
}
