package serial

import (
	"fmt"
	"strings"
	"time"
)

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone     FlowControl = iota
	FlowControlHardware             // RTS/CTS
	FlowControlSoftware             // XON/XOFF
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlHardware:
		return "hardware"
	case FlowControlSoftware:
		return "software"
	default:
		return "none"
	}
}

// ParseFlowControl accepts none, hardware (rtscts) and software (xonxoff)
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return FlowControlNone, nil
	case "hardware", "rtscts":
		return FlowControlHardware, nil
	case "software", "xonxoff":
		return FlowControlSoftware, nil
	default:
		return FlowControlNone, fmt.Errorf("%w: flow control %q", ErrInvalidConfig, s)
	}
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	default:
		return "N"
	}
}

// ParseParity accepts none, odd and even (or their first letters)
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(s) {
	case "", "n", "none":
		return ParityNone, nil
	case "o", "odd":
		return ParityOdd, nil
	case "e", "even":
		return ParityEven, nil
	default:
		return ParityNone, fmt.Errorf("%w: parity %q", ErrInvalidConfig, s)
	}
}

// Config holds the configuration for a serial port
type Config struct {
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	FlowControl FlowControl
	ReadTimeout time.Duration // VTIME for the read after poll, multiple of 100ms
}

// Option is a functional option for configuring a serial port
type Option func(*Config) error

// DefaultConfig returns 9600 8N1 without flow control, the factory setting
// of most bench supplies.
func DefaultConfig() Config {
	return Config{
		BaudRate:    9600,
		DataBits:    8,
		StopBits:    1,
		Parity:      ParityNone,
		FlowControl: FlowControlNone,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// String renders the line settings the way device manuals do, e.g. "9600 8N1".
func (c Config) String() string {
	return fmt.Sprintf("%d %d%s%d", c.BaudRate, c.DataBits, c.Parity, c.StopBits)
}

// WithBaudRate sets the baud rate
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := getBaudRate(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDataBits sets the number of data bits (5, 6, 7, or 8)
func WithDataBits(bits int) Option {
	return func(c *Config) error {
		if bits < 5 || bits > 8 {
			return ErrInvalidConfig
		}
		c.DataBits = bits
		return nil
	}
}

// WithStopBits sets the number of stop bits (1 or 2)
func WithStopBits(bits int) Option {
	return func(c *Config) error {
		if bits != 1 && bits != 2 {
			return ErrInvalidConfig
		}
		c.StopBits = bits
		return nil
	}
}

// WithParity sets the parity mode
func WithParity(parity Parity) Option {
	return func(c *Config) error {
		if parity < ParityNone || parity > ParityEven {
			return ErrInvalidConfig
		}
		c.Parity = parity
		return nil
	}
}

// WithFlowControl sets the flow control mode
func WithFlowControl(fc FlowControl) Option {
	return func(c *Config) error {
		if fc < FlowControlNone || fc > FlowControlSoftware {
			return ErrInvalidConfig
		}
		c.FlowControl = fc
		return nil
	}
}

// WithReadTimeout sets the VTIME read timeout. The kernel counts in tenths
// of a second, so the duration must be a multiple of 100ms up to 25.5s.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 || timeout > 25500*time.Millisecond || timeout%(100*time.Millisecond) != 0 {
			return ErrInvalidConfig
		}
		c.ReadTimeout = timeout
		return nil
	}
}

// WithConfig replaces the whole configuration after validating every field.
func WithConfig(cfg Config) Option {
	return func(c *Config) error {
		for _, opt := range []Option{
			WithBaudRate(cfg.BaudRate),
			WithDataBits(cfg.DataBits),
			WithStopBits(cfg.StopBits),
			WithParity(cfg.Parity),
			WithFlowControl(cfg.FlowControl),
			WithReadTimeout(cfg.ReadTimeout),
		} {
			if err := opt(c); err != nil {
				return err
			}
		}
		return nil
	}
}
