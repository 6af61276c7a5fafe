package psu

import (
	"fmt"
	"time"

	"github.com/crapp/labpowerqt-sub000/serial"
)

// Config describes one supply and how to talk to it.
type Config struct {
	Device   string // e.g. /dev/ttyACM0
	Name     string // free-form label used in logs
	Family   Family
	Channels int
	Accuracy Accuracy
	Serial   serial.Config

	PollInterval     time.Duration
	WriteTimeout     time.Duration // wait for the output queue to drain
	FirstByteTimeout time.Duration // wait for the start of a reply
	IdleTimeout      time.Duration // gap that ends a reply
	StopTimeout      time.Duration // Disconnect wait for the worker
}

// DefaultConfig returns the settings for a single channel Korad supply.
func DefaultConfig() Config {
	return Config{
		Family:           FamilyKorad,
		Channels:         1,
		Accuracy:         DefaultAccuracy,
		Serial:           serial.DefaultConfig(),
		PollInterval:     time.Second,
		WriteTimeout:     1000 * time.Millisecond,
		FirstByteTimeout: 1000 * time.Millisecond,
		IdleTimeout:      10 * time.Millisecond,
		StopTimeout:      3000 * time.Millisecond,
	}
}

// Validate checks the config for values the session cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Device == "":
		return fmt.Errorf("%w: device path is empty", ErrInvalidConfig)
	case c.Channels < 1:
		return fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidConfig, c.Channels)
	case c.Accuracy.Voltage < 0 || c.Accuracy.Current < 0:
		return fmt.Errorf("%w: negative accuracy", ErrInvalidConfig)
	case c.WriteTimeout <= 0, c.FirstByteTimeout <= 0, c.IdleTimeout <= 0, c.StopTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}
