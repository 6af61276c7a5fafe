package psu

import (
	"time"

	"github.com/crapp/labpowerqt-sub000/serial"
)

// Transport is the byte link to a supply. It is used by the worker goroutine
// only. Timeouts are reported as serial.ErrWriteTimeout and
// serial.ErrReadTimeout.
type Transport interface {
	Write(p []byte) (int, error)
	WaitWritten(timeout time.Duration) error
	ReadTimeout(buf []byte, timeout time.Duration) (int, error)
	FlushInput() error
	FlushOutput() error
	Close() error
}

// Opener opens the transport for device.
type Opener func(device string, cfg serial.Config) (Transport, error)

// OpenSerial opens device as a termios serial port.
func OpenSerial(device string, cfg serial.Config) (Transport, error) {
	return serial.Open(device, serial.WithConfig(cfg))
}
