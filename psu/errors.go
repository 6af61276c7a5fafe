package psu

import "errors"

// Domain errors for the psu package.
var (
	// ErrNotFound is returned when a status field has never been observed.
	ErrNotFound = errors.New("psu: value not found")

	// ErrUnsupported is returned when the device family has no wire form
	// for a command kind.
	ErrUnsupported = errors.New("psu: command not supported by device family")

	// ErrUnknownFamily is returned for a family name or value without a codec.
	ErrUnknownFamily = errors.New("psu: unknown device family")

	// ErrInvalidChannel is returned for channel numbers outside 1..N.
	ErrInvalidChannel = errors.New("psu: invalid channel")

	// ErrInvalidArgument is returned for out-of-range command values.
	ErrInvalidArgument = errors.New("psu: invalid argument")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("psu: invalid configuration")

	// ErrNotConnected is returned when commands are issued to a session
	// whose worker is not running.
	ErrNotConnected = errors.New("psu: session not connected")

	// ErrAlreadyConnected is returned by Connect while a worker is alive.
	ErrAlreadyConnected = errors.New("psu: session already connected")

	// ErrStopTimeout is returned by Disconnect when the worker did not exit
	// within the stop timeout.
	ErrStopTimeout = errors.New("psu: worker did not stop in time")

	// ErrMalformedReply is returned when a reply cannot be decoded.
	ErrMalformedReply = errors.New("psu: malformed reply")
)
