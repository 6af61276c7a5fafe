package psu

import "fmt"

// Event is delivered to the session handler from the worker goroutine.
type Event interface {
	event()
}

// DeviceOpen is emitted once the transport was opened.
type DeviceOpen struct {
	Device string
}

// ErrorOpen is emitted when the transport could not be opened. The worker
// stops afterwards.
type ErrorOpen struct {
	Device string
	Err    error
}

// ErrorReadWrite is emitted for transport failures other than timeouts.
// The session keeps running.
type ErrorReadWrite struct {
	Err error
}

// RequestFinished carries a standalone command with its result filled in.
type RequestFinished struct {
	Command *Command
}

// StatusReady is emitted after the last sub-command of a status poll.
type StatusReady struct {
	Status *Status
}

// BackgroundStopped is the last event of a session run.
type BackgroundStopped struct{}

func (DeviceOpen) event()        {}
func (ErrorOpen) event()         {}
func (ErrorReadWrite) event()    {}
func (RequestFinished) event()   {}
func (StatusReady) event()       {}
func (BackgroundStopped) event() {}

func (e ErrorOpen) Error() string      { return fmt.Sprintf("open %s: %v", e.Device, e.Err) }
func (e ErrorOpen) Unwrap() error      { return e.Err }
func (e ErrorReadWrite) Error() string { return fmt.Sprintf("read/write: %v", e.Err) }
func (e ErrorReadWrite) Unwrap() error { return e.Err }

// Handler receives session events. HandleEvent runs on the worker goroutine
// and must not block.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event)

func (f HandlerFunc) HandleEvent(e Event) { f(e) }
