package psu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crapp/labpowerqt-sub000/serial"
)

// State is the lifecycle state of a session.
type State int32

const (
	StateClosed State = iota
	StateOpening
	StateIdentifying
	StatePolling
	StateCommandInFlight
	StateErrorOpen
	StateErrorReadWrite
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateIdentifying:
		return "identifying"
	case StatePolling:
		return "polling"
	case StateCommandInFlight:
		return "command-in-flight"
	case StateErrorOpen:
		return "error-open"
	case StateErrorReadWrite:
		return "error-read-write"
	default:
		return "closed"
	}
}

const readChunk = 64

// Session drives one supply. A single worker goroutine owns the transport;
// the public methods only queue commands and never block on I/O.
type Session struct {
	cfg     Config
	codec   Codec
	queue   *Queue
	status  *Status
	opener  Opener
	handler Handler
	log     Logger
	now     func() time.Time

	mu   sync.Mutex
	done chan struct{} // closed when the worker returns

	running atomic.Bool
	state   atomic.Int32

	identMu        sync.RWMutex
	identification string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(s *Session) { s.handler = h }
}

// WithOpener replaces the serial port opener, mainly for tests.
func WithOpener(o Opener) Option {
	return func(s *Session) {
		if o != nil {
			s.opener = o
		}
	}
}

// NewSession validates cfg and builds an unconnected session.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := NewCodec(cfg.Family, cfg.Channels, cfg.Accuracy)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		codec:  codec,
		queue:  NewQueue(),
		status: NewStatus(),
		opener: OpenSerial,
		log:    nopLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Status returns the shared device status.
func (s *Session) Status() *Status { return s.status }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// QueueLen returns the number of commands waiting for the worker.
func (s *Session) QueueLen() int { return s.queue.Len() }

// Identification returns the device identification once it was read.
func (s *Session) Identification() string {
	s.identMu.RLock()
	defer s.identMu.RUnlock()
	return s.identification
}

// Connected reports whether the worker is running.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive()
}

func (s *Session) alive() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Connect starts the worker. The transport is opened by the worker; the
// outcome is reported as DeviceOpen or ErrorOpen.
func (s *Session) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alive() {
		return ErrAlreadyConnected
	}

	s.queue.Clear()
	s.running.Store(true)
	s.setState(StateOpening)
	s.done = make(chan struct{})
	go s.run(s.done)
	return nil
}

// Disconnect stops the worker and waits up to the stop timeout for it.
// A worker that does not return in time is abandoned, never killed: it
// closes the transport and emits BackgroundStopped whenever its current
// I/O completes, and Connect keeps failing until then.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return ErrNotConnected
	}

	s.running.Store(false)
	s.queue.Push(newSentinel())

	timer := time.NewTimer(s.cfg.StopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		s.log.Warn("worker did not stop, abandoning it; the serial port stays open until it returns",
			"device", s.cfg.Device,
			"timeout", s.cfg.StopTimeout,
		)
		return ErrStopTimeout
	}
}

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

func (s *Session) emit(e Event) {
	if s.handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("event handler panicked", "event", fmt.Sprintf("%T", e), "panic", r)
		}
	}()
	s.handler.HandleEvent(e)
}

func (s *Session) run(done chan struct{}) {
	defer close(done)
	defer s.emit(BackgroundStopped{})
	defer s.setState(StateClosed)

	t, err := s.opener(s.cfg.Device, s.cfg.Serial)
	if err != nil {
		s.setState(StateErrorOpen)
		s.log.Error("failed to open device", "device", s.cfg.Device, "error", err)
		s.emit(ErrorOpen{Device: s.cfg.Device, Err: err})
		return
	}
	defer func() {
		if err := t.Close(); err != nil {
			s.log.Warn("failed to close device", "device", s.cfg.Device, "error", err)
		}
	}()

	opened := s.now()
	s.log.Info("device opened", "device", s.cfg.Device, "name", s.cfg.Name, "serial", s.cfg.Serial.String())
	s.setState(StateIdentifying)
	s.emit(DeviceOpen{Device: s.cfg.Device})

	for _, cmd := range s.codec.InitCommands() {
		if !s.transfer(t, cmd) {
			continue
		}
		if cmd.Result.Err != nil {
			s.log.Warn("init command failed", "command", cmd.String(), "error", cmd.Result.Err)
			continue
		}
		s.remember(cmd)
	}

	s.setState(StatePolling)
	for s.running.Load() {
		s.step(t, opened)
	}
	s.log.Info("worker stopped", "device", s.cfg.Device)
}

func (s *Session) step(t Transport, opened time.Time) {
	cmd := s.queue.Pop()
	switch cmd.Kind {
	case KindSentinel:
		return
	case KindGetStatus:
		s.poll(t, opened)
		return
	}

	s.setState(StateCommandInFlight)
	defer s.setState(StatePolling)

	if !s.transfer(t, cmd) {
		return
	}
	if cmd.Result.Err == nil {
		s.remember(cmd)
	}
	s.emit(RequestFinished{Command: cmd})
}

func (s *Session) poll(t Transport, opened time.Time) {
	s.setState(StateCommandInFlight)
	defer s.setState(StatePolling)

	subs := s.codec.StatusCommands(s.cfg.Channels)
	for i, sub := range subs {
		sub.poll = true
		sub.lastPoll = i == len(subs)-1

		if !s.transfer(t, sub) {
			continue
		}
		if sub.Result.Err != nil {
			s.log.Warn("status reply not decoded", "command", sub.String(), "error", sub.Result.Err)
		}
		if sub.lastPoll {
			s.finishPoll(opened)
		}
	}
}

func (s *Session) finishPoll(opened time.Time) {
	now := s.now()
	s.status.SetTime(now)
	s.status.SetDuration(now.Sub(opened))

	if wc, ok := s.codec.(WattageCalculator); ok {
		if err := wc.CalculateWattage(s.status); err != nil {
			s.log.Debug("wattage incomplete", "error", err)
		}
	}
	s.emit(StatusReady{Status: s.status})
}

// remember keeps values the session itself cares about.
func (s *Session) remember(cmd *Command) {
	if cmd.Kind != KindGetIdentification {
		return
	}
	s.identMu.Lock()
	s.identification = cmd.Result.Value.Text
	s.identMu.Unlock()
}

// transfer executes one command. It returns false when the command was
// dropped because the write did not go out.
func (s *Session) transfer(t Transport, cmd *Command) bool {
	payload, err := s.codec.Encode(cmd)
	if err != nil {
		cmd.Result.Err = err
		return true
	}

	// Bytes left over from a late or truncated reply would be read as the
	// start of this command's reply.
	if err := t.FlushInput(); err != nil {
		s.ioError(err)
		return false
	}

	s.log.Debug("tx", "command", cmd.String(), "data", string(payload))
	if _, err := t.Write(payload); err != nil {
		s.ioError(err)
		return false
	}
	if err := t.WaitWritten(s.cfg.WriteTimeout); err != nil {
		if errors.Is(err, serial.ErrWriteTimeout) {
			s.log.Warn("write not flushed in time, command dropped", "command", cmd.String(), "error", err)
			if err := t.FlushOutput(); err != nil {
				s.log.Warn("failed to discard pending output", "device", s.cfg.Device, "error", err)
			}
			return false
		}
		s.ioError(err)
		return false
	}

	if !cmd.ExpectsReply {
		cmd.Result.Err = s.codec.Decode(nil, cmd, s.status)
		return true
	}

	reply, err := s.readReply(t, cmd.ReplyLength)
	if err != nil {
		if errors.Is(err, serial.ErrReadTimeout) {
			s.log.Warn("no reply", "command", cmd.String())
		} else {
			s.ioError(err)
		}
	}
	s.log.Debug("rx", "command", cmd.String(), "data", string(reply))

	cmd.Result.Raw = reply
	cmd.Result.Err = s.codec.Decode(reply, cmd, s.status)
	return true
}

// readReply waits for the first byte of a reply and then collects bytes
// until the line stays idle or limit bytes have arrived.
func (s *Session) readReply(t Transport, limit int) ([]byte, error) {
	buf := make([]byte, readChunk)
	n, err := t.ReadTimeout(buf, s.cfg.FirstByteTimeout)
	if err != nil {
		return nil, err
	}
	reply := append([]byte(nil), buf[:n]...)

	for limit <= 0 || len(reply) < limit {
		n, err := t.ReadTimeout(buf, s.cfg.IdleTimeout)
		if errors.Is(err, serial.ErrReadTimeout) {
			break
		}
		if err != nil {
			return reply, err
		}
		reply = append(reply, buf[:n]...)
	}
	if limit > 0 && len(reply) > limit {
		reply = reply[:limit]
	}
	return reply, nil
}

func (s *Session) ioError(err error) {
	prev := s.State()
	s.setState(StateErrorReadWrite)
	s.log.Error("serial i/o failed", "device", s.cfg.Device, "error", err)
	s.emit(ErrorReadWrite{Err: err})
	s.setState(prev)
}
