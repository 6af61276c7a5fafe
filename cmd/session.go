package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crapp/labpowerqt-sub000/psu"
)

// errNoPort is returned when a command needs a device but none was set.
var errNoPort = errors.New("no serial port given: use --port or device.port in the config file")

// sessionConfig returns the session settings of the loaded configuration.
func sessionConfig() (psu.Config, error) {
	sc, err := cfg.Session()
	if err != nil {
		return psu.Config{}, err
	}
	if sc.Device == "" {
		return psu.Config{}, errNoPort
	}
	return sc, nil
}

// newSession builds a session that reports to handler.
func newSession(handler psu.Handler) (*psu.Session, error) {
	sc, err := sessionConfig()
	if err != nil {
		return nil, err
	}
	return psu.NewSession(sc,
		psu.WithLogger(logger.With("device", sc.Name)),
		psu.WithHandler(handler),
	)
}

// eventQueue buffers session events for one-shot commands. Events that do
// not fit are dropped; the worker never waits on it.
type eventQueue chan psu.Event

func (q eventQueue) HandleEvent(e psu.Event) {
	select {
	case q <- e:
	default:
	}
}

// oneShot connects, queues a single request and waits for its result.
func oneShot(ctx context.Context, queue func(*psu.Session) (*psu.Command, error)) (*psu.Session, *psu.Command, error) {
	events := make(eventQueue, 64)
	s, err := newSession(events)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Connect(); err != nil {
		return nil, nil, err
	}

	cmd, err := queue(s)
	if err != nil {
		disconnect(s)
		return nil, nil, err
	}

	done, err := waitFinished(ctx, events, cmd)
	if err != nil {
		disconnect(s)
		return nil, nil, err
	}
	return s, done, nil
}

// waitFinished waits for the RequestFinished event of cmd. For status polls
// the StatusReady event that follows the request is awaited instead.
func waitFinished(ctx context.Context, events <-chan psu.Event, cmd *psu.Command) (*psu.Command, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", cmd.Kind, ctx.Err())
		case e := <-events:
			switch e := e.(type) {
			case psu.ErrorOpen:
				return nil, e
			case psu.ErrorReadWrite:
				return nil, e
			case psu.BackgroundStopped:
				return nil, fmt.Errorf("waiting for %s: %w", cmd.Kind, psu.ErrNotConnected)
			case psu.StatusReady:
				if cmd.Kind == psu.KindGetStatus {
					return cmd, nil
				}
			case psu.RequestFinished:
				if e.Command.ID == cmd.ID {
					return e.Command, nil
				}
			}
		}
	}
}

func disconnect(s *psu.Session) {
	if err := s.Disconnect(); err != nil && !errors.Is(err, psu.ErrNotConnected) {
		logger.Warn("disconnect failed", "error", err)
	}
}

// requestTimeout bounds one-shot commands: open, init and one exchange.
func requestTimeout(c psu.Config) time.Duration {
	return 2*c.PollInterval + 4*(c.WriteTimeout+c.FirstByteTimeout) + time.Second
}
