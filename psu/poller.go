package psu

import (
	"context"
	"errors"
	"time"
)

// StatusRequester queues status polls. *Session implements it.
type StatusRequester interface {
	GetStatus() (*Command, error)
	QueueLen() int
}

// Poller requests a status poll at a fixed interval.
type Poller struct {
	target   StatusRequester
	interval time.Duration
	log      Logger
}

// NewPoller creates a poller for target.
func NewPoller(target StatusRequester, interval time.Duration, log Logger) *Poller {
	if log == nil {
		log = nopLogger{}
	}
	return &Poller{target: target, interval: interval, log: log}
}

// Run polls until ctx is cancelled. The first poll is requested right away.
func (p *Poller) Run(ctx context.Context) error {
	if p.interval <= 0 {
		return errors.New("psu: poll interval must be positive")
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.request()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.request()
		}
	}
}

func (p *Poller) request() {
	if _, err := p.target.GetStatus(); err != nil {
		p.log.Warn("status poll not queued", "error", err)
		return
	}
	if n := p.target.QueueLen(); n > 1 {
		p.log.Debug("command backlog", "queued", n)
	}
}
