// Package mqttbridge publishes supply status to an MQTT broker and accepts
// set requests from it.
package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/crapp/labpowerqt-sub000/internal/control"
	"github.com/crapp/labpowerqt-sub000/psu"
)

const outboxSize = 64

type outgoing struct {
	topic    string
	payload  []byte
	retained bool
}

type stateMessage struct {
	State  string    `json:"state"`
	Device string    `json:"device,omitempty"`
	Error  string    `json:"error,omitempty"`
	Time   time.Time `json:"time"`
}

type resultMessage struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Channel int    `json:"channel,omitempty"`
	Value   string `json:"value,omitempty"`
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Bridge forwards session events to MQTT and MQTT set requests to the
// session. It implements psu.Handler; events are queued and published by
// Run so the session worker never waits on the network.
type Bridge struct {
	broker Broker
	target control.Target
	topics Topics
	qos    byte
	log    Logger

	outbox chan outgoing

	mu      sync.Mutex
	dropped int
}

var _ psu.Handler = (*Bridge)(nil)

// New creates a bridge. target receives requests from the set topics.
func New(broker Broker, target control.Target, topics Topics, qos byte, log Logger) *Bridge {
	return &Bridge{
		broker: broker,
		target: target,
		topics: topics,
		qos:    qos,
		log:    log,
		outbox: make(chan outgoing, outboxSize),
	}
}

// Subscribe starts listening on the set topics.
func (b *Bridge) Subscribe() error {
	return b.broker.Subscribe(b.topics.SetFilter(), b.qos, b.handleSet)
}

// Run publishes queued messages until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-b.outbox:
			if err := b.broker.Publish(msg.topic, msg.payload, b.qos, msg.retained); err != nil {
				b.log.Warn("mqtt publish failed", "topic", msg.topic, "error", err)
			}
		}
	}
}

// Dropped returns how many messages were discarded because the outbox was
// full.
func (b *Bridge) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// HandleEvent converts e into an MQTT message.
func (b *Bridge) HandleEvent(e psu.Event) {
	switch e := e.(type) {
	case psu.StatusReady:
		b.send(b.topics.Status(), e.Status.Snapshot(), true)
	case psu.RequestFinished:
		b.send(b.topics.Result(), newResult(e.Command), false)
	case psu.DeviceOpen:
		b.send(b.topics.State(), stateMessage{State: "online", Device: e.Device, Time: time.Now()}, true)
	case psu.ErrorOpen:
		b.send(b.topics.State(), stateMessage{State: "error", Device: e.Device, Error: e.Err.Error(), Time: time.Now()}, true)
	case psu.ErrorReadWrite:
		b.send(b.topics.State(), stateMessage{State: "io-error", Error: e.Err.Error(), Time: time.Now()}, true)
	case psu.BackgroundStopped:
		b.send(b.topics.State(), stateMessage{State: "offline", Time: time.Now()}, true)
	}
}

func newResult(cmd *psu.Command) resultMessage {
	r := resultMessage{
		ID:      cmd.ID.String(),
		Kind:    cmd.Kind.String(),
		Channel: cmd.Channel,
		Value:   cmd.Result.Value.String(),
		Reply:   string(cmd.Result.Raw),
	}
	if cmd.Result.Err != nil {
		r.Error = cmd.Result.Err.Error()
	}
	return r
}

func (b *Bridge) send(topic string, v any, retained bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.log.Error("encode mqtt payload", "topic", topic, "error", err)
		return
	}

	select {
	case b.outbox <- outgoing{topic: topic, payload: payload, retained: retained}:
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.log.Warn("mqtt outbox full, message dropped", "topic", topic)
	}
}

func (b *Bridge) handleSet(topic string, payload []byte) error {
	fields, ok := b.topics.SetFields(topic)
	if !ok {
		return fmt.Errorf("not a set topic: %s", topic)
	}
	if value := strings.TrimSpace(string(payload)); value != "" {
		fields = append(fields, value)
	}

	req, err := control.Parse(fields)
	if err != nil {
		return err
	}
	cmd, err := req.Apply(b.target)
	if err != nil {
		return err
	}
	b.log.Info("mqtt request queued", "request", req.String(), "id", cmd.ID.String())
	return nil
}
