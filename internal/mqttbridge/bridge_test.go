package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crapp/labpowerqt-sub000/internal/control"
	"github.com/crapp/labpowerqt-sub000/psu"
)

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type fakeBroker struct {
	mu       sync.Mutex
	messages []published
	handlers map[string]MessageHandler
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]MessageHandler)}
}

func (f *fakeBroker) Publish(topic string, payload []byte, _ byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic, payload, retained})
	return nil
}

func (f *fakeBroker) Subscribe(topic string, _ byte, h MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = h
	return nil
}

func (f *fakeBroker) received() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.messages...)
}

// fakeTarget implements only the calls the tests make.
type fakeTarget struct {
	control.Target
	calls []string
}

func (f *fakeTarget) SetVoltage(ch int, v float64) (*psu.Command, error) {
	f.calls = append(f.calls, fmt.Sprintf("voltage %d %.2f", ch, v))
	return psu.NewCommand(psu.KindSetVoltage, ch, psu.Float(v)), nil
}

func (f *fakeTarget) SetOutput(ch int, on bool) (*psu.Command, error) {
	f.calls = append(f.calls, fmt.Sprintf("output %d %t", ch, on))
	return psu.NewCommand(psu.KindSetOutput, ch, psu.Bool(on)), nil
}

func (f *fakeTarget) SetOTP(bool) (*psu.Command, error) {
	return nil, psu.ErrUnsupported
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBridge(t *testing.T) (*Bridge, *fakeBroker, *fakeTarget) {
	t.Helper()
	broker := newFakeBroker()
	target := &fakeTarget{}
	b := New(broker, target, Topics{Prefix: "lab/", Device: "bench"}, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b, broker, target
}

func waitMessages(t *testing.T, broker *fakeBroker, n int) []published {
	t.Helper()
	require.Eventually(t, func() bool { return len(broker.received()) >= n }, time.Second, time.Millisecond)
	return broker.received()
}

func TestTopics(t *testing.T) {
	topics := Topics{Prefix: "lab/", Device: "bench"}
	assert.Equal(t, "lab/bench/status", topics.Status())
	assert.Equal(t, "lab/bench/set/#", topics.SetFilter())

	fields, ok := topics.SetFields("lab/bench/set/voltage/1")
	require.True(t, ok)
	assert.Equal(t, []string{"voltage", "1"}, fields)

	_, ok = topics.SetFields("lab/other/set/voltage/1")
	assert.False(t, ok)
}

func TestStatusReadyIsPublishedRetained(t *testing.T) {
	b, broker, _ := newTestBridge(t)

	status := psu.NewStatus()
	status.SetVoltageActual(1, 12)
	status.SetCurrentActual(1, 0.5)
	b.HandleEvent(psu.StatusReady{Status: status})

	msgs := waitMessages(t, broker, 1)
	assert.Equal(t, "lab/bench/status", msgs[0].topic)
	assert.True(t, msgs[0].retained)

	var snap psu.Snapshot
	require.NoError(t, json.Unmarshal(msgs[0].payload, &snap))
	require.Len(t, snap.Channels, 1)
	require.NotNil(t, snap.Channels[0].VoltageActual)
	assert.Equal(t, 12.0, *snap.Channels[0].VoltageActual)
}

func TestRequestFinishedIsPublished(t *testing.T) {
	b, broker, _ := newTestBridge(t)

	cmd := psu.NewCommand(psu.KindGetVoltage, 1, psu.NoValue)
	cmd.Result.Raw = []byte("05.00")
	cmd.Result.Value = psu.Float(5)
	b.HandleEvent(psu.RequestFinished{Command: cmd})

	msgs := waitMessages(t, broker, 1)
	assert.Equal(t, "lab/bench/result", msgs[0].topic)
	assert.False(t, msgs[0].retained)

	var res resultMessage
	require.NoError(t, json.Unmarshal(msgs[0].payload, &res))
	assert.Equal(t, cmd.ID.String(), res.ID)
	assert.Equal(t, "get-voltage", res.Kind)
	assert.Equal(t, "5", res.Value)
	assert.Empty(t, res.Error)
}

func TestLifecycleEvents(t *testing.T) {
	b, broker, _ := newTestBridge(t)

	b.HandleEvent(psu.DeviceOpen{Device: "/dev/ttyACM0"})
	b.HandleEvent(psu.ErrorReadWrite{Err: errors.New("usb gone")})
	b.HandleEvent(psu.BackgroundStopped{})

	msgs := waitMessages(t, broker, 3)
	var states []string
	for _, m := range msgs {
		assert.Equal(t, "lab/bench/state", m.topic)
		var st stateMessage
		require.NoError(t, json.Unmarshal(m.payload, &st))
		states = append(states, st.State)
	}
	assert.Equal(t, []string{"online", "io-error", "offline"}, states)
}

func TestSetRequests(t *testing.T) {
	b, broker, target := newTestBridge(t)
	require.NoError(t, b.Subscribe())

	handler := broker.handlers["lab/bench/set/#"]
	require.NotNil(t, handler)

	require.NoError(t, handler("lab/bench/set/voltage/2", []byte(" 12.5\n")))
	require.NoError(t, handler("lab/bench/set/output", []byte("on")))
	assert.Equal(t, []string{"voltage 2 12.50", "output 0 true"}, target.calls)

	assert.ErrorIs(t, handler("lab/bench/set/voltage/1", []byte("high")), control.ErrSyntax)
	assert.ErrorIs(t, handler("lab/bench/set/otp", []byte("on")), psu.ErrUnsupported)
	assert.Error(t, handler("lab/bench/status", nil))
}

func TestOutboxOverflowDrops(t *testing.T) {
	b := New(newFakeBroker(), &fakeTarget{}, Topics{Prefix: "lab", Device: "x"}, 0, testLogger())

	for i := 0; i < outboxSize+5; i++ {
		b.HandleEvent(psu.BackgroundStopped{})
	}
	assert.Equal(t, 5, b.Dropped())
}
