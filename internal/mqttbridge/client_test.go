package mqttbridge

import (
	"errors"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crapp/labpowerqt-sub000/internal/config"
)

type fakeToken struct {
	completed bool
	err       error
}

func (t *fakeToken) Wait() bool                     { return t.completed }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.completed }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.completed {
		close(ch)
	}
	return ch
}

// fakePaho implements the calls Connect makes.
type fakePaho struct {
	pahomqtt.Client

	mu           sync.Mutex
	connect      *fakeToken
	disconnected bool
}

func (f *fakePaho) Connect() pahomqtt.Token { return f.connect }

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

func (f *fakePaho) IsConnected() bool { return false }

func withFakePaho(t *testing.T, fake *fakePaho) {
	t.Helper()
	orig := newPahoClient
	newPahoClient = func(*pahomqtt.ClientOptions) pahomqtt.Client { return fake }
	t.Cleanup(func() { newPahoClient = orig })
}

func TestConnectFailureStopsRetrying(t *testing.T) {
	refused := errors.New("connection refused")

	tests := []struct {
		name  string
		token *fakeToken
	}{
		{"timeout", &fakeToken{completed: false}},
		{"error", &fakeToken{completed: true, err: refused}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePaho{connect: tt.token}
			withFakePaho(t, fake)

			cfg := config.MQTTConfig{Broker: "tcp://127.0.0.1:1883", ClientID: "labpsu-test"}
			c, err := Connect(cfg, "lab/psu/state", testLogger())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConnectionFailed)
			assert.Nil(t, c)

			fake.mu.Lock()
			defer fake.mu.Unlock()
			assert.True(t, fake.disconnected)
		})
	}
}

func TestConnectSucceeds(t *testing.T) {
	fake := &fakePaho{connect: &fakeToken{completed: true}}
	withFakePaho(t, fake)

	cfg := config.MQTTConfig{Broker: "tcp://127.0.0.1:1883", ClientID: "labpsu-test"}
	c, err := Connect(cfg, "", testLogger())
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.False(t, fake.disconnected)
	assert.ErrorIs(t, c.Publish("lab/psu/status", []byte("{}"), 0, false), ErrNotConnected)
}
