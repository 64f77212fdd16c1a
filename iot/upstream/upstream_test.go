package upstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huuvinhnguyen/alocoap/iot"
)

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 1 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 1 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}

func TestDeviceFromTopic(t *testing.T) {
	assert.Equal(t, "kitchen", DeviceFromTopic("alocoap/kitchen/readings"))
	assert.Equal(t, "topic1/sensor", DeviceFromTopic("topic1/sensor"))
}

func TestOnMessage(t *testing.T) {
	var got []iot.Reading
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewSubscriber(&Builder{
		URL: "tcp://127.0.0.1:1",
		Sink: iot.SinkFunc(func(ctx context.Context, r iot.Reading) error {
			got = append(got, r)
			return nil
		}),
	})
	s.now = func() time.Time { return now }
	assert.Equal(t, DefaultTopic, s.topic)

	s.onMessage(nil, message{topic: "topic1/sensor", payload: []byte(`{"temperature":12,"humidity":70}`)})
	s.onMessage(nil, message{topic: "alocoap/kitchen/readings", payload: []byte(`{"temperature":30,"humidity":20}`)})
	s.onMessage(nil, message{topic: "topic1/sensor", payload: []byte(`garbage`)})

	require.Len(t, got, 2)
	assert.Equal(t, iot.Reading{DeviceID: "topic1/sensor", Temperature: 12, Humidity: 70, Timestamp: now}, got[0])
	assert.Equal(t, "kitchen", got[1].DeviceID)
}

func TestNewSubscriberPanics(t *testing.T) {
	assert.PanicsWithValue(t, "URL is missing", func() { NewSubscriber(&Builder{}) })
	assert.PanicsWithValue(t, "Sink is missing", func() { NewSubscriber(&Builder{URL: "tcp://localhost:1883"}) })
}

func TestStartFailsWithoutBroker(t *testing.T) {
	s := NewSubscriber(&Builder{
		URL:  "tcp://127.0.0.1:1",
		Sink: iot.SinkFunc(func(ctx context.Context, r iot.Reading) error { return nil }),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.Error(t, s.Start(ctx))
}
