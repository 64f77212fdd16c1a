package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huuvinhnguyen/alocoap/iot"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestForwarder(t *testing.T) {
	w := &fakeWriter{}
	f := &Forwarder{writer: w, topic: DefaultTopic}

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reading := iot.Reading{DeviceID: "kitchen", Temperature: 21.5, Humidity: 40, Timestamp: ts}
	require.NoError(t, f.HandleReading(context.Background(), reading))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "kitchen", string(w.messages[0].Key))
	assert.Equal(t, ts, w.messages[0].Time)
	var got iot.Reading
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &got))
	assert.Equal(t, reading, got)

	w.err = errors.New("broker down")
	assert.Error(t, f.HandleReading(context.Background(), reading))

	require.NoError(t, f.Close())
	assert.True(t, w.closed)
}

func TestNewForwarder(t *testing.T) {
	assert.PanicsWithValue(t, "Brokers are missing", func() { NewForwarder(&Builder{}) })

	f := NewForwarder(&Builder{Brokers: []string{"localhost:9092"}})
	assert.Equal(t, DefaultTopic, f.Topic())
	assert.NoError(t, f.Close())
}
