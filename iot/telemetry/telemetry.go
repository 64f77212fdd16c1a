// Package telemetry forwards readings to a Kafka topic
//
// Every reading becomes one message keyed by the device ID, so all readings of a
// device land in the same partition in order.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"github.com/huuvinhnguyen/alocoap/core/logger"
	"github.com/huuvinhnguyen/alocoap/iot"
)

// DefaultTopic is the Kafka topic used if none is configured
const DefaultTopic = "alocoap.readings"

const writeTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Forwarder is a ReadingSink which writes readings to Kafka
type Forwarder struct {
	writer messageWriter
	topic  string
}

// Builder is a builder helper for the Forwarder
type Builder struct {
	// Brokers are the Kafka bootstrap brokers. This is mandatory.
	Brokers []string
	// Topic is the Kafka topic. Default is DefaultTopic.
	Topic string
}

// NewForwarder returns a new forwarder
func NewForwarder(bb *Builder) *Forwarder {
	if len(bb.Brokers) == 0 {
		panic("Brokers are missing")
	}
	topic := bb.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	logger.Default().Infof("forwarding readings to kafka topic %s on %v", topic, bb.Brokers)
	return &Forwarder{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(bb.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Topic returns the Kafka topic
func (f *Forwarder) Topic() string {
	return f.topic
}

// HandleReading implements iot.ReadingSink
func (f *Forwarder) HandleReading(ctx context.Context, reading iot.Reading) error {
	value, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("cannot marshal reading: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err = f.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(reading.DeviceID),
		Value: value,
		Time:  reading.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("cannot write reading to kafka: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer
func (f *Forwarder) Close() error {
	return f.writer.Close()
}
