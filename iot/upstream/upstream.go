// Package upstream subscribes to readings on an external MQTT broker
//
// Hosted brokers are useful when devices are not on the same network as the
// dashboard. The device ID of a message is the middle segment of an
// alocoap/{device_id}/readings topic, otherwise the full topic.
package upstream

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/huuvinhnguyen/alocoap/core/logger"
	"github.com/huuvinhnguyen/alocoap/iot"
)

// DefaultTopic is the topic filter subscribed to if none is configured
const DefaultTopic = "topic1/#"

// Subscriber receives readings from an external MQTT broker
type Subscriber struct {
	client mqtt.Client
	topic  string
	sink   iot.ReadingSink
	now    func() time.Time
}

// Builder is a builder helper for the Subscriber
type Builder struct {
	// URL is the broker URL, for example tls://broker.example.com:8883. This is mandatory.
	URL string
	// Username and Password authenticate at the broker. Optional.
	Username string
	Password string
	// ClientID is the MQTT client ID. Default is a random ID.
	ClientID string
	// Topic is the topic filter. Default is DefaultTopic.
	Topic string
	// Sink receives all valid readings. This is mandatory.
	Sink iot.ReadingSink
}

// NewSubscriber returns a new subscriber. It does not connect until Start is called.
func NewSubscriber(bb *Builder) *Subscriber {
	if bb.URL == "" {
		panic("URL is missing")
	}
	if bb.Sink == nil {
		panic("Sink is missing")
	}

	s := &Subscriber{
		topic: bb.Topic,
		sink:  bb.Sink,
		now:   time.Now,
	}
	if s.topic == "" {
		s.topic = DefaultTopic
	}

	clientID := bb.ClientID
	if clientID == "" {
		clientID = "alocoap-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(bb.URL).
		SetClientID(clientID).
		SetUsername(bb.Username).
		SetPassword(bb.Password).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Default().WithError(err).Warnln("upstream connection lost")
		})
	s.client = mqtt.NewClient(opts)
	return s
}

// Start connects to the broker and subscribes. The subscription is renewed on every
// reconnect. The subscriber disconnects when ctx is done.
func (s *Subscriber) Start(ctx context.Context) error {
	token := s.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("cannot connect upstream broker: %w", err)
	}

	go func() {
		<-ctx.Done()
		s.client.Disconnect(250)
		logger.Default().Infoln("upstream disconnected")
	}()
	return nil
}

func (s *Subscriber) onConnect(c mqtt.Client) {
	logger.Default().Infoln("upstream connected, subscribing to", s.topic)
	token := c.Subscribe(s.topic, 1, s.onMessage)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			logger.Default().WithError(err).Errorln("Error 2101: upstream subscribe", s.topic)
		}
	}()
}

// DeviceFromTopic returns the device ID for a message topic
func DeviceFromTopic(topic string) string {
	if deviceID, ok := iot.DeviceFromTopic(topic); ok {
		return deviceID
	}
	return topic
}

func (s *Subscriber) onMessage(c mqtt.Client, m mqtt.Message) {
	deviceID := DeviceFromTopic(m.Topic())
	ctx, rlog := logger.ContextWithLoggerIdentity(context.Background(), deviceID)
	reading, err := iot.ParseReading(deviceID, m.Payload(), s.now())
	if err != nil {
		rlog.WithError(err).Warnln("dropping upstream message on", m.Topic())
		return
	}
	if err := s.sink.HandleReading(ctx, reading); err != nil {
		rlog.WithError(err).Errorln("Error 2102: handle upstream reading")
	}
}
