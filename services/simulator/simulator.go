package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/goccy/go-json"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/huuvinhnguyen/alocoap/core/logger"
	"github.com/huuvinhnguyen/alocoap/iot"
)

// sample is the payload a device publishes
type sample struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
}

// weather produces slowly drifting synthetic samples
type weather struct {
	rnd         *rand.Rand
	temperature float64
	humidity    float64
}

func newWeather(seed int64) *weather {
	return &weather{rnd: rand.New(rand.NewSource(seed)), temperature: 20, humidity: 50}
}

func (w *weather) next(t time.Time) sample {
	w.temperature = math.Max(-15, math.Min(45, w.temperature+w.rnd.NormFloat64()))
	w.humidity = math.Max(0, math.Min(100, w.humidity+2*w.rnd.NormFloat64()))
	return sample{
		Temperature: math.Round(w.temperature*10) / 10,
		Humidity:    math.Round(w.humidity*10) / 10,
		Timestamp:   t.UTC(),
	}
}

// simulator publishes synthetic readings for one device
type simulator struct {
	client   mqtt.Client
	deviceID string
	interval time.Duration
	weather  *weather
}

func newSimulator(brokerURL, deviceID string, interval time.Duration) *simulator {
	s := &simulator{
		deviceID: deviceID,
		interval: interval,
		weather:  newWeather(time.Now().UnixNano()),
	}
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(deviceID).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect)
	s.client = mqtt.NewClient(opts)
	return s
}

func (s *simulator) onConnect(c mqtt.Client) {
	logger.Default().Infoln("connected as", s.deviceID)
	token := c.Subscribe(iot.DisplayTopic(s.deviceID), 1, func(c mqtt.Client, m mqtt.Message) {
		logger.Default().Infof("display: %s", m.Payload())
	})
	go func() {
		if token.Wait() && token.Error() != nil {
			logger.Default().WithError(token.Error()).Errorln("subscribe display topic")
		}
	}()
}

// run publishes a reading every interval until ctx is done
func (s *simulator) run(ctx context.Context) error {
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("cannot connect: %w", token.Error())
	}
	defer s.client.Disconnect(250)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			payload, err := json.Marshal(s.weather.next(t))
			if err != nil {
				return err
			}
			token := s.client.Publish(iot.ReadingsTopic(s.deviceID), 1, false, payload)
			token.Wait()
			if token.Error() != nil {
				logger.Default().WithError(token.Error()).Warnln("publish reading")
				continue
			}
			logger.Default().Debugf("published %s", payload)
		}
	}
}
