// Command simulator is a sensor device which publishes synthetic readings
// to the dashboard's MQTT broker
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/huuvinhnguyen/alocoap/core/logger"
)

// Service holds the configuration for this service
type Service struct {
	MQTTBroker string        `env:"MQTT_BROKER,optional,default=tcp://localhost:1883" description:"the broker URL"`
	DeviceID   string        `env:"DEVICE_ID,optional,default=simulator" description:"the device ID, also used as MQTT client ID"`
	Interval   time.Duration `env:"INTERVAL,optional,default=5s" description:"time between two readings"`
	LogLevel   string        `env:"LOG_LEVEL,optional,default=info" description:"The level used for logger, can be debug, warning, info, error"`
}

func main() {
	_ = godotenv.Load()

	service := &Service{}
	if err := envdecode.Decode(service); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		panic(err)
	}
	logger.InitLoggerFromString(service.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSimulator(service.MQTTBroker, service.DeviceID, service.Interval)
	if err := s.run(ctx); err != nil {
		logger.Default().WithError(err).Fatalln("simulator failed")
	}
}
