// Command dashboard runs the sensor dashboard with its embedded MQTT broker,
// the reading history and the songs API
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/huuvinhnguyen/alocoap/core/logger"
)

func main() {
	// a .env file is optional
	_ = godotenv.Load()

	service := &Service{}
	if err := envdecode.Decode(service); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		panic(err)
	}
	logger.InitLoggerFromString(service.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(service)
	if err != nil {
		logger.Default().WithError(err).Fatalln("cannot configure service")
	}
	defer a.close()

	if err := a.run(ctx); err != nil {
		logger.Default().WithError(err).Errorln("service stopped")
		return
	}
	logger.Default().Infoln("service stopped")
}
