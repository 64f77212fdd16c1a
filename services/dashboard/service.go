package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huuvinhnguyen/alocoap/core/backend"
	"github.com/huuvinhnguyen/alocoap/core/csql"
	"github.com/huuvinhnguyen/alocoap/core/gauge"
	"github.com/huuvinhnguyen/alocoap/core/logger"
	"github.com/huuvinhnguyen/alocoap/dashboard"
	"github.com/huuvinhnguyen/alocoap/iot"
	"github.com/huuvinhnguyen/alocoap/iot/history"
	"github.com/huuvinhnguyen/alocoap/iot/metrics"
	"github.com/huuvinhnguyen/alocoap/iot/mqtt"
	"github.com/huuvinhnguyen/alocoap/iot/telemetry"
	"github.com/huuvinhnguyen/alocoap/iot/upstream"
	"github.com/huuvinhnguyen/alocoap/songs"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker" with DATABASE_DRIVER=postgres
type Service struct {
	Port             string `env:"PORT,optional,default=3000" description:"the HTTP port"`
	LogLevel         string `env:"LOG_LEVEL,optional,default=info" description:"The level used for logger, can be debug, warning, info, error"`
	DatabaseDriver   string `env:"DATABASE_DRIVER,optional,default=sqlite" description:"postgres or sqlite"`
	Postgres         string `env:"POSTGRES,optional" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password to the Postgres DB"`
	SQLitePath       string `env:"SQLITE_PATH,optional,default=alocoap.db" description:"the file of the sqlite database"`
	DBSchema         string `env:"DB_SCHEMA,optional,default=alocoap" description:"the Postgres schema"`

	MQTTListen string `env:"MQTT_LISTEN,optional,default=:1883" description:"the listen address of the embedded MQTT broker"`
	MQTTCACert string `env:"MQTT_CA_CERT,optional" description:"CA certificate file, enables TLS with client certificates"`
	MQTTCert   string `env:"MQTT_CERT,optional" description:"server certificate file"`
	MQTTKey    string `env:"MQTT_KEY,optional" description:"server private key file"`

	MQTTUpstreamURL      string `env:"MQTT_UPSTREAM_URL,optional" description:"an external MQTT broker to subscribe to, e.g. tls://broker:8883"`
	MQTTUpstreamUsername string `env:"MQTT_UPSTREAM_USERNAME,optional" description:"user name at the external broker"`
	MQTTUpstreamPassword string `env:"MQTT_UPSTREAM_PASSWORD,optional" description:"password at the external broker"`
	MQTTUpstreamTopic    string `env:"MQTT_UPSTREAM_TOPIC,optional,default=topic1/#" description:"the topic filter at the external broker"`

	KafkaBrokers string `env:"KAFKA_BROKERS,optional" description:"comma separated Kafka brokers, enables forwarding of readings"`
	KafkaTopic   string `env:"KAFKA_TOPIC,optional,default=alocoap.readings" description:"the Kafka topic for readings"`
}

// app is the wired service
type app struct {
	service   *Service
	router    *mux.Router
	db        *csql.DB
	fanout    *iot.Fanout
	broker    *mqtt.Broker
	hub       *dashboard.Hub
	upstream  *upstream.Subscriber
	forwarder *telemetry.Forwarder
}

func openDB(service *Service) (*csql.DB, error) {
	switch service.DatabaseDriver {
	case string(csql.Postgres):
		if service.Postgres == "" {
			return nil, errors.New("POSTGRES is required for the postgres driver")
		}
		return csql.OpenWithSchema(service.Postgres, service.PostgresPassword, service.DBSchema), nil
	case string(csql.SQLite):
		return csql.OpenSQLite(service.SQLitePath), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", service.DatabaseDriver)
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// newApp wires all components. Nothing runs until run is called.
func newApp(service *Service) (*app, error) {
	db, err := openDB(service)
	if err != nil {
		return nil, err
	}

	a := &app{
		service: service,
		router:  mux.NewRouter(),
		db:      db,
		fanout:  &iot.Fanout{},
	}

	backend.New(&backend.Builder{
		Router: a.router,
		DB:     db,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	a.broker = mqtt.NewBroker(&mqtt.Builder{
		ListenAddress: service.MQTTListen,
		CACertFile:    service.MQTTCACert,
		CertFile:      service.MQTTCert,
		KeyFile:       service.MQTTKey,
		Sink:          a.fanout,
	})

	displayMetrics := metrics.NewDisplay(registry)
	a.hub = dashboard.New(&dashboard.Builder{
		Router:    a.router,
		Display:   gauge.NewDisplay(displayMetrics.Gauge("temperature"), displayMetrics.Gauge("humidity")),
		Publisher: a.broker,
		Ingest:    a.fanout,
	})

	store := history.NewStore(db)
	store.HandleRoutes(a.router)

	songs.NewAPI(&songs.Builder{
		Store:  songs.NewStore(db),
		Router: a.router,
	})

	a.fanout.Add(a.hub, store, metrics.NewSensors(registry))

	if brokers := splitList(service.KafkaBrokers); len(brokers) > 0 {
		a.forwarder = telemetry.NewForwarder(&telemetry.Builder{
			Brokers: brokers,
			Topic:   service.KafkaTopic,
		})
		a.fanout.Add(a.forwarder)
	}

	if service.MQTTUpstreamURL != "" {
		a.upstream = upstream.NewSubscriber(&upstream.Builder{
			URL:      service.MQTTUpstreamURL,
			Username: service.MQTTUpstreamUsername,
			Password: service.MQTTUpstreamPassword,
			Topic:    service.MQTTUpstreamTopic,
			Sink:     a.fanout,
		})
	}
	return a, nil
}

// run serves HTTP and MQTT until ctx is done or the HTTP server fails
func (a *app) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	brokerDone := make(chan struct{})
	go func() {
		a.broker.Run(ctx)
		close(brokerDone)
	}()

	listener, err := net.Listen("tcp", ":"+a.service.Port)
	if err != nil {
		cancel()
		<-brokerDone
		return fmt.Errorf("cannot listen on port %s: %w", a.service.Port, err)
	}

	srv := &http.Server{
		Handler:           handlers.RecoveryHandler(handlers.RecoveryLogger(logger.Default()), handlers.PrintRecoveryStack(true))(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Default().Infoln("listen on", listener.Addr())
		serveErr <- srv.Serve(listener)
	}()

	if a.upstream != nil {
		// paho's connect timeout must not hold back the dashboard
		go func() {
			if err := a.upstream.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Default().WithError(err).Errorln("upstream broker not available")
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	cancel()
	a.hub.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Default().WithError(shutdownErr).Errorln("http shutdown")
	}
	<-brokerDone

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// close releases the database and flushes the telemetry forwarder
func (a *app) close() {
	if a.forwarder != nil {
		if err := a.forwarder.Close(); err != nil {
			logger.Default().WithError(err).Errorln("close kafka writer")
		}
	}
	a.db.Close()
}
