// Package test runs the alocoap HTTP API against postgres and Kafka in containers.
//
// The suite needs docker and only runs with ALOCOAP_INTEGRATION=1.
package test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/huuvinhnguyen/alocoap/core/backend"
	"github.com/huuvinhnguyen/alocoap/core/client"
	"github.com/huuvinhnguyen/alocoap/core/csql"
	"github.com/huuvinhnguyen/alocoap/dashboard"
	"github.com/huuvinhnguyen/alocoap/iot"
	"github.com/huuvinhnguyen/alocoap/iot/history"
	"github.com/huuvinhnguyen/alocoap/iot/telemetry"
	"github.com/huuvinhnguyen/alocoap/songs"
)

const readingsTopic = "alocoap.readings.test"

// IntegrationTestSuite starts postgres and Kafka and serves the API from them
type IntegrationTestSuite struct {
	suite.Suite

	network           *testcontainers.DockerNetwork
	kafkaContainer    testcontainers.Container
	zookeeper         testcontainers.Container
	postgresContainer testcontainers.Container
	kafkaAddr         string

	db        *csql.DB
	router    *mux.Router
	server    *httptest.Server
	client    client.Client
	forwarder *telemetry.Forwarder
}

func (s *IntegrationTestSuite) createTopic(topic string, numPartitions int) error {
	conn, err := kafka.Dial("tcp", s.kafkaAddr)
	if err != nil {
		return fmt.Errorf("kafka connection is not established: %w", err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", topic, err)
	}
	return nil
}

func (s *IntegrationTestSuite) SetupSuite() {
	if os.Getenv("ALOCOAP_INTEGRATION") == "" {
		s.T().Skip("set ALOCOAP_INTEGRATION to run the integration suite")
	}
	ctx := context.Background()

	net, err := network.New(ctx)
	s.Require().NoError(err)
	s.network = net
	networkName := net.Name

	postgresUser := "testuser"
	postgresPassword := "testpass"
	postgresDB := "testdb"

	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDB,
			},
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"postgres"}},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.postgresContainer = pgC

	pgHost, err := pgC.Host(ctx)
	s.Require().NoError(err)
	pgPort, err := pgC.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	zooC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "confluentinc/cp-zookeeper:7.5.0",
			ExposedPorts: []string{"2181/tcp"},
			Env: map[string]string{
				"ZOOKEEPER_CLIENT_PORT": "2181",
				"ZOOKEEPER_TICK_TIME":   "2000",
			},
			WaitingFor:     wait.ForListeningPort("2181/tcp"),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"zookeeper"}},
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.zookeeper = zooC

	kafkaC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "confluentinc/cp-kafka:7.5.0",
			ExposedPorts: []string{"9092:9092/tcp"},
			Env: map[string]string{
				"KAFKA_BROKER_ID":                        "1",
				"KAFKA_ZOOKEEPER_CONNECT":                "zookeeper:2181",
				"KAFKA_LISTENERS":                        "PLAINTEXT://0.0.0.0:9092,INTERNAL://0.0.0.0:9093",
				"KAFKA_ADVERTISED_LISTENERS":             "PLAINTEXT://localhost:9092,INTERNAL://kafka:9093",
				"KAFKA_LISTENER_SECURITY_PROTOCOL_MAP":   "PLAINTEXT:PLAINTEXT,INTERNAL:PLAINTEXT",
				"KAFKA_INTER_BROKER_LISTENER_NAME":       "INTERNAL",
				"KAFKA_OFFSETS_TOPIC_REPLICATION_FACTOR": "1",
			},
			WaitingFor:     wait.ForLog("started (kafka.server.KafkaServer)"),
			Networks:       []string{networkName},
			NetworkAliases: map[string][]string{networkName: {"kafka"}},
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.kafkaContainer = kafkaC

	kafkaHost, err := kafkaC.Host(ctx)
	s.Require().NoError(err)
	kafkaPort, err := kafkaC.MappedPort(ctx, "9092")
	s.Require().NoError(err)
	s.kafkaAddr = fmt.Sprintf("%s:%s", kafkaHost, kafkaPort.Port())
	s.Require().NoError(s.createTopic(readingsTopic, 1))

	s.db = csql.OpenWithSchema(fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		pgHost, pgPort.Port(), postgresUser, postgresDB), postgresPassword, "alocoap_test")

	s.router = mux.NewRouter()
	backend.New(&backend.Builder{Router: s.router, DB: s.db})

	fanout := &iot.Fanout{}
	hub := dashboard.New(&dashboard.Builder{Router: s.router, Ingest: fanout})
	store := history.NewStore(s.db)
	store.HandleRoutes(s.router)
	songs.NewAPI(&songs.Builder{Store: songs.NewStore(s.db), Router: s.router})
	s.forwarder = telemetry.NewForwarder(&telemetry.Builder{
		Brokers: []string{s.kafkaAddr},
		Topic:   readingsTopic,
	})
	fanout.Add(hub, store, s.forwarder)

	s.server = httptest.NewServer(s.router)
	s.client = client.NewWithURL(s.server.URL)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.server != nil {
		s.server.Close()
	}
	if s.forwarder != nil {
		s.forwarder.Close()
	}
	if s.db != nil {
		s.db.ClearSchema()
		s.db.Close()
	}
	for _, c := range []testcontainers.Container{s.kafkaContainer, s.zookeeper, s.postgresContainer} {
		if c != nil {
			s.NoError(c.Terminate(ctx))
		}
	}
	if s.network != nil {
		s.NoError(s.network.Remove(ctx))
	}
}
