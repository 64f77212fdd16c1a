package test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"

	"github.com/huuvinhnguyen/alocoap/iot"
)

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) TestSongs() {
	var created map[string]interface{}
	status, err := s.client.RawPost("/songs", map[string]interface{}{"name": "Hey Jude"}, &created)
	s.Require().NoError(err)
	s.Equal(http.StatusCreated, status)
	id := created["_id"].(string)

	status, err = s.client.RawPut("/songs/"+id, map[string]interface{}{"number": 9}, nil)
	s.Require().NoError(err)
	s.Equal(http.StatusNoContent, status)

	var song map[string]interface{}
	_, err = s.client.RawGet("/songs/"+id, &song)
	s.Require().NoError(err)
	s.Equal(9.0, song["number"])
	s.Equal(created["createDate"], song["createDate"])

	_, err = s.client.RawDelete("/songs/" + id)
	s.Require().NoError(err)
	status, _, err = s.client.Do(http.MethodGet, "/songs/"+id, nil)
	s.Require().NoError(err)
	s.Equal(http.StatusNotFound, status)
}

func (s *IntegrationTestSuite) TestReadingFlow() {
	_, err := s.client.RawPost("/readings", []byte(`{"device_id":"kitchen","temperature":18,"humidity":65}`), nil)
	s.Require().NoError(err)

	var latest iot.Reading
	_, err = s.client.RawGet("/devices/kitchen/readings/latest", &latest)
	s.Require().NoError(err)
	s.Equal(18.0, latest.Temperature)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{s.kafkaAddr},
		Topic:     readingsTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	msg, err := reader.ReadMessage(ctx)
	s.Require().NoError(err)
	s.Equal("kitchen", string(msg.Key))

	var forwarded iot.Reading
	s.Require().NoError(json.Unmarshal(msg.Value, &forwarded))
	s.Equal(latest.Temperature, forwarded.Temperature)
	s.Equal(latest.Humidity, forwarded.Humidity)
}
