package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huuvinhnguyen/alocoap/core/client"
	"github.com/huuvinhnguyen/alocoap/iot"
)

func TestServiceDefaults(t *testing.T) {
	t.Setenv("PORT", "8080")
	service := &Service{}
	require.NoError(t, envdecode.Decode(service))

	assert.Equal(t, "8080", service.Port)
	assert.Equal(t, "info", service.LogLevel)
	assert.Equal(t, "sqlite", service.DatabaseDriver)
	assert.Equal(t, ":1883", service.MQTTListen)
	assert.Equal(t, "topic1/#", service.MQTTUpstreamTopic)
	assert.Equal(t, "alocoap.readings", service.KafkaTopic)
}

func TestOpenDB(t *testing.T) {
	_, err := openDB(&Service{DatabaseDriver: "postgres"})
	assert.Error(t, err)
	_, err = openDB(&Service{DatabaseDriver: "mongodb"})
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitList(" a:9092, ,b:9092"))
	assert.Empty(t, splitList(""))
}

func TestAppWiring(t *testing.T) {
	a, err := newApp(&Service{
		Port:           "0",
		DatabaseDriver: "sqlite",
		SQLitePath:     filepath.Join(t.TempDir(), "alocoap.db"),
		MQTTListen:     "127.0.0.1:0",
	})
	require.NoError(t, err)
	defer a.close()
	assert.Equal(t, 3, a.fanout.Len())
	assert.Nil(t, a.upstream)
	assert.Nil(t, a.forwarder)

	c := client.NewWithRouter(a.router)
	status, err := c.RawPost("/readings", []byte(`{"device_id":"kitchen","temperature":22,"humidity":48}`), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)

	var readings []iot.Reading
	_, err = c.RawGet("/devices/kitchen/readings", &readings)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 22.0, readings[0].Temperature)

	var data map[string]interface{}
	_, err = c.RawGet("/data", &data)
	require.NoError(t, err)
	assert.Equal(t, 22.0, data["temp"])

	var metrics []byte
	_, err = c.RawGet("/metrics", &metrics)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `alocoap_readings_total{device="kitchen"} 1`)
	assert.Contains(t, string(metrics), `alocoap_display_value{gauge="temperature"} 22`)

	_, err = c.RawGet("/health", nil)
	assert.NoError(t, err)
	_, err = c.RawGet("/songs", nil)
	assert.NoError(t, err)
}

func TestRunFailsWhenPortTaken(t *testing.T) {
	taken, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer taken.Close()
	port := strconv.Itoa(taken.Addr().(*net.TCPAddr).Port)

	a, err := newApp(&Service{
		Port:           port,
		DatabaseDriver: "sqlite",
		SQLitePath:     filepath.Join(t.TempDir(), "alocoap.db"),
		MQTTListen:     "127.0.0.1:0",
	})
	require.NoError(t, err)
	defer a.close()

	done := make(chan error, 1)
	go func() { done <- a.run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, port)
	case <-time.After(10 * time.Second):
		t.Fatal("run kept going after the HTTP port was taken")
	}
}

func TestRunDoesNotWaitForUpstream(t *testing.T) {
	// nothing answers on the upstream address, the dashboard must serve regardless
	unreachable, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	upstreamAddr := unreachable.Addr().String()
	unreachable.Close()

	free, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := strconv.Itoa(free.Addr().(*net.TCPAddr).Port)
	free.Close()

	a, err := newApp(&Service{
		Port:              port,
		DatabaseDriver:    "sqlite",
		SQLitePath:        filepath.Join(t.TempDir(), "alocoap.db"),
		MQTTListen:        "127.0.0.1:0",
		MQTTUpstreamURL:   "tcp://" + upstreamAddr,
		MQTTUpstreamTopic: "topic1/#",
	})
	require.NoError(t, err)
	defer a.close()
	require.NotNil(t, a.upstream)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + port + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
