package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huuvinhnguyen/alocoap/core/gauge"
	"github.com/huuvinhnguyen/alocoap/iot"
)

func TestSensors(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSensors(reg)

	ctx := context.Background()
	require.NoError(t, s.HandleReading(ctx, iot.Reading{DeviceID: "kitchen", Temperature: 31, Humidity: 45, Timestamp: time.Now()}))
	require.NoError(t, s.HandleReading(ctx, iot.Reading{DeviceID: "kitchen", Temperature: 20, Humidity: 50, Timestamp: time.Now()}))

	assert.Equal(t, 20.0, testutil.ToFloat64(s.temperature.WithLabelValues("kitchen")))
	assert.Equal(t, 50.0, testutil.ToFloat64(s.humidity.WithLabelValues("kitchen")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.readings.WithLabelValues("kitchen")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.band.WithLabelValues("kitchen", "mild")))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.band.WithLabelValues("kitchen", "hot")))
	assert.Equal(t, len(gauge.Bands()), testutil.CollectAndCount(s.band))
}

func TestDisplayGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	d := NewDisplay(reg)
	display := gauge.NewDisplay(d.Gauge("temperature"), d.Gauge("humidity"))

	display.Update(36, 100)
	display.Update(-10, 0)

	assert.Equal(t, -10.0, testutil.ToFloat64(d.value.WithLabelValues("temperature")))
	assert.Equal(t, 0.0, testutil.ToFloat64(d.value.WithLabelValues("humidity")))
	// one color series per gauge
	assert.Equal(t, 2, testutil.CollectAndCount(d.color))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.color.WithLabelValues("temperature", string(gauge.BandFreezing.Color))))
}
