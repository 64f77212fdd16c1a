// Package metrics exposes readings and the dashboard gauges as prometheus metrics
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/huuvinhnguyen/alocoap/core/gauge"
	"github.com/huuvinhnguyen/alocoap/iot"
)

const namespace = "alocoap"

// Sensors is a ReadingSink which keeps the latest reading of every device in gauges
type Sensors struct {
	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	band        *prometheus.GaugeVec
	readings    *prometheus.CounterVec
}

// NewSensors registers the sensor metrics with reg
func NewSensors(reg prometheus.Registerer) *Sensors {
	factory := promauto.With(reg)
	return &Sensors{
		temperature: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Latest temperature reported by the device",
		}, []string{"device"}),
		humidity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "humidity_percent",
			Help:      "Latest relative humidity reported by the device",
		}, []string{"device"}),
		band: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_band",
			Help:      "1 for the current temperature band of the device, 0 for all others",
		}, []string{"device", "band"}),
		readings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Number of readings received from the device",
		}, []string{"device"}),
	}
}

// HandleReading implements iot.ReadingSink
func (s *Sensors) HandleReading(ctx context.Context, reading iot.Reading) error {
	s.temperature.WithLabelValues(reading.DeviceID).Set(reading.Temperature)
	s.humidity.WithLabelValues(reading.DeviceID).Set(reading.Humidity)
	current := gauge.ClassifyTemperature(reading.Temperature)
	for _, band := range gauge.Bands() {
		v := 0.0
		if band == current {
			v = 1
		}
		s.band.WithLabelValues(reading.DeviceID, band.Name).Set(v)
	}
	s.readings.WithLabelValues(reading.DeviceID).Inc()
	return nil
}

// Display holds the metrics of the dashboard gauges
type Display struct {
	value *prometheus.GaugeVec
	color *prometheus.GaugeVec
}

// NewDisplay registers the display metrics with reg
func NewDisplay(reg prometheus.Registerer) *Display {
	factory := promauto.With(reg)
	return &Display{
		value: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "display_value",
			Help:      "Value shown by the dashboard gauge",
		}, []string{"gauge"}),
		color: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "display_color_info",
			Help:      "Color shown by the dashboard gauge, always 1",
		}, []string{"gauge", "color"}),
	}
}

// Gauge returns the gauge.Gauge with the given name
func (d *Display) Gauge(name string) gauge.Gauge {
	return &displayGauge{display: d, name: name}
}

type displayGauge struct {
	display *Display
	name    string
}

func (g *displayGauge) SetValue(value float64) {
	g.display.value.WithLabelValues(g.name).Set(value)
}

func (g *displayGauge) SetColor(color gauge.Color) {
	g.display.color.DeletePartialMatch(prometheus.Labels{"gauge": g.name})
	g.display.color.WithLabelValues(g.name, string(color)).Set(1)
}
