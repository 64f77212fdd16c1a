package dashboard

import (
	"time"

	"github.com/huuvinhnguyen/alocoap/core/gauge"
	"github.com/huuvinhnguyen/alocoap/iot"
)

// initial gauge values shown before the first reading
const (
	initialTemperature = 0
	initialHumidity    = 80
)

// State is a classified reading as shown on the dashboard
type State struct {
	DeviceID         string      `json:"device_id,omitempty"`
	Temperature      float64     `json:"temperature"`
	Humidity         float64     `json:"humidity"`
	TemperatureBand  string      `json:"temperature_band"`
	TemperatureColor gauge.Color `json:"temperature_color"`
	HumidityColor    gauge.Color `json:"humidity_color"`
	Timestamp        time.Time   `json:"timestamp"`
}

// Classify returns the dashboard state for a reading
func Classify(reading iot.Reading) State {
	band := gauge.ClassifyTemperature(reading.Temperature)
	return State{
		DeviceID:         reading.DeviceID,
		Temperature:      reading.Temperature,
		Humidity:         reading.Humidity,
		TemperatureBand:  band.Name,
		TemperatureColor: band.Color,
		HumidityColor:    gauge.HumidityColor(reading.Humidity),
		Timestamp:        reading.Timestamp,
	}
}

// pollResponse is the answer of /data, with the short keys the page polls for
type pollResponse struct {
	Temp             float64     `json:"temp"`
	Hum              float64     `json:"hum"`
	TemperatureBand  string      `json:"temperature_band"`
	TemperatureColor gauge.Color `json:"temperature_color"`
	HumidityColor    gauge.Color `json:"humidity_color"`
}

func newPollResponse(s State) pollResponse {
	return pollResponse{
		Temp:             s.Temperature,
		Hum:              s.Humidity,
		TemperatureBand:  s.TemperatureBand,
		TemperatureColor: s.TemperatureColor,
		HumidityColor:    s.HumidityColor,
	}
}
