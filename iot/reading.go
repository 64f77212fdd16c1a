package iot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/huuvinhnguyen/alocoap/core/schema"
)

// ErrInvalidReading is returned when a payload does not describe a reading
var ErrInvalidReading = errors.New("invalid reading")

// Reading is a single sample of a device
type Reading struct {
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
}

const readingSchemaID = "https://alocoap.local/reading.json"

const readingSchema = `{
  "$id": "https://alocoap.local/reading.json",
  "type": "object",
  "required": ["temperature", "humidity"],
  "properties": {
    "device_id": { "type": "string", "pattern": "^[^/#+]*$" },
    "temperature": { "type": "number" },
    "humidity": { "type": "number" },
    "timestamp": { "type": "string", "format": "date-time" }
  }
}`

var readingValidator = schema.MustNewValidator(readingSchema)

// DefaultDeviceID names readings that carry no device ID, such as a single sensor posting
// {"temperature","humidity"} over HTTP
const DefaultDeviceID = "sensor"

// ParseReading parses a reading payload. A non-empty deviceID is the authenticated identity
// of the sender and takes precedence over a device_id in the payload, which in turn falls
// back to DefaultDeviceID. A missing timestamp defaults to now.
//
// All errors wrap ErrInvalidReading.
func ParseReading(deviceID string, payload []byte, now time.Time) (Reading, error) {
	if err := readingValidator.ValidateBytes(payload, readingSchemaID); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrInvalidReading, err)
	}

	var wire struct {
		DeviceID    string     `json:"device_id"`
		Temperature float64    `json:"temperature"`
		Humidity    float64    `json:"humidity"`
		Timestamp   *time.Time `json:"timestamp"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrInvalidReading, err)
	}

	reading := Reading{
		DeviceID:    strings.TrimSpace(deviceID),
		Temperature: wire.Temperature,
		Humidity:    wire.Humidity,
		Timestamp:   now.UTC(),
	}
	if reading.DeviceID == "" {
		reading.DeviceID = strings.TrimSpace(wire.DeviceID)
	}
	if reading.DeviceID == "" {
		reading.DeviceID = DefaultDeviceID
	}
	if wire.Timestamp != nil {
		reading.Timestamp = wire.Timestamp.UTC()
	}
	return reading, nil
}
