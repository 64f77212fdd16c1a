package gauge

import "sync"

// Gauge is a visual gauge widget, or anything else that shows a value in a color
type Gauge interface {
	SetValue(value float64)
	SetColor(color Color)
}

// Display drives a temperature and a humidity gauge
type Display struct {
	temperature Gauge
	humidity    Gauge
}

// NewDisplay returns a display for the two gauges. Both are mandatory.
func NewDisplay(temperature, humidity Gauge) *Display {
	if temperature == nil {
		panic("temperature gauge is missing")
	}
	if humidity == nil {
		panic("humidity gauge is missing")
	}
	return &Display{temperature: temperature, humidity: humidity}
}

// Update sets both gauges to the reading and colors them. It returns the
// temperature band and the humidity swatch it applied.
func (d *Display) Update(temperature, humidity float64) (Band, Color) {
	band := ClassifyTemperature(temperature)
	swatch := HumidityColor(humidity)

	d.temperature.SetValue(temperature)
	d.temperature.SetColor(band.Color)
	d.humidity.SetValue(humidity)
	d.humidity.SetColor(swatch)
	return band, swatch
}

// Recorder is an in-memory Gauge. The zero value is ready to use.
type Recorder struct {
	mu    sync.RWMutex
	value float64
	color Color
}

// SetValue implements Gauge
func (r *Recorder) SetValue(value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
}

// SetColor implements Gauge
func (r *Recorder) SetColor(color Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.color = color
}

// Value returns the last value
func (r *Recorder) Value() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Color returns the last color
func (r *Recorder) Color() Color {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.color
}
