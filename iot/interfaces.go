package iot

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/huuvinhnguyen/alocoap/core/logger"
)

// MessagePublisher is an interface to publish MQTT message
type MessagePublisher interface {
	PublishMessageQ1(topic string, payload []byte)
}

// ReadingSink consumes readings
type ReadingSink interface {
	HandleReading(ctx context.Context, reading Reading) error
}

// SinkFunc is an adapter to use an ordinary function as ReadingSink
type SinkFunc func(ctx context.Context, reading Reading) error

// HandleReading calls f(ctx, reading)
func (f SinkFunc) HandleReading(ctx context.Context, reading Reading) error {
	return f(ctx, reading)
}

// Fanout is a ReadingSink which hands every reading to all added sinks in order.
// A failing sink does not stop the others. The zero value is ready to use.
type Fanout struct {
	mux   sync.RWMutex
	sinks []ReadingSink
}

// Add adds sinks to the fanout
func (f *Fanout) Add(sinks ...ReadingSink) {
	f.mux.Lock()
	defer f.mux.Unlock()
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
}

// Len returns the number of sinks
func (f *Fanout) Len() int {
	f.mux.RLock()
	defer f.mux.RUnlock()
	return len(f.sinks)
}

// HandleReading implements ReadingSink. The returned error combines the errors of
// all failing sinks.
func (f *Fanout) HandleReading(ctx context.Context, reading Reading) error {
	f.mux.RLock()
	sinks := make([]ReadingSink, len(f.sinks))
	copy(sinks, f.sinks)
	f.mux.RUnlock()

	var errs error
	for _, s := range sinks {
		if err := s.HandleReading(ctx, reading); err != nil {
			logger.FromContext(ctx).WithError(err).Errorf("sink %T failed for device %s", s, reading.DeviceID)
			errs = multierr.Append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	return errs
}
