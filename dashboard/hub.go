package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/huuvinhnguyen/alocoap/core/gauge"
	"github.com/huuvinhnguyen/alocoap/core/logger"
	"github.com/huuvinhnguyen/alocoap/iot"
)

const (
	sendBufferSize = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
)

// ErrHubClosed is returned when a client connects to a closed hub
var ErrHubClosed = errors.New("dashboard hub closed")

// Hub keeps the dashboard state and the connected WebSocket clients
type Hub struct {
	mux     sync.RWMutex
	clients map[*wsClient]struct{}
	closed  bool
	state   State

	display   *gauge.Display
	publisher iot.MessagePublisher
	ingest    iot.ReadingSink
	upgrader  websocket.Upgrader
	now       func() time.Time
}

// Builder is a builder helper for the Hub
type Builder struct {
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Display is updated with every reading. Default is a display with two in-memory gauges.
	Display *gauge.Display
	// Publisher publishes the classified state to the device's display topic. Optional.
	Publisher iot.MessagePublisher
	// Ingest receives readings posted to /readings. Default is the hub itself. Set it to
	// a fanout which contains the hub to also store and forward them.
	Ingest iot.ReadingSink
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates the hub and adds the dashboard routes to the router
func New(bb *Builder) *Hub {
	if bb.Router == nil {
		panic("Router is missing")
	}

	h := &Hub{
		clients:   make(map[*wsClient]struct{}),
		display:   bb.Display,
		publisher: bb.Publisher,
		ingest:    bb.Ingest,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
	if h.display == nil {
		h.display = gauge.NewDisplay(&gauge.Recorder{}, &gauge.Recorder{})
	}
	if h.ingest == nil {
		h.ingest = h
	}

	h.display.Update(initialTemperature, initialHumidity)
	h.state = Classify(iot.Reading{Temperature: initialTemperature, Humidity: initialHumidity})

	h.handleRoutes(bb.Router)
	return h
}

// State returns the current dashboard state
func (h *Hub) State() State {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return h.state
}

// ClientCount returns the number of connected WebSocket clients
func (h *Hub) ClientCount() int {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return len(h.clients)
}

// HandleReading implements iot.ReadingSink. It updates the display, broadcasts the
// classified state to all clients and publishes it to the device.
func (h *Hub) HandleReading(ctx context.Context, reading iot.Reading) error {
	rlog := logger.FromContext(ctx)
	if !gauge.ValidHumidity(reading.Humidity) {
		rlog.Warnf("humidity %v of device %s out of range, clamping", reading.Humidity, reading.DeviceID)
	}

	state := Classify(reading)
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	h.mux.Lock()
	h.display.Update(reading.Temperature, reading.Humidity)
	h.state = state
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			rlog.Warnln("dropping slow dashboard client")
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mux.Unlock()

	if h.publisher != nil && reading.DeviceID != "" {
		h.publisher.PublishMessageQ1(iot.DisplayTopic(reading.DeviceID), data)
	}
	return nil
}

// register adds a client and queues the current state as its first message
func (h *Hub) register(c *wsClient) error {
	h.mux.Lock()
	defer h.mux.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	data, err := json.Marshal(h.state)
	if err != nil {
		return err
	}
	c.send <- data
	h.clients[c] = struct{}{}
	return nil
}

func (h *Hub) unregister(c *wsClient) {
	h.mux.Lock()
	defer h.mux.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects all WebSocket clients. Clients connecting afterwards are refused.
func (h *Hub) Close() {
	h.mux.Lock()
	defer h.mux.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards incoming messages and keeps the read deadline alive with pongs
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(h.now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(h.now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump writes queued messages and pings. It ends when the send channel is closed.
func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(h.now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(h.now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
