package dashboard

import (
	"embed"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/huuvinhnguyen/alocoap/core/backend"
	"github.com/huuvinhnguyen/alocoap/core/gauge"
	"github.com/huuvinhnguyen/alocoap/core/logger"
	"github.com/huuvinhnguyen/alocoap/iot"
)

//go:embed static/*
var staticFS embed.FS

const maxReadingSize = 64 << 10

func (h *Hub) handleRoutes(router *mux.Router) {
	logger.Default().Debugln("dashboard")
	logger.Default().Debugln("  handle dashboard route: / GET")
	logger.Default().Debugln("  handle dashboard route: /static/ GET")
	logger.Default().Debugln("  handle dashboard route: /ws GET")
	logger.Default().Debugln("  handle dashboard route: /data GET")
	logger.Default().Debugln("  handle dashboard route: /readings POST")
	logger.Default().Debugln("  handle dashboard route: /classify GET")

	router.HandleFunc("/", h.index).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(http.FileServer(http.FS(staticFS))).Methods(http.MethodGet)
	router.HandleFunc("/ws", h.serveWS).Methods(http.MethodGet)
	router.HandleFunc("/data", h.data).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/readings", h.postReading).Methods(http.MethodOptions, http.MethodPost)
	router.HandleFunc("/classify", h.classify).Methods(http.MethodOptions, http.MethodGet)
}

func (h *Hub) index(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		logger.FromContext(r.Context()).WithError(err).Errorf("Error 3001: read index")
		http.Error(w, "Error 3001", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	rlog := logger.FromContext(r.Context())
	rlog.Infoln("called route for", r.URL, r.Method)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already responded
		rlog.WithError(err).Warnln("websocket upgrade failed")
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, sendBufferSize)}
	if err := h.register(c); err != nil {
		rlog.WithError(err).Errorf("Error 3002: register client")
		conn.Close()
		return
	}
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) data(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Debugln("called route for", r.URL, r.Method)
	backend.WriteJSON(w, http.StatusOK, newPollResponse(h.State()))
}

func (h *Hub) postReading(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxReadingSize))
	if err != nil {
		backend.HandleError(w, r, err, "Cannot read body.", http.StatusBadRequest)
		return
	}
	reading, err := iot.ParseReading("", body, h.now())
	if errors.Is(err, iot.ErrInvalidReading) {
		backend.HandleError(w, r, err, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		backend.HandleError(w, r, err, "Failed to parse reading.", http.StatusInternalServerError)
		return
	}

	// sink errors are logged by the sinks, the reading is accepted regardless
	h.ingest.HandleReading(r.Context(), reading)
	backend.WriteJSON(w, http.StatusAccepted, Classify(reading))
}

type classification struct {
	Temperature      float64     `json:"temperature"`
	TemperatureBand  string      `json:"temperature_band"`
	TemperatureColor gauge.Color `json:"temperature_color"`
	Humidity         float64     `json:"humidity"`
	HumidityIndex    int         `json:"humidity_index"`
	HumidityColor    gauge.Color `json:"humidity_color"`
	HumidityValid    bool        `json:"humidity_valid"`
}

func parseFinite(value string) (float64, bool) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (h *Hub) classify(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Debugln("called route for", r.URL, r.Method)
	query := r.URL.Query()

	temperature, ok := parseFinite(query.Get("temperature"))
	if !ok {
		backend.HandleError(w, r, nil, "temperature must be a number.", http.StatusBadRequest)
		return
	}
	humidity, ok := parseFinite(query.Get("humidity"))
	if !ok {
		backend.HandleError(w, r, nil, "humidity must be a number.", http.StatusBadRequest)
		return
	}

	band := gauge.ClassifyTemperature(temperature)
	backend.WriteJSON(w, http.StatusOK, classification{
		Temperature:      temperature,
		TemperatureBand:  band.Name,
		TemperatureColor: band.Color,
		Humidity:         humidity,
		HumidityIndex:    gauge.HumidityIndex(humidity),
		HumidityColor:    gauge.HumidityColor(humidity),
		HumidityValid:    gauge.ValidHumidity(humidity),
	})
}
