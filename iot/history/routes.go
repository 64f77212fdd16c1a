package history

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/huuvinhnguyen/alocoap/core/backend"
	"github.com/huuvinhnguyen/alocoap/core/logger"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// HandleRoutes adds the history routes to router
func (s *Store) HandleRoutes(router *mux.Router) {
	logger.Default().Debugln("history")
	logger.Default().Debugln("  handle history route: /devices/{device_id}/readings GET")
	logger.Default().Debugln("  handle history route: /devices/{device_id}/readings/latest GET")

	router.Handle("/devices/{device_id}/readings", handlers.CompressHandler(http.HandlerFunc(s.list))).
		Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/devices/{device_id}/readings/latest", s.latest).
		Methods(http.MethodOptions, http.MethodGet)
}

func parseLimit(value string) (int, bool) {
	if value == "" {
		return defaultLimit, true
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, false
	}
	return limit, true
}

func (s *Store) list(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
	deviceID := mux.Vars(r)["device_id"]

	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		backend.HandleError(w, r, nil, "limit must be a number between 1 and 1000.", http.StatusBadRequest)
		return
	}

	readings, err := s.List(r.Context(), deviceID, limit)
	if err != nil {
		backend.HandleError(w, r, err, "Failed to get readings.", http.StatusInternalServerError)
		return
	}
	backend.WriteJSON(w, http.StatusOK, readings)
}

func (s *Store) latest(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
	deviceID := mux.Vars(r)["device_id"]

	reading, err := s.Latest(r.Context(), deviceID)
	if errors.Is(err, ErrNotFound) {
		backend.HandleError(w, r, err, "No reading for device "+deviceID+".", http.StatusNotFound)
		return
	}
	if err != nil {
		backend.HandleError(w, r, err, "Failed to get reading.", http.StatusInternalServerError)
		return
	}
	backend.WriteJSON(w, http.StatusOK, reading)
}
