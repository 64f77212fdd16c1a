package songs

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/huuvinhnguyen/alocoap/core/backend"
	"github.com/huuvinhnguyen/alocoap/core/logger"
	"github.com/huuvinhnguyen/alocoap/core/schema"
)

const maxSongSize = 1 << 20

const (
	songSchemaID       = "https://alocoap.local/song.json"
	songUpdateSchemaID = "https://alocoap.local/song-update.json"
)

const songSchema = `{
  "$id": "https://alocoap.local/song.json",
  "type": "object",
  "anyOf": [
    { "required": ["number"], "properties": { "number": { "not": { "enum": ["", 0, false, null] } } } },
    { "required": ["name"], "properties": { "name": { "not": { "enum": ["", 0, false, null] } } } }
  ]
}`

const songUpdateSchema = `{
  "$id": "https://alocoap.local/song-update.json",
  "type": "object"
}`

// API serves the songs routes
type API struct {
	store     *Store
	validator *schema.Validator
}

// Builder is a builder helper for the API
type Builder struct {
	// Store is the song store. This is mandatory.
	Store *Store
	// Router is a mux router. This is mandatory.
	Router *mux.Router
}

// NewAPI creates the API and adds its routes to the router
func NewAPI(bb *Builder) *API {
	if bb.Store == nil {
		panic("Store is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}
	a := &API{
		store:     bb.Store,
		validator: schema.MustNewValidator(songSchema, songUpdateSchema),
	}
	a.handleRoutes(bb.Router)
	return a
}

func (a *API) handleRoutes(router *mux.Router) {
	logger.Default().Debugln("songs")
	logger.Default().Debugln("  handle songs route: /songs GET,POST")
	logger.Default().Debugln("  handle songs route: /songs/{id} GET,PUT,DELETE")

	router.Handle("/songs", handlers.CompressHandler(http.HandlerFunc(a.list))).
		Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/songs", a.create).Methods(http.MethodOptions, http.MethodPost)
	router.HandleFunc("/songs/{id}", a.get).Methods(http.MethodOptions, http.MethodGet)
	router.HandleFunc("/songs/{id}", a.update).Methods(http.MethodOptions, http.MethodPut)
	router.HandleFunc("/songs/{id}", a.delete).Methods(http.MethodOptions, http.MethodDelete)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
	songs, err := a.store.List(r.Context())
	if err != nil {
		backend.HandleError(w, r, err, "Failed to get songs.", http.StatusInternalServerError)
		return
	}
	backend.WriteJSON(w, http.StatusOK, songs)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSongSize))
	if err != nil {
		backend.HandleError(w, r, err, "Cannot read body.", http.StatusBadRequest)
		return
	}
	if err := a.validator.ValidateBytes(body, songSchemaID); err != nil {
		backend.HandleError(w, r, err, "Must provide number or name of song.", http.StatusBadRequest)
		return
	}
	fields, err := parseFields(body)
	if err != nil {
		backend.HandleError(w, r, err, "Must provide number or name of song.", http.StatusBadRequest)
		return
	}
	song, err := a.store.Create(r.Context(), fields)
	if err != nil {
		backend.HandleError(w, r, err, "Failed to create new song.", http.StatusInternalServerError)
		return
	}
	backend.WriteJSON(w, http.StatusCreated, song)
}

// songID parses the id route variable. It responds with 400 and returns false if the id is malformed.
func songID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		backend.HandleError(w, r, err, "Invalid song id.", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
	id, ok := songID(w, r)
	if !ok {
		return
	}
	song, err := a.store.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		backend.HandleError(w, r, err, "Failed to get song", http.StatusNotFound)
		return
	}
	if err != nil {
		backend.HandleError(w, r, err, "Failed to get song", http.StatusInternalServerError)
		return
	}
	backend.WriteJSON(w, http.StatusOK, song)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
	id, ok := songID(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSongSize))
	if err != nil {
		backend.HandleError(w, r, err, "Cannot read body.", http.StatusBadRequest)
		return
	}
	if err := a.validator.ValidateBytes(body, songUpdateSchemaID); err != nil {
		backend.HandleError(w, r, err, "Song must be a JSON object.", http.StatusBadRequest)
		return
	}
	fields, err := parseFields(body)
	if err != nil {
		backend.HandleError(w, r, err, "Song must be a JSON object.", http.StatusBadRequest)
		return
	}
	err = a.store.Update(r.Context(), id, fields)
	if errors.Is(err, ErrNotFound) {
		backend.HandleError(w, r, err, "Failed to update song", http.StatusNotFound)
		return
	}
	if err != nil {
		backend.HandleError(w, r, err, "Failed to update song", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) delete(w http.ResponseWriter, r *http.Request) {
	logger.FromContext(r.Context()).Infoln("called route for", r.URL, r.Method)
	id, ok := songID(w, r)
	if !ok {
		return
	}
	err := a.store.Delete(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		backend.HandleError(w, r, err, "Failed to delete song", http.StatusNotFound)
		return
	}
	if err != nil {
		backend.HandleError(w, r, err, "Failed to delete song", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
