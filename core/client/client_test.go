package client

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEchoRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	}).Methods(http.MethodPost)
	router.HandleFunc("/header", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"` + r.Header.Get("X-Test") + `"`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)
	return router
}

func TestClientWithRouter(t *testing.T) {
	client := NewWithRouter(newEchoRouter())

	var result map[string]interface{}
	status, err := client.RawPost("/echo", map[string]interface{}{"name": "x"}, &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "x", result["name"])

	var raw []byte
	_, err = client.RawPost("/echo", []byte(`{"a":1}`), &raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))

	var header string
	_, err = client.WithHeader("X-Test", "hello").RawGet("/header", &header)
	require.NoError(t, err)
	assert.Equal(t, "hello", header)

	status, err = client.RawDelete("/gone")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	status, err = client.RawGet("/nothing", nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestClientWithURL(t *testing.T) {
	ts := httptest.NewServer(newEchoRouter())
	defer ts.Close()

	client := NewWithURL(ts.URL + "/")
	var result map[string]interface{}
	status, err := client.RawPost("/echo", map[string]interface{}{"name": "y"}, &result)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "y", result["name"])
}
