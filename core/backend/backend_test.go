package backend_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huuvinhnguyen/alocoap/core/backend"
	"github.com/huuvinhnguyen/alocoap/core/client"
	"github.com/huuvinhnguyen/alocoap/core/csql"
)

// TestVersion verifies that the /version endpoint works
func TestVersion(t *testing.T) {
	router := mux.NewRouter()
	backend.New(&backend.Builder{Router: router})
	c := client.NewWithRouter(router)

	var version struct {
		Version string `json:"version"`
	}
	_, err := c.RawGet("/version", &version)
	require.NoError(t, err)
	assert.Equal(t, "unset", version.Version)

	backend.Version = "another version"
	defer func() { backend.Version = "unset" }()

	_, err = c.RawGet("/version", &version)
	require.NoError(t, err)
	assert.Equal(t, "another version", version.Version)
}

func TestHealth(t *testing.T) {
	db := csql.OpenSQLite(filepath.Join(t.TempDir(), "health.db"))
	router := mux.NewRouter()
	b := backend.New(&backend.Builder{Router: router, DB: db})
	assert.Same(t, db, b.DB())

	c := client.NewWithRouter(router)
	var health map[string]string
	_, err := c.RawGet("/health", &health)
	require.NoError(t, err)
	assert.Equal(t, "ok", health["status"])

	db.Close()
	status, _, err := c.Do(http.MethodGet, "/health", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestHealthWithoutDB(t *testing.T) {
	router := mux.NewRouter()
	backend.New(&backend.Builder{Router: router})
	_, err := client.NewWithRouter(router).RawGet("/health", nil)
	assert.NoError(t, err)
}

func TestCORSPreflight(t *testing.T) {
	router := mux.NewRouter()
	backend.New(&backend.Builder{Router: router})

	req := httptest.NewRequest(http.MethodOptions, "/version", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewWithoutRouter(t *testing.T) {
	assert.PanicsWithValue(t, "Router is missing", func() {
		backend.New(&backend.Builder{})
	})
}
