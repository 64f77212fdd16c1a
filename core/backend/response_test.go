package backend_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huuvinhnguyen/alocoap/core/backend"
)

func TestHandleError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/songs", nil)
	backend.HandleError(rec, req, errors.New("db down"), "Failed to get songs.", 0)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to get songs."}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = httptest.NewRecorder()
	backend.HandleError(rec, req, nil, "Must provide number or name of song.", http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	backend.WriteJSON(rec, http.StatusCreated, map[string]int{"a": 1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"a":1}`, rec.Body.String())
}
