package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithLogger(t *testing.T) {
	ctx, rlog := ContextWithLogger(context.Background())
	require.NotNil(t, rlog)
	id := RequestIDFromContext(ctx)
	assert.NotEmpty(t, id)

	// a second call keeps the existing logger
	ctx2, rlog2 := ContextWithLogger(ctx)
	assert.Equal(t, rlog, rlog2)
	assert.Equal(t, id, RequestIDFromContext(ctx2))
}

func TestContextWithLoggerIdentity(t *testing.T) {
	ctx, _ := ContextWithLoggerIdentity(context.Background(), "sensor-01")
	assert.Equal(t, "sensor-01", IdentityFromContext(ctx))
	assert.NotEmpty(t, RequestIDFromContext(ctx))
}

func TestFromContextWithoutLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}

func TestAddRequestID(t *testing.T) {
	router := mux.NewRouter()
	AddRequestID(router)

	var seen string
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
}

func TestInitLoggerFromString(t *testing.T) {
	InitLoggerFromString("debug")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	InitLoggerFromString("nonsense")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}
