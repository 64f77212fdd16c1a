package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/huuvinhnguyen/alocoap/core/logger"
)

func (b *Backend) handleHealth(router *mux.Router) {
	logger.Default().Debugln("health")
	logger.Default().Debugln("  handle health route: /health GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		rlog.Debugln("called route for", r.URL, r.Method)

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		if b.db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := b.db.PingContext(ctx); err != nil {
				rlog.WithError(err).Errorf("Error 1001: database ping")
				status = http.StatusServiceUnavailable
				body = map[string]string{"status": "database unavailable"}
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		data, _ := json.Marshal(body)
		w.Write(data)
	}).Methods(http.MethodOptions, http.MethodGet)
}
