package backend

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/huuvinhnguyen/alocoap/core/logger"
)

// WriteJSON writes v as JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Error 1002", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// HandleError logs reason with the request logger and responds with
// {"error": message}. A code of 0 means http.StatusInternalServerError.
func HandleError(w http.ResponseWriter, r *http.Request, reason error, message string, code int) {
	if code == 0 {
		code = http.StatusInternalServerError
	}
	rlog := logger.FromContext(r.Context())
	if code >= http.StatusInternalServerError {
		rlog.WithError(reason).Errorln("ERROR:", message)
	} else {
		rlog.WithError(reason).Infoln("request failed:", message)
	}
	WriteJSON(w, code, map[string]string{"error": message})
}
