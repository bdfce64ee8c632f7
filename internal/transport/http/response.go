package http

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Envelope — единый формат всех ответов API.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Envelope{Success: false, Message: message, Data: data})
}
