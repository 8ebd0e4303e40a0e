package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/miniauth/internal/logger"
	"go.uber.org/zap"
)

// Envelope is the uniform response body of every API endpoint
type Envelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteSuccess writes {ok: true, data, message} with status 200
func WriteSuccess(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusOK, Envelope{OK: true, Data: data, Message: message})
}

// WriteFailure writes {ok: false, message}
func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{OK: false, Message: message})
}
