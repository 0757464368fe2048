// Package api provides HTTP handlers for the interview service.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashureev/interview-labs/internal/store"
)

// SessionCounter reports how many interviews are live.
type SessionCounter interface {
	Count() int
}

// Handler provides common handler utilities.
type Handler struct {
	reports  store.ReportStore
	sessions SessionCounter
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(reports store.ReportStore, sessions SessionCounter) *Handler {
	return &Handler{
		reports:  reports,
		sessions: sessions,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
