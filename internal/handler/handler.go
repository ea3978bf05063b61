// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/meetupbot/meetupbot/internal/handler/dto"
)

// Version is the API version reported by the index route.
const Version = "0.1.0"

// Handler serves the routes that need no dependencies.
type Handler struct {
	repository string
	timezone   string
}

// New creates a new Handler instance. repository and timezone are echoed
// by the index route.
func New(repository, timezone string) *Handler {
	return &Handler{repository: repository, timezone: timezone}
}

// Hello describes the service.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message":    "meetupbot files meetups as issues",
		"version":    Version,
		"repository": h.repository,
		"timezone":   h.timezone,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "resource not found", Code: "NOT_FOUND"})
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
