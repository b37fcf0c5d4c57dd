// Package httpx provides HTTP response utilities for the JSON endpoints.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the flat error envelope returned by the /api endpoints.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends {"error": message} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	JSON(w, status, ErrorBody{Error: message})
}
