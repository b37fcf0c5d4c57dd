// Package httpx provides HTTP response utilities for the JSON endpoints.
package httpx

import (
	"errors"
	"net/http"

	"github.com/obra-dashboard/obra/internal/shared"
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicate), errors.Is(err, shared.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrCSRFTokenMissing), errors.Is(err, shared.ErrCSRFTokenMismatch):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the error envelope for err. Known domain errors carry
// their user-safe message; anything else becomes a 500 with fallback.
func RespondError(w http.ResponseWriter, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		Error(w, status, fallback)
		return
	}
	Error(w, status, shared.UserSafeMessage(err))
}
