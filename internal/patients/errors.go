package patients

import (
	"errors"
	"net/http"
)

// Domain errors for patient operations.
var (
	ErrNotFound    = errors.New("patient not found")
	ErrInvalidName = errors.New("patient name is required")
)

// MapHTTPStatus maps patient domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidName) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
