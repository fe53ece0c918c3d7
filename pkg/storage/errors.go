package storage

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates no artifact is stored under the key.
	ErrNotFound = errors.New("stored artifact not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates a key that could resolve outside the storage root.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

// MapHTTPStatus maps storage errors to HTTP status codes. Invalid keys come
// from artifact names in the URL, so they read as missing artifacts.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrEmptyKey),
		errors.Is(err, ErrInvalidKey):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
