package physicians

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates the requested physician does not exist.
var ErrNotFound = errors.New("physician not found")

// MapHTTPStatus maps physician domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
