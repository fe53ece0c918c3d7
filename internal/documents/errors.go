package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/medsign/internal/physicians"
	"github.com/JaimeStill/medsign/pkg/storage"
)

// Domain errors for document operations.
var (
	ErrNotFound       = errors.New("document not found")
	ErrUnknownKind    = errors.New("unknown document kind")
	ErrInvalidID      = errors.New("invalid document id")
	ErrInvalidRequest = errors.New("invalid request body")
	ErrMissingIssuer  = errors.New("medico_id is required")
	ErrNoExams        = errors.New("lista_exames must contain at least one exam")
	ErrInvalidLeave   = errors.New("dias_afastamento must be at least 1")
	ErrGenerate       = errors.New("generate document")
)

// MapHTTPStatus maps document domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, physicians.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrMissingIssuer),
		errors.Is(err, ErrNoExams),
		errors.Is(err, ErrInvalidLeave):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
