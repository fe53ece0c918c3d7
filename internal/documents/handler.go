package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JaimeStill/medsign/pkg/handlers"
	"github.com/JaimeStill/medsign/pkg/middleware"
	"github.com/JaimeStill/medsign/pkg/pagination"
	"github.com/JaimeStill/medsign/pkg/routes"
)

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys         System
	logger      *slog.Logger
	pagination  pagination.Config
	maxBodySize int64
}

// NewHandler creates a Handler with the given system, logger, pagination
// config, and request body limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxBodySize int64,
) *Handler {
	return &Handler{
		sys:         sys,
		logger:      logger.With("handler", "documents"),
		pagination:  pagination,
		maxBodySize: maxBodySize,
	}
}

// Routes returns the generate endpoints, one per kind, and the record
// listing endpoints.
func (h *Handler) Routes() routes.Group {
	generate := make([]routes.Route, 0, len(Kinds()))
	for _, k := range Kinds() {
		generate = append(generate, routes.Route{
			Method:  "POST",
			Pattern: "/generate-" + k.Slug,
			Handler: h.Generate(k),
		})
	}

	return routes.Group{
		Children: []routes.Group{
			{
				Middleware: []func(http.Handler) http.Handler{middleware.MaxBytes(h.maxBodySize)},
				Routes:     generate,
			},
			{
				Prefix: "/documents",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/{kind}", Handler: h.List},
					{Method: "GET", Pattern: "/{kind}/{id}", Handler: h.Find},
				},
			},
		},
	}
}

// Generate returns the handler issuing documents of kind k. Clients that
// accept application/pdf receive the artifact instead of the JSON envelope.
func (h *Handler) Generate(k *Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			handlers.RespondError(w, h.logger, status, ErrInvalidRequest)
			return
		}

		result, err := h.sys.Generate(r.Context(), k, &req, RequestOrigin(r))
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}

		if acceptsPDF(r) {
			err := handlers.RespondPDF(
				w, http.StatusCreated,
				result.Filename, int64(len(result.PDF)),
				bytes.NewReader(result.PDF), true,
			)
			if err != nil {
				h.logger.Warn("pdf response interrupted", "kind", k.Slug, "id", result.ID, "error", err)
			}
			return
		}

		handlers.RespondJSON(w, http.StatusCreated, result)
	}
}

// List returns a paginated list of one kind's documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	k, err := Lookup(r.PathValue("kind"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), k, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single document record.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	k, err := Lookup(r.PathValue("kind"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.Find(r.Context(), k, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// ParseID parses a positive document id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// RequestOrigin returns the scheme and host r arrived on, honoring the
// X-Forwarded-Proto and X-Forwarded-Host headers set by reverse proxies.
func RequestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	}

	host := r.Host
	if fwd := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}

	return scheme + "://" + host
}

func firstHeaderValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

func acceptsPDF(r *http.Request) bool {
	for part := range strings.SplitSeq(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == pdfType {
			return true
		}
	}
	return false
}
