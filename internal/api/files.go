package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/medsign/internal/documents"
	"github.com/JaimeStill/medsign/pkg/handlers"
	"github.com/JaimeStill/medsign/pkg/middleware"
	"github.com/JaimeStill/medsign/pkg/module"
)

type filesHandler struct {
	docs   documents.System
	logger *slog.Logger
}

// RegisterFiles serves stored artifacts at GET /<kind>-files/{filename} on the
// router's native mux. These paths sit outside any module prefix because they
// are printed on the documents themselves.
func RegisterFiles(router *module.Router, docs documents.System, logger *slog.Logger) {
	h := &filesHandler{
		docs:   docs,
		logger: logger.With("handler", "files"),
	}
	logged := middleware.Logger(logger)

	for _, k := range documents.Kinds() {
		router.Handle("GET "+k.FilesPrefix()+"/{filename}", logged(h.serve(k)))
	}
}

func (h *filesHandler) serve(k *documents.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := r.PathValue("filename")

		body, err := h.docs.Artifact(r.Context(), k, filename)
		if err != nil {
			handlers.RespondError(w, h.logger, documents.MapHTTPStatus(err), err)
			return
		}
		defer body.Close()

		if err := handlers.RespondPDF(w, http.StatusOK, filename, -1, body, false); err != nil {
			h.logger.Warn("artifact download interrupted", "kind", k.Slug, "file", filename, "error", err)
		}
	}
}
