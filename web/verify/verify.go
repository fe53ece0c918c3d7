// Package verify serves the public verification page printed as a QR code on
// every signed document.
package verify

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/JaimeStill/medsign/internal/documents"
	"github.com/JaimeStill/medsign/pkg/formatting"
	"github.com/JaimeStill/medsign/pkg/module"
	"github.com/JaimeStill/medsign/pkg/web"
)

//go:embed templates static
var content embed.FS

const placeholder = "Não informado"

var (
	verifyView   = web.ViewDef{Template: "verify.html", Title: "Verificação de documento"}
	notFoundView = web.ViewDef{Template: "not_found.html", Title: "Documento não encontrado"}
)

var statusLabels = map[string]string{
	documents.StatusSigned:   "Assinado digitalmente",
	documents.StatusUnsigned: "Sem assinatura digital: " + documents.UnsignedNotice,
	documents.StatusPending:  "Em processamento",
	documents.StatusFailed:   "Falha na emissão",
}

var funcs = template.FuncMap{
	"lines": func(s string) []string {
		return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	},
}

// page is the view model of verify.html.
type page struct {
	ID             int64
	Title          string
	Status         string
	StatusLabel    string
	Issuer         string
	CouncilLabel   string
	Subject        string
	NationalID     string
	EmissionDate   string
	Text           string
	SignatureImage template.URL
	FileURL        string
	Filename       string
}

type handler struct {
	docs   documents.System
	views  *web.TemplateSet
	logger *slog.Logger
}

// NewModule creates the verification module mounted at basePath.
func NewModule(basePath string, docs documents.System, logger *slog.Logger) (*module.Module, error) {
	views, err := web.NewTemplateSet(
		content,
		"templates/layouts/*.html",
		"templates/views",
		basePath,
		funcs,
		[]web.ViewDef{verifyView, notFoundView},
	)
	if err != nil {
		return nil, err
	}

	h := &handler{
		docs:   docs,
		views:  views,
		logger: logger.With("handler", "verify"),
	}

	router := web.NewRouter()
	router.Handle("GET /static/{file}", web.Static(content, "static", "/static/"))
	router.HandleFunc("GET /{kind}/{id}", h.verify)
	router.SetFallback(views.ErrorHandler(notFoundView, http.StatusNotFound))

	return module.New(basePath, router), nil
}

func (h *handler) verify(w http.ResponseWriter, r *http.Request) {
	k, err := documents.Lookup(r.PathValue("kind"))
	if err != nil {
		h.notFound(w, r)
		return
	}
	id, err := documents.ParseID(r.PathValue("id"))
	if err != nil {
		h.notFound(w, r)
		return
	}

	v, err := h.docs.Verification(r.Context(), k, id)
	if err != nil {
		if documents.MapHTTPStatus(err) == http.StatusNotFound {
			h.notFound(w, r)
			return
		}
		h.logger.Error("verification lookup failed", "kind", k.Slug, "id", id, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.views.Render(w, http.StatusOK, verifyView, newPage(v)); err != nil {
		h.logger.Error("render verification page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.views.ErrorHandler(notFoundView, http.StatusNotFound)(w, r)
}

func newPage(v *documents.Verification) page {
	doc := v.Document

	p := page{
		ID:             doc.ID,
		Title:          v.Kind.Title,
		Status:         doc.Status,
		StatusLabel:    statusLabels[doc.Status],
		Issuer:         orPlaceholder(v.Issuer),
		CouncilLabel:   v.CouncilLabel,
		Subject:        placeholder,
		NationalID:     placeholder,
		EmissionDate:   doc.EmissionDate.Format(formatting.DateLayout),
		Text:           doc.Text,
		SignatureImage: web.DataURI(v.SignatureImage),
		FileURL:        v.FileURL,
	}
	if p.StatusLabel == "" {
		p.StatusLabel = doc.Status
	}
	if doc.SubjectName != nil {
		p.Subject = orPlaceholder(*doc.SubjectName)
	}
	if doc.SubjectNationalID != nil {
		p.NationalID = orPlaceholder(formatting.NationalID(*doc.SubjectNationalID))
	}
	if doc.EmissionDate.IsZero() {
		p.EmissionDate = placeholder
	}
	if v.FileURL != "" {
		p.Filename = path.Base(v.FileURL)
	}
	return p
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
