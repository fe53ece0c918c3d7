package documents_test

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/medsign/internal/documents"
	"github.com/JaimeStill/medsign/internal/physicians"
	"github.com/JaimeStill/medsign/pkg/pagination"
	"github.com/JaimeStill/medsign/pkg/routes"
)

type mockSystem struct {
	generate func(ctx context.Context, k *documents.Kind, req *documents.Request, origin string) (*documents.Result, error)
	find     func(ctx context.Context, k *documents.Kind, id int64) (*documents.Document, error)
	list     func(ctx context.Context, k *documents.Kind, page pagination.PageRequest, f documents.Filters) (*pagination.PageResult[documents.Document], error)
}

func (m *mockSystem) Handler(int64) *documents.Handler { return nil }

func (m *mockSystem) Generate(ctx context.Context, k *documents.Kind, req *documents.Request, origin string) (*documents.Result, error) {
	return m.generate(ctx, k, req, origin)
}

func (m *mockSystem) List(ctx context.Context, k *documents.Kind, page pagination.PageRequest, f documents.Filters) (*pagination.PageResult[documents.Document], error) {
	return m.list(ctx, k, page, f)
}

func (m *mockSystem) Find(ctx context.Context, k *documents.Kind, id int64) (*documents.Document, error) {
	return m.find(ctx, k, id)
}

func (m *mockSystem) Verification(context.Context, *documents.Kind, int64) (*documents.Verification, error) {
	return nil, documents.ErrNotFound
}

func (m *mockSystem) Artifact(context.Context, *documents.Kind, string) (io.ReadCloser, error) {
	return nil, documents.ErrNotFound
}

func newMux(sys *mockSystem, maxBody int64) *http.ServeMux {
	h := documents.NewHandler(sys, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxBody)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func okGenerate(ctx context.Context, k *documents.Kind, req *documents.Request, origin string) (*documents.Result, error) {
	if err := k.Validate(req); err != nil {
		return nil, err
	}
	if req.IssuerID == 404 {
		return nil, physicians.ErrNotFound
	}
	return &documents.Result{
		Status:          documents.StatusUnsigned,
		ID:              3,
		Kind:            k.Slug,
		VerificationURL: origin + documents.VerifyPath(k, 3),
		Notice:          documents.UnsignedNotice,
		Filename:        k.Slug + "_3.pdf",
		PDF:             []byte("%PDF-1.4 fake"),
	}, nil
}

func TestRoutes(t *testing.T) {
	h := documents.NewHandler(&mockSystem{}, discard(), pagination.Config{}, 1024)
	got := routes.Patterns(h.Routes())
	want := []string{
		"POST /generate-certificate",
		"POST /generate-declaration",
		"POST /generate-exam-order",
		"POST /generate-prescription",
		"GET /documents/{kind}",
		"GET /documents/{kind}/{id}",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("patterns = %v, want %v", got, want)
	}
}

func TestGenerateHandler(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		errMsg string
	}{
		{"created", "/generate-certificate", `{"medico_id": 1, "nome_paciente": "Maria Silva"}`, http.StatusCreated, ""},
		{"malformed json", "/generate-certificate", `{"medico_id":`, http.StatusBadRequest, documents.ErrInvalidRequest.Error()},
		{"wrong field type", "/generate-declaration", `{"medico_id": "abc"}`, http.StatusBadRequest, documents.ErrInvalidRequest.Error()},
		{"missing issuer", "/generate-prescription", `{}`, http.StatusBadRequest, documents.ErrMissingIssuer.Error()},
		{"empty exam list", "/generate-exam-order", `{"medico_id": 1, "lista_exames": []}`, http.StatusBadRequest, documents.ErrNoExams.Error()},
		{"unknown physician", "/generate-certificate", `{"medico_id": 404}`, http.StatusNotFound, physicians.ErrNotFound.Error()},
		{"body too large", "/generate-prescription", `{"medico_id": 1, "receita_texto": "` + strings.Repeat("x", 300) + `"}`, http.StatusRequestEntityTooLarge, documents.ErrInvalidRequest.Error()},
	}

	mux := newMux(&mockSystem{generate: okGenerate}, 256)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}

			var body map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if tt.errMsg != "" {
				if body["error"] != tt.errMsg {
					t.Errorf("error = %v, want %q", body["error"], tt.errMsg)
				}
				return
			}

			for _, key := range []string{"status", "id", "kind", "signed", "publicUrl", "verificationUrl", "storedPath", "notice"} {
				if _, ok := body[key]; !ok {
					t.Errorf("envelope missing %q: %v", key, body)
				}
			}
			if body["verificationUrl"] != "http://example.com/verify/certificate/3" {
				t.Errorf("verificationUrl = %v", body["verificationUrl"])
			}
		})
	}
}

func TestGenerateHandlerPDF(t *testing.T) {
	mux := newMux(&mockSystem{generate: okGenerate}, 1024)

	req := httptest.NewRequest(http.MethodPost, "/generate-prescription", strings.NewReader(`{"medico_id": 1}`))
	req.Header.Set("Accept", "application/pdf;q=0.9, text/html")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=prescription_3.pdf` {
		t.Errorf("disposition = %q", cd)
	}
	if rec.Body.String() != "%PDF-1.4 fake" {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestFindHandler(t *testing.T) {
	sys := &mockSystem{
		find: func(_ context.Context, k *documents.Kind, id int64) (*documents.Document, error) {
			if id != 5 {
				return nil, documents.ErrNotFound
			}
			return &documents.Document{ID: id, Kind: k.Slug, Status: documents.StatusSigned}, nil
		},
	}
	mux := newMux(sys, 1024)

	tests := []struct {
		path   string
		status int
	}{
		{"/documents/prescription/5", http.StatusOK},
		{"/documents/prescription/6", http.StatusNotFound},
		{"/documents/prescription/abc", http.StatusBadRequest},
		{"/documents/prescription/0", http.StatusBadRequest},
		{"/documents/invoice/5", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
		})
	}
}

func TestListHandler(t *testing.T) {
	var gotPage pagination.PageRequest
	var gotFilters documents.Filters
	var gotKind string

	sys := &mockSystem{
		list: func(_ context.Context, k *documents.Kind, page pagination.PageRequest, f documents.Filters) (*pagination.PageResult[documents.Document], error) {
			gotKind, gotPage, gotFilters = k.Slug, page, f
			result := pagination.NewPageResult([]documents.Document{{ID: 1}}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := newMux(sys, 1024)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/exam-order?page=2&page_size=500&issuer_id=7&status=signed&sort=-EmissionDate", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if gotKind != "exam-order" {
		t.Errorf("kind = %q", gotKind)
	}
	if gotPage.Page != 2 || gotPage.PageSize != 100 {
		t.Errorf("page = %+v, want page 2 clamped to 100", gotPage)
	}
	if len(gotPage.Sort) != 1 || gotPage.Sort[0].Field != "EmissionDate" || !gotPage.Sort[0].Descending {
		t.Errorf("sort = %+v", gotPage.Sort)
	}
	if gotFilters.IssuerID == nil || *gotFilters.IssuerID != 7 {
		t.Errorf("issuer filter = %v", gotFilters.IssuerID)
	}
	if gotFilters.Status == nil || *gotFilters.Status != "signed" {
		t.Errorf("status filter = %v", gotFilters.Status)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	f := documents.FiltersFromQuery(map[string][]string{
		"issuer_id":  {"x"},
		"subject_id": {"12"},
		"from":       {"2024-03-01"},
		"to":         {"31/03/2024"},
	})
	if f.IssuerID != nil {
		t.Error("unparseable issuer_id should be ignored")
	}
	if f.SubjectID == nil || *f.SubjectID != 12 {
		t.Errorf("subject_id = %v", f.SubjectID)
	}
	if f.Status != nil {
		t.Error("status should be nil")
	}
	if f.EmittedFrom == nil || f.EmittedFrom.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("emitted_from = %v", f.EmittedFrom)
	}
	if f.EmittedTo != nil {
		t.Error("non ISO to date should be ignored")
	}
}

func TestRequestOrigin(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		tls     bool
		want    string
	}{
		{"plain", nil, false, "http://clinic.local"},
		{"tls", nil, true, "https://clinic.local"},
		{
			"forwarded",
			map[string]string{"X-Forwarded-Proto": "https, http", "X-Forwarded-Host": "docs.example.com"},
			false,
			"https://docs.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://clinic.local/api/generate-certificate", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if got := documents.RequestOrigin(req); got != tt.want {
				t.Errorf("RequestOrigin() = %q, want %q", got, tt.want)
			}
		})
	}
}
