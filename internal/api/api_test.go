package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/medsign/internal/api"
	"github.com/JaimeStill/medsign/internal/config"
	"github.com/JaimeStill/medsign/internal/documents"
	"github.com/JaimeStill/medsign/internal/infrastructure"
	"github.com/JaimeStill/medsign/pkg/module"
	"github.com/JaimeStill/medsign/pkg/pagination"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockSystem struct {
	generated []string
	artifacts map[string]string
}

func (m *mockSystem) Handler(maxBodySize int64) *documents.Handler {
	return documents.NewHandler(m, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxBodySize)
}

func (m *mockSystem) Generate(_ context.Context, k *documents.Kind, req *documents.Request, origin string) (*documents.Result, error) {
	if err := k.Validate(req); err != nil {
		return nil, err
	}
	m.generated = append(m.generated, k.Slug)
	return &documents.Result{
		Status:    "ok",
		ID:        1,
		Kind:      k.Slug,
		PublicURL: origin + k.FilesPrefix() + "/doc.pdf",
	}, nil
}

func (m *mockSystem) List(
	context.Context,
	*documents.Kind,
	pagination.PageRequest,
	documents.Filters,
) (*pagination.PageResult[documents.Document], error) {
	return nil, errors.New("not implemented")
}

func (m *mockSystem) Find(context.Context, *documents.Kind, int64) (*documents.Document, error) {
	return nil, documents.ErrNotFound
}

func (m *mockSystem) Verification(context.Context, *documents.Kind, int64) (*documents.Verification, error) {
	return nil, documents.ErrNotFound
}

func (m *mockSystem) Artifact(_ context.Context, k *documents.Kind, filename string) (io.ReadCloser, error) {
	body, ok := m.artifacts[k.StorageKey(filename)]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.API.Finalize(); err != nil {
		t.Fatalf("finalize api config: %v", err)
	}
	return cfg
}

func newRuntime() *api.Runtime {
	return &api.Runtime{Infrastructure: &infrastructure.Infrastructure{Logger: discard()}}
}

func TestModuleGenerate(t *testing.T) {
	sys := &mockSystem{}
	m, err := api.NewModule(newConfig(t), newRuntime(), &api.Domain{Documents: sys})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}

	body := `{"medico_id": 7, "nome_paciente": "Maria Silva", "dias_afastamento": 3}`
	req := httptest.NewRequest(http.MethodPost, "/api/generate-certificate", strings.NewReader(body))
	req.Host = "clinic.example.com"
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var result documents.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.PublicURL != "http://clinic.example.com/certificate-files/doc.pdf" {
		t.Errorf("public url = %s", result.PublicURL)
	}
	if len(sys.generated) != 1 || sys.generated[0] != "certificate" {
		t.Errorf("generated = %v", sys.generated)
	}
}

func TestModuleRejectsOversizedBody(t *testing.T) {
	cfg := newConfig(t)
	cfg.API.MaxBodySize = "64B"

	m, err := api.NewModule(cfg, newRuntime(), &api.Domain{Documents: &mockSystem{}})
	if err != nil {
		t.Fatalf("new module: %v", err)
	}

	body := `{"medico_id": 7, "receita_texto": "` + strings.Repeat("x", 256) + `"}`
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate-prescription", strings.NewReader(body)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestRegisterFiles(t *testing.T) {
	sys := &mockSystem{artifacts: map[string]string{
		"prescription/prescription_3_abc.pdf": "%PDF-1.7 fake",
	}}

	router := module.NewRouter()
	api.RegisterFiles(router, sys, discard())

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"stored artifact", "/prescription-files/prescription_3_abc.pdf", http.StatusOK},
		{"other kind", "/certificate-files/prescription_3_abc.pdf", http.StatusNotFound},
		{"missing artifact", "/prescription-files/missing.pdf", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
				t.Errorf("content type = %s", ct)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline") {
				t.Errorf("content disposition = %s, want inline", cd)
			}
			if rec.Body.String() != "%PDF-1.7 fake" {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}
