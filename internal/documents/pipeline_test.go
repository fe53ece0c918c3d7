package documents_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/JaimeStill/medsign/internal/documents"
	"github.com/JaimeStill/medsign/internal/patients"
	"github.com/JaimeStill/medsign/internal/physicians"
	"github.com/JaimeStill/medsign/pkg/compositor"
	"github.com/JaimeStill/medsign/pkg/layout"
	"github.com/JaimeStill/medsign/pkg/overlay"
	"github.com/JaimeStill/medsign/pkg/pagination"
	"github.com/JaimeStill/medsign/pkg/signing"
	"github.com/JaimeStill/medsign/pkg/storage"
)

func TestMain(m *testing.M) {
	api.DisableConfigDir()
	os.Exit(m.Run())
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRecords struct {
	mu        sync.Mutex
	next      int64
	created   map[int64]documents.NewRecord
	completed map[int64]documents.Completion
	failed    []int64
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		created:   make(map[int64]documents.NewRecord),
		completed: make(map[int64]documents.Completion),
	}
}

func (f *fakeRecords) Create(_ context.Context, _ *documents.Kind, rec documents.NewRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.created[f.next] = rec
	return f.next, nil
}

func (f *fakeRecords) Complete(_ context.Context, _ *documents.Kind, id int64, c documents.Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[id] = c
	return nil
}

func (f *fakeRecords) Fail(_ context.Context, _ *documents.Kind, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRecords) List(
	context.Context,
	*documents.Kind,
	pagination.PageRequest,
	documents.Filters,
) (*pagination.PageResult[documents.Document], error) {
	result := pagination.NewPageResult[documents.Document](nil, 0, 1, 10)
	return &result, nil
}

func (f *fakeRecords) Find(_ context.Context, k *documents.Kind, id int64) (*documents.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.created[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	doc := &documents.Document{
		ID:       id,
		Kind:     k.Slug,
		IssuerID: rec.IssuerID,
		Text:     rec.Text,
		Path:     documents.PendingPath,
		Status:   documents.StatusPending,
	}
	if c, ok := f.completed[id]; ok {
		doc.Path = c.Path
		doc.Status = c.Status
	}
	return doc, nil
}

func (f *fakeRecords) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakePhysicians struct {
	physician physicians.Physician
	paper     physicians.Paper
}

func (f *fakePhysicians) Find(_ context.Context, id int64) (*physicians.Physician, error) {
	if id != f.physician.ID {
		return nil, physicians.ErrNotFound
	}
	p := f.physician
	return &p, nil
}

func (f *fakePhysicians) CouncilLabel(context.Context, *physicians.Physician) string {
	return "CRM: 12345-SP"
}

func (f *fakePhysicians) Paper(context.Context, int64, string) physicians.Paper {
	return f.paper
}

type fakePatients struct{}

func (fakePatients) GetOrCreate(_ context.Context, s patients.Subject) (*patients.Patient, error) {
	return &patients.Patient{ID: 11, Name: s.Name}, nil
}

func (fakePatients) Find(_ context.Context, id int64) (*patients.Patient, error) {
	return &patients.Patient{ID: id}, nil
}

// recordingSigner returns its input unchanged, or err when set, and remembers
// the directories it was handed.
type recordingSigner struct {
	mu   sync.Mutex
	dirs []string
	err  error
}

func (s *recordingSigner) Sign(_ context.Context, input string, _ signing.Material) ([]byte, error) {
	s.mu.Lock()
	s.dirs = append(s.dirs, filepath.Dir(input))
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return os.ReadFile(input)
}

type failingStorage struct {
	storage.System
}

func (failingStorage) Upload(context.Context, string, io.Reader, string) error {
	return errors.New("disk full")
}

type fixture struct {
	sys        documents.System
	records    *fakeRecords
	signer     *recordingSigner
	storeRoot  string
	workspaces string
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 120, 40))
	for x := 10; x < 110; x++ {
		img.Set(x, 20, color.Black)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// newFixture builds a pipeline over local storage. When withMaterial is set
// the physician carries complete signing material.
func newFixture(t *testing.T, withMaterial bool, configure func(*documents.Deps)) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := discard()

	physician := physicians.Physician{ID: 7, Name: "Dra. Helena Costa", CRM: "12345"}
	if withMaterial {
		physician.CertificatePath = filepath.Join(dir, "helena.pfx")
		if err := os.WriteFile(physician.CertificatePath, []byte("pkcs12"), 0o600); err != nil {
			t.Fatal(err)
		}
		physician.CertificatePassphrase = "segredo"
		physician.SignatureImagePath = filepath.Join(dir, "assinatura.png")
		writeImage(t, physician.SignatureImagePath)
	}

	compCfg := &compositor.Config{}
	if err := compCfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	storeRoot := filepath.Join(dir, "store")
	store, err := storage.New(&storage.Config{Provider: string(storage.ProviderLocal), Root: storeRoot}, logger)
	if err != nil {
		t.Fatal(err)
	}

	records := newFakeRecords()
	signer := &recordingSigner{}
	workspaces := filepath.Join(dir, "work")

	deps := documents.Deps{
		Records:       records,
		Physicians:    &fakePhysicians{physician: physician, paper: physicians.Paper{Size: layout.A5}},
		Patients:      fakePatients{},
		Storage:       store,
		Compositor:    compositor.New(compCfg, logger),
		Overlay:       overlay.New(logger),
		Signer:        signer,
		Logger:        logger,
		Pagination:    pagination.Config{DefaultPageSize: 10, MaxPageSize: 50},
		PublicBaseURL: "https://docs.example.com",
		WorkspaceRoot: workspaces,
	}
	if configure != nil {
		configure(&deps)
	}

	return &fixture{
		sys:        documents.New(deps),
		records:    records,
		signer:     signer,
		storeRoot:  storeRoot,
		workspaces: workspaces,
	}
}

func certificateRequest() *documents.Request {
	return &documents.Request{
		IssuerID:  7,
		Subject:   patients.Subject{Name: "Maria Silva", NationalID: "123.456.789-01"},
		LeaveDays: intPtr(3),
	}
}

func overlayPages(t *testing.T, data []byte) (pages, stamped int) {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	for i := 1; i <= r.NumPage(); i++ {
		if len(r.Page(i).Resources().Key("XObject").Keys()) > 0 {
			stamped++
		}
	}
	return r.NumPage(), stamped
}

// qrPayloads decodes every embedded image of data that reads as a QR code.
func qrPayloads(t *testing.T, data []byte) []string {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, conf)
	if err != nil {
		t.Fatalf("extract images: %v", err)
	}

	var payloads []string
	for _, images := range pages {
		for _, img := range images {
			decoded, _, err := image.Decode(img)
			if err != nil {
				continue
			}
			bmp, err := gozxing.NewBinaryBitmapFromImage(decoded)
			if err != nil {
				continue
			}
			result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
			if err != nil {
				continue
			}
			payloads = append(payloads, result.GetText())
		}
	}
	return payloads
}

func assertWorkspacesRemoved(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("workspace root holds %d entries after issuing", len(entries))
	}
}

func TestGenerateUnsigned(t *testing.T) {
	fx := newFixture(t, false, nil)

	result, err := fx.sys.Generate(context.Background(), documents.Certificate, certificateRequest(), "http://ignored")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if result.Signed || result.Status != documents.StatusUnsigned {
		t.Errorf("signed = %v status = %s, want unsigned", result.Signed, result.Status)
	}
	if result.Notice != documents.UnsignedNotice {
		t.Errorf("notice = %q", result.Notice)
	}
	if result.VerificationURL != "https://docs.example.com/verify/certificate/1" {
		t.Errorf("verification url = %q", result.VerificationURL)
	}
	if want := "https://docs.example.com/certificate-files/" + result.Filename; result.PublicURL != want {
		t.Errorf("public url = %q, want %q", result.PublicURL, want)
	}
	if !strings.HasPrefix(result.Filename, "certificate_1_") {
		t.Errorf("filename = %q", result.Filename)
	}
	if len(fx.signer.dirs) != 0 {
		t.Error("signer invoked without signing material")
	}

	stored, err := os.ReadFile(filepath.Join(fx.storeRoot, filepath.FromSlash(result.StoredPath)))
	if err != nil {
		t.Fatalf("read stored artifact: %v", err)
	}
	if !bytes.Equal(stored, result.PDF) {
		t.Error("stored artifact differs from response")
	}
	if _, stamped := overlayPages(t, stored); stamped != 0 {
		t.Errorf("unsigned document carries an overlay on %d pages", stamped)
	}

	rec := fx.records.created[1]
	if rec.DurationDays == nil || *rec.DurationDays != 3 || rec.SubjectID != 11 || rec.IssuerID != 7 {
		t.Errorf("created record = %+v", rec)
	}
	c := fx.records.completed[1]
	if c.Path != result.StoredPath || c.Status != documents.StatusUnsigned || c.SignedAt != nil {
		t.Errorf("completion = %+v", c)
	}
	if c.PageCount == nil || *c.PageCount != 1 {
		t.Errorf("page count = %v, want 1", c.PageCount)
	}

	assertWorkspacesRemoved(t, fx.workspaces)
}

func TestGenerateSigned(t *testing.T) {
	fx := newFixture(t, true, nil)

	req := &documents.Request{
		IssuerID:     7,
		Subject:      patients.Subject{Name: "Maria Silva"},
		Prescription: "Dipirona 500mg",
		Controlled:   true,
	}

	result, err := fx.sys.Generate(context.Background(), documents.Prescription, req, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !result.Signed || result.Status != documents.StatusSigned || result.Notice != "" {
		t.Errorf("result = %+v, want signed without notice", result)
	}
	if len(fx.signer.dirs) != 1 || filepath.Dir(fx.signer.dirs[0]) != fx.workspaces {
		t.Errorf("signer dirs = %v, want one workspace under %s", fx.signer.dirs, fx.workspaces)
	}

	pages, stamped := overlayPages(t, result.PDF)
	if pages != 2 {
		t.Errorf("pages = %d, want 2 copies", pages)
	}
	if stamped != pages {
		t.Errorf("overlay on %d of %d pages", stamped, pages)
	}

	payloads := qrPayloads(t, result.PDF)
	if len(payloads) == 0 {
		t.Error("no readable qr code in the signed document")
	}
	for _, got := range payloads {
		if got != result.VerificationURL {
			t.Errorf("qr payload = %q, want %q", got, result.VerificationURL)
		}
	}

	if c := fx.records.completed[1]; c.Status != documents.StatusSigned || c.SignedAt == nil {
		t.Errorf("completion = %+v", c)
	}

	assertWorkspacesRemoved(t, fx.workspaces)
}

func TestGenerateSignerFailureIssuesUnsigned(t *testing.T) {
	fx := newFixture(t, true, nil)
	fx.signer.err = fmt.Errorf("%w: exit status 1", signing.ErrNotSigned)

	result, err := fx.sys.Generate(context.Background(), documents.Certificate, certificateRequest(), "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if result.Signed || result.Notice != documents.UnsignedNotice {
		t.Errorf("result = %+v, want unsigned with notice", result)
	}
	if _, stamped := overlayPages(t, result.PDF); stamped != 0 {
		t.Errorf("fallback document carries an overlay on %d pages", stamped)
	}

	assertWorkspacesRemoved(t, fx.workspaces)
}

func TestGenerateUsesRequestOrigin(t *testing.T) {
	fx := newFixture(t, false, func(d *documents.Deps) {
		d.PublicBaseURL = ""
	})

	result, err := fx.sys.Generate(context.Background(), documents.Declaration, &documents.Request{IssuerID: 7}, "http://clinic.local:8080/")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.VerificationURL != "http://clinic.local:8080/verify/declaration/1" {
		t.Errorf("verification url = %q", result.VerificationURL)
	}
}

func TestGenerateRejectsWithoutSideEffects(t *testing.T) {
	fx := newFixture(t, false, nil)

	tests := []struct {
		name   string
		kind   *documents.Kind
		req    *documents.Request
		status int
	}{
		{"empty exam list", documents.ExamOrder, &documents.Request{IssuerID: 7}, http.StatusBadRequest},
		{"missing issuer", documents.Certificate, &documents.Request{}, http.StatusBadRequest},
		{"unknown physician", documents.Certificate, &documents.Request{IssuerID: 99}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.sys.Generate(context.Background(), tt.kind, tt.req, "")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := documents.MapHTTPStatus(err); got != tt.status {
				t.Errorf("status = %d, want %d (%v)", got, tt.status, err)
			}
		})
	}

	if n := fx.records.createdCount(); n != 0 {
		t.Errorf("%d records created for rejected requests", n)
	}
}

func TestGenerateStorageFailure(t *testing.T) {
	fx := newFixture(t, false, func(d *documents.Deps) {
		d.Storage = failingStorage{System: d.Storage}
	})

	_, err := fx.sys.Generate(context.Background(), documents.Certificate, certificateRequest(), "")
	if !errors.Is(err, documents.ErrGenerate) {
		t.Fatalf("err = %v, want ErrGenerate", err)
	}
	if got := documents.MapHTTPStatus(err); got != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got)
	}
	if len(fx.records.failed) != 1 || fx.records.failed[0] != 1 {
		t.Errorf("failed records = %v, want [1]", fx.records.failed)
	}

	assertWorkspacesRemoved(t, fx.workspaces)
}

func TestGenerateConcurrentWorkspaces(t *testing.T) {
	fx := newFixture(t, true, nil)
	const n = 5

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Go(func() {
			_, err := fx.sys.Generate(context.Background(), documents.Certificate, certificateRequest(), "")
			errs <- err
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
	}

	seen := make(map[string]bool)
	for _, dir := range fx.signer.dirs {
		if seen[dir] {
			t.Errorf("workspace %s reused", dir)
		}
		seen[dir] = true
	}
	if len(seen) != n {
		t.Errorf("distinct workspaces = %d, want %d", len(seen), n)
	}

	assertWorkspacesRemoved(t, fx.workspaces)
}

func TestVerificationAndArtifact(t *testing.T) {
	fx := newFixture(t, true, nil)
	ctx := context.Background()

	result, err := fx.sys.Generate(ctx, documents.Certificate, certificateRequest(), "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	v, err := fx.sys.Verification(ctx, documents.Certificate, result.ID)
	if err != nil {
		t.Fatalf("verification: %v", err)
	}
	if v.Issuer != "Dra. Helena Costa" || v.CouncilLabel != "CRM: 12345-SP" {
		t.Errorf("issuer = %q label = %q", v.Issuer, v.CouncilLabel)
	}
	if len(v.SignatureImage) == 0 {
		t.Error("expected signature image bytes")
	}
	if v.FileURL != "/certificate-files/"+result.Filename {
		t.Errorf("file url = %q", v.FileURL)
	}

	rc, err := fx.sys.Artifact(ctx, documents.Certificate, result.Filename)
	if err != nil {
		t.Fatalf("artifact: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(data, result.PDF) {
		t.Error("artifact differs from issued document")
	}

	for _, name := range []string{"../secret.pdf", "notes.txt", ""} {
		if _, err := fx.sys.Artifact(ctx, documents.Certificate, name); !errors.Is(err, documents.ErrNotFound) {
			t.Errorf("Artifact(%q) err = %v, want ErrNotFound", name, err)
		}
	}
	if _, err := fx.sys.Artifact(ctx, documents.Certificate, "certificate_9_missing.pdf"); documents.MapHTTPStatus(err) != http.StatusNotFound {
		t.Errorf("missing artifact err = %v", err)
	}

	if _, err := fx.sys.Verification(ctx, documents.Certificate, 404); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("unknown verification err = %v", err)
	}
}
