package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/medsign/internal/patients"
	"github.com/JaimeStill/medsign/internal/physicians"
	"github.com/JaimeStill/medsign/pkg/compositor"
	"github.com/JaimeStill/medsign/pkg/layout"
	"github.com/JaimeStill/medsign/pkg/overlay"
	"github.com/JaimeStill/medsign/pkg/pagination"
	"github.com/JaimeStill/medsign/pkg/signing"
	"github.com/JaimeStill/medsign/pkg/storage"
)

const (
	contentFile = "content.pdf"
	stagedFile  = "signing.pdf"
	pdfType     = "application/pdf"
)

// Deps are the collaborators of the issuing pipeline.
type Deps struct {
	Records    Records
	Physicians physicians.System
	Patients   patients.System
	Storage    storage.System
	Compositor *compositor.Compositor
	Overlay    *overlay.Composer
	Signer     signing.Signer
	Logger     *slog.Logger
	Pagination pagination.Config

	// PublicBaseURL prefixes public links. Empty uses the request origin.
	PublicBaseURL string
	Location      *time.Location
	// WorkspaceRoot holds the per-request working directories.
	WorkspaceRoot string
	// Now defaults to time.Now.
	Now func() time.Time
}

type pipeline struct {
	Deps
	logger *slog.Logger
}

// New creates the document System.
func New(deps Deps) System {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.WorkspaceRoot == "" {
		deps.WorkspaceRoot = filepath.Join(os.TempDir(), "medsign")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &pipeline{
		Deps:   deps,
		logger: deps.Logger.With("system", "documents"),
	}
}

func (p *pipeline) Handler(maxBodySize int64) *Handler {
	return NewHandler(p, p.Deps.Logger, p.Pagination, maxBodySize)
}

// issue is the state of one Generate call.
type issue struct {
	kind      *Kind
	draft     Draft
	issued    time.Time
	physician *physicians.Physician
	label     string
	paper     physicians.Paper
	id        int64
	verifyURL string
	workdir   string
}

func (p *pipeline) Generate(ctx context.Context, k *Kind, req *Request, origin string) (*Result, error) {
	issued := p.Now().In(p.Location)

	draft, err := k.Draft(req, issued, p.Location)
	if err != nil {
		return nil, err
	}

	physician, err := p.Physicians.Find(ctx, req.IssuerID)
	if err != nil {
		return nil, err
	}

	is := &issue{kind: k, draft: draft, issued: issued, physician: physician}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		is.label = p.Physicians.CouncilLabel(gctx, physician)
		return nil
	})
	g.Go(func() error {
		is.paper = p.Physicians.Paper(gctx, physician.ID, k.Tag)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	subject := req.Subject
	if subject.Name = strings.TrimSpace(subject.Name); subject.Name == "" {
		subject.Name = defaultSubjectName
	}
	patient, err := p.Patients.GetOrCreate(ctx, subject)
	if err != nil {
		return nil, err
	}

	is.id, err = p.Records.Create(ctx, k, NewRecord{
		IssuerID:     physician.ID,
		SubjectID:    patient.ID,
		Text:         draft.Text,
		DurationDays: draft.DurationDays,
		EmissionDate: issued,
	})
	if err != nil {
		return nil, err
	}

	base := p.baseURL(origin)
	is.verifyURL = base + VerifyPath(k, is.id)

	is.workdir, err = p.workspace()
	if err != nil {
		p.fail(ctx, is)
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	defer os.RemoveAll(is.workdir)

	artifact, signed, err := p.produce(ctx, is)
	if err != nil {
		p.fail(ctx, is)
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}

	filename := fmt.Sprintf("%s_%d_%s.pdf", strings.ReplaceAll(k.Slug, "-", "_"), is.id, uuid.NewString())
	key := k.StorageKey(filename)

	if err := p.Storage.Upload(ctx, key, bytes.NewReader(artifact), pdfType); err != nil {
		p.fail(ctx, is)
		return nil, fmt.Errorf("%w: store artifact: %w", ErrGenerate, err)
	}

	status := StatusUnsigned
	var signedAt *time.Time
	if signed {
		status = StatusSigned
		now := p.Now()
		signedAt = &now
	}

	completion := Completion{
		Path:      key,
		Status:    status,
		SignedAt:  signedAt,
		PageCount: pageCount(p.logger, artifact),
	}
	if err := p.Records.Complete(context.WithoutCancel(ctx), k, is.id, completion); err != nil {
		p.logger.Warn("record path update failed", "kind", k.Slug, "id", is.id, "error", err)
	}

	p.logger.Info("document issued", "kind", k.Slug, "id", is.id, "signed", signed, "key", key)

	result := &Result{
		Status:          status,
		ID:              is.id,
		Kind:            k.Slug,
		Signed:          signed,
		PublicURL:       base + k.FilesPrefix() + "/" + filename,
		VerificationURL: is.verifyURL,
		StoredPath:      key,
		Filename:        filename,
		PDF:             artifact,
	}
	if !signed {
		result.Notice = UnsignedNotice
	}
	return result, nil
}

// produce renders the document and signs it when possible. Any signing
// failure yields the unsigned content, which never carries the overlay.
func (p *pipeline) produce(ctx context.Context, is *issue) ([]byte, bool, error) {
	spec := layout.Spec(is.paper.Size)

	bg, err := p.Compositor.Background(ctx, is.paper.Letterhead, is.workdir, spec)
	if err != nil {
		p.logger.Warn("letterhead unavailable", "path", is.paper.Letterhead, "error", err)
		bg = nil
	}

	result, err := layout.Render(spec, is.draft.Content, layout.Options{
		Background: bg,
		CreatedAt:  is.issued,
		Title:      is.kind.Title,
	})
	if err != nil {
		return nil, false, err
	}
	if result.BackgroundErr != nil {
		p.logger.Warn("letterhead skipped", "path", is.paper.Letterhead, "error", result.BackgroundErr)
	}

	material := is.physician.Material()
	if !material.Complete() {
		p.logger.Info("signing material incomplete, issuing unsigned", "physician_id", is.physician.ID)
		return result.PDF, false, nil
	}

	signed, err := p.sign(ctx, is, material, spec, result.PDF)
	if err != nil {
		p.logger.Warn("signing failed, issuing unsigned", "kind", is.kind.Slug, "id", is.id, "error", err)
		return result.PDF, false, nil
	}
	return signed, true, nil
}

// sign stamps the verification overlay onto a staged copy of content and
// signs that copy, so the signature covers the overlay.
func (p *pipeline) sign(
	ctx context.Context,
	is *issue,
	material signing.Material,
	spec layout.PageSpec,
	content []byte,
) ([]byte, error) {
	staged := filepath.Join(is.workdir, stagedFile)
	if err := os.WriteFile(staged, content, 0o600); err != nil {
		return nil, fmt.Errorf("stage document: %w", err)
	}

	rec := overlay.Record{
		URL:          is.verifyURL,
		Signer:       is.physician.Name,
		CouncilLabel: is.label,
		Noun:         is.kind.Noun,
	}
	if material.HasSignatureImage() {
		rec.SignatureImage = material.SignatureImagePath
	}

	if err := p.Overlay.Compose(ctx, staged, is.workdir, rec, spec); err != nil {
		return nil, err
	}

	return p.Signer.Sign(ctx, staged, material)
}

func (p *pipeline) fail(ctx context.Context, is *issue) {
	if err := p.Records.Fail(context.WithoutCancel(ctx), is.kind, is.id); err != nil {
		p.logger.Warn("record status update failed", "kind", is.kind.Slug, "id", is.id, "error", err)
	}
}

// workspace creates a uniquely named directory for one request.
func (p *pipeline) workspace() (string, error) {
	if err := os.MkdirAll(p.WorkspaceRoot, 0o700); err != nil {
		return "", fmt.Errorf("create workspace root: %w", err)
	}
	dir := filepath.Join(p.WorkspaceRoot, uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return dir, nil
}

func (p *pipeline) baseURL(origin string) string {
	if p.PublicBaseURL != "" {
		return p.PublicBaseURL
	}
	return strings.TrimRight(origin, "/")
}

func (p *pipeline) List(
	ctx context.Context,
	k *Kind,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	return p.Records.List(ctx, k, page, filters)
}

func (p *pipeline) Find(ctx context.Context, k *Kind, id int64) (*Document, error) {
	return p.Records.Find(ctx, k, id)
}

func (p *pipeline) Verification(ctx context.Context, k *Kind, id int64) (*Verification, error) {
	doc, err := p.Records.Find(ctx, k, id)
	if err != nil {
		return nil, err
	}

	v := &Verification{Document: doc, Kind: k}
	if doc.Path != PendingPath && doc.Status != StatusFailed {
		v.FileURL = k.FilesPrefix() + "/" + path.Base(doc.Path)
	}

	physician, err := p.Physicians.Find(ctx, doc.IssuerID)
	if err != nil {
		p.logger.Warn("verification issuer unavailable", "kind", k.Slug, "id", id, "error", err)
		v.CouncilLabel = physicians.FallbackLabel
		return v, nil
	}

	v.Issuer = physician.Name
	v.CouncilLabel = p.Physicians.CouncilLabel(ctx, physician)

	if m := physician.Material(); m.HasSignatureImage() {
		if data, err := os.ReadFile(m.SignatureImagePath); err == nil {
			v.SignatureImage = data
		} else {
			p.logger.Warn("signature image unreadable", "path", m.SignatureImagePath, "error", err)
		}
	}

	return v, nil
}

func (p *pipeline) Artifact(ctx context.Context, k *Kind, filename string) (io.ReadCloser, error) {
	if filename == "" || filename != path.Base(filename) || !strings.HasSuffix(filename, ".pdf") {
		return nil, ErrNotFound
	}
	return p.Storage.Download(ctx, k.StorageKey(filename))
}

// VerifyPath is the public verification path of a document.
func VerifyPath(k *Kind, id int64) string {
	return "/verify/" + k.Slug + "/" + strconv.FormatInt(id, 10)
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func pageCount(logger *slog.Logger, data []byte) *int {
	count, err := api.PageCount(bytes.NewReader(data), pdfConfig())
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}
	return &count
}
