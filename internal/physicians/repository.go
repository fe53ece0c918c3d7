package physicians

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/JaimeStill/medsign/pkg/layout"
	"github.com/JaimeStill/medsign/pkg/query"
	"github.com/JaimeStill/medsign/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "physicians", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("crm", "CRM").
	Project("certificate_path", "CertificatePath").
	Project("certificate_passphrase", "CertificatePassphrase").
	Project("signature_image_path", "SignatureImagePath")

const (
	councilQuery = `
		SELECT kind, code, uf
		FROM councils
		WHERE physician_id = $1
		ORDER BY id DESC
		LIMIT 1`

	preferenceQuery = `
		SELECT default_size
		FROM paper_preferences
		WHERE physician_id = $1 AND doc_tag = $2
		LIMIT 1`

	letterheadQuery = `
		SELECT path
		FROM letterheads
		WHERE physician_id = $1 AND size = $2 AND active
		ORDER BY id DESC
		LIMIT 1`
)

type repo struct {
	db       *sql.DB
	defaults PaperDefaults
	logger   *slog.Logger
}

// New creates a physicians repository implementing the System interface.
func New(db *sql.DB, defaults PaperDefaults, logger *slog.Logger) System {
	return &repo{
		db:       db,
		defaults: defaults,
		logger:   logger.With("system", "physicians"),
	}
}

func (r *repo) Find(ctx context.Context, id int64) (*Physician, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPhysician)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, err)
	}
	return &p, nil
}

func (r *repo) CouncilLabel(ctx context.Context, p *Physician) string {
	c, err := repository.QueryOne(ctx, r.db, councilQuery, []any{p.ID}, scanCouncil)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("council lookup failed", "physician_id", p.ID, "error", err)
		}
		return CouncilLabel(nil, p.CRM)
	}
	return CouncilLabel(&c, p.CRM)
}

func (r *repo) Paper(ctx context.Context, physicianID int64, tag string) Paper {
	tag = strings.ToUpper(tag)
	paper := Paper{Size: r.defaults(tag)}

	var preferred string
	err := r.db.QueryRowContext(ctx, preferenceQuery, physicianID, tag).Scan(&preferred)
	switch {
	case err == nil:
		if size, ok := layout.ParseSize(preferred); ok {
			paper.Size = size
		}
	case !errors.Is(err, sql.ErrNoRows):
		r.logger.Warn("paper preference lookup failed", "physician_id", physicianID, "tag", tag, "error", err)
	}

	var path string
	err = r.db.QueryRowContext(ctx, letterheadQuery, physicianID, string(paper.Size)).Scan(&path)
	switch {
	case err == nil:
		paper.Letterhead = cleanPath(path)
	case !errors.Is(err, sql.ErrNoRows):
		r.logger.Warn("letterhead lookup failed", "physician_id", physicianID, "size", paper.Size, "error", err)
	}

	return paper
}

func scanPhysician(s repository.Scanner) (Physician, error) {
	var p Physician
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.CRM,
		&p.CertificatePath,
		&p.CertificatePassphrase,
		&p.SignatureImagePath,
	)
	p.CertificatePath = cleanPath(p.CertificatePath)
	p.SignatureImagePath = cleanPath(p.SignatureImagePath)
	return p, err
}

func scanCouncil(s repository.Scanner) (Council, error) {
	var c Council
	err := s.Scan(&c.Kind, &c.Code, &c.UF)
	return c, err
}
