package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/medsign/internal/physicians"
	"github.com/JaimeStill/medsign/pkg/pagination"
	"github.com/JaimeStill/medsign/pkg/query"
	"github.com/JaimeStill/medsign/pkg/repository"
)

// Records persists document rows. Table names come from Kind descriptors and
// never from request input.
type Records interface {
	// Create inserts a pending record and returns its id.
	Create(ctx context.Context, k *Kind, rec NewRecord) (int64, error)
	// Complete stores the artifact location and final status.
	Complete(ctx context.Context, k *Kind, id int64, c Completion) error
	// Fail marks a record whose artifact could not be produced.
	Fail(ctx context.Context, k *Kind, id int64) error

	List(
		ctx context.Context,
		k *Kind,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, k *Kind, id int64) (*Document, error)
}

// NewRecord carries the columns written when a document is requested.
type NewRecord struct {
	IssuerID     int64
	SubjectID    int64
	Text         string
	DurationDays *int
	// EmissionDate is stored as the calendar date in its own location.
	EmissionDate time.Time
}

// Completion carries the columns written once the artifact is stored.
type Completion struct {
	Path      string
	Status    string
	SignedAt  *time.Time
	PageCount *int
}

type records struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// NewRecords creates the Postgres implementation of Records.
func NewRecords(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Records {
	return &records{
		db:         db,
		logger:     logger.With("system", "records"),
		pagination: pagination,
	}
}

func (r *records) Create(ctx context.Context, k *Kind, rec NewRecord) (int64, error) {
	q := fmt.Sprintf(`
		INSERT INTO %s (issuer_id, subject_id, content_text, duration_days, emission_date, signed_pdf_path, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`, k.Table)

	args := []any{
		rec.IssuerID,
		rec.SubjectID,
		rec.Text,
		rec.DurationDays,
		rec.EmissionDate.Format(time.DateOnly),
		PendingPath,
		StatusPending,
	}

	id, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		return repository.QueryOne(ctx, tx, q, args, scanID)
	})
	if err != nil {
		if repository.IsForeignKeyViolation(err) {
			return 0, physicians.ErrNotFound
		}
		return 0, fmt.Errorf("insert %s: %w", k.Table, err)
	}

	r.logger.Info("document recorded", "kind", k.Slug, "id", id)
	return id, nil
}

func (r *records) Complete(ctx context.Context, k *Kind, id int64, c Completion) error {
	q := fmt.Sprintf(`
		UPDATE %s
		SET signed_pdf_path = $2, status = $3, signed_at = $4, page_count = $5
		WHERE id = $1`, k.Table)

	if err := repository.ExecExpectOne(ctx, r.db, q, id, c.Path, c.Status, c.SignedAt, c.PageCount); err != nil {
		return repository.MapError(err, ErrNotFound, err)
	}
	return nil
}

func (r *records) Fail(ctx context.Context, k *Kind, id int64) error {
	q := fmt.Sprintf("UPDATE %s SET status = $2 WHERE id = $1", k.Table)

	if err := repository.ExecExpectOne(ctx, r.db, q, id, StatusFailed); err != nil {
		return repository.MapError(err, ErrNotFound, err)
	}
	return nil
}

func (r *records) List(
	ctx context.Context,
	k *Kind,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)
	proj := projection(k)

	qb := query.
		NewBuilder(proj, defaultSort).
		WhereSearch(page.Search, "Text", "IssuerName", "SubjectName", "SubjectNationalID")

	filters.Apply(qb)

	if sort := sortable(proj, page.Sort); len(sort) > 0 {
		qb.OrderByFields(sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", k.Table, err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", k.Table, err)
	}
	for i := range docs {
		docs[i].Kind = k.Slug
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *records) Find(ctx context.Context, k *Kind, id int64) (*Document, error) {
	q, args := query.NewBuilder(projection(k)).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, err)
	}
	d.Kind = k.Slug
	return &d, nil
}

func scanID(s repository.Scanner) (int64, error) {
	var id int64
	err := s.Scan(&id)
	return id, err
}
