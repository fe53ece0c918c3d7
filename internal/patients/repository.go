package patients

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/medsign/pkg/query"
	"github.com/JaimeStill/medsign/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "patients", "pt").
	Project("id", "ID").
	Project("name", "Name").
	Project("national_id", "NationalID").
	Project("birth_date", "BirthDate").
	Project("sex", "Sex").
	Project("created_at", "CreatedAt")

// The no-op update on conflict makes RETURNING yield the existing row.
// NULL national IDs never conflict.
const getOrCreateQuery = `
	INSERT INTO patients (name, national_id, birth_date, sex)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (national_id) DO UPDATE SET national_id = EXCLUDED.national_id
	RETURNING id, name, national_id, birth_date, sex, created_at`

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a patients repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "patients"),
	}
}

func (r *repo) GetOrCreate(ctx context.Context, subject Subject) (*Patient, error) {
	s := subject.Normalize()
	if s.Name == "" {
		return nil, ErrInvalidName
	}

	args := []any{
		s.Name,
		nullable(s.NationalID),
		nullable(s.BirthDate),
		nullable(s.Sex),
	}

	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Patient, error) {
		return repository.QueryOne(ctx, tx, getOrCreateQuery, args, scanPatient)
	})
	if err != nil {
		return nil, fmt.Errorf("get or create patient: %w", err)
	}

	r.logger.Debug("patient resolved", "id", p.ID)
	return &p, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Patient, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPatient)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, err)
	}
	return &p, nil
}

func scanPatient(s repository.Scanner) (Patient, error) {
	var p Patient
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.NationalID,
		&p.BirthDate,
		&p.Sex,
		&p.CreatedAt,
	)
	return p, err
}
