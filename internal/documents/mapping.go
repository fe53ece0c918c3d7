package documents

import (
	"net/url"
	"strconv"
	"time"

	"github.com/JaimeStill/medsign/pkg/query"
	"github.com/JaimeStill/medsign/pkg/repository"
)

func projection(k *Kind) *query.ProjectionMap {
	return query.
		NewProjectionMap("public", k.Table, "d").
		Project("id", "ID").
		Project("issuer_id", "IssuerID").
		Project("subject_id", "SubjectID").
		Project("content_text", "Text").
		Project("duration_days", "DurationDays").
		Project("emission_date", "EmissionDate").
		Project("signed_pdf_path", "Path").
		Project("signed_at", "SignedAt").
		Project("status", "Status").
		Project("page_count", "PageCount").
		Project("created_at", "CreatedAt").
		LeftJoin("public", "physicians", "p", "p.id = d.issuer_id").
		ProjectFrom("p", "name", "IssuerName").
		LeftJoin("public", "patients", "pt", "pt.id = d.subject_id").
		ProjectFrom("pt", "name", "SubjectName").
		ProjectFrom("pt", "national_id", "SubjectNationalID")
}

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for document listings.
// Nil fields are ignored.
type Filters struct {
	IssuerID  *int64  `json:"issuer_id,omitempty"`
	SubjectID *int64  `json:"subject_id,omitempty"`
	Status    *string `json:"status,omitempty"`

	// EmittedFrom and EmittedTo bound the emission date, inclusive.
	EmittedFrom *time.Time `json:"emitted_from,omitempty"`
	EmittedTo   *time.Time `json:"emitted_to,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("IssuerID", f.IssuerID).
		WhereEquals("SubjectID", f.SubjectID).
		WhereEquals("Status", f.Status).
		WhereAtLeast("EmissionDate", f.EmittedFrom).
		WhereAtMost("EmissionDate", f.EmittedTo)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unparseable ids and dates are ignored. from and to are YYYY-MM-DD.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("issuer_id"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			f.IssuerID = &v
		}
	}

	if s := values.Get("subject_id"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			f.SubjectID = &v
		}
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	f.EmittedFrom = queryDate(values.Get("from"))
	f.EmittedTo = queryDate(values.Get("to"))

	return f
}

func queryDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}

// sortable drops sort fields that do not name a projected column.
func sortable(p *query.ProjectionMap, fields []query.SortField) []query.SortField {
	kept := make([]query.SortField, 0, len(fields))
	for _, f := range fields {
		if p.Column(f.Field) != f.Field {
			kept = append(kept, f)
		}
	}
	return kept
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.IssuerID,
		&d.SubjectID,
		&d.Text,
		&d.DurationDays,
		&d.EmissionDate,
		&d.Path,
		&d.SignedAt,
		&d.Status,
		&d.PageCount,
		&d.CreatedAt,
		&d.IssuerName,
		&d.SubjectName,
		&d.SubjectNationalID,
	)
	return d, err
}
