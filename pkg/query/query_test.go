package query_test

import (
	"reflect"
	"testing"

	"github.com/JaimeStill/medsign/pkg/query"
)

func certificates() *query.ProjectionMap {
	return query.NewProjectionMap("public", "certificates", "c").
		Project("id", "id").
		Project("status", "status").
		Project("emission_date", "emittedAt").
		LeftJoin("public", "physicians", "p", "p.id = c.issuer_id").
		ProjectFrom("p", "name", "issuer").
		LeftJoin("public", "patients", "s", "s.id = c.subject_id").
		ProjectFrom("s", "name", "subject")
}

func ptr(s string) *string { return &s }

func TestProjectionFrom(t *testing.T) {
	p := certificates()

	want := "public.certificates c LEFT JOIN public.physicians p ON p.id = c.issuer_id LEFT JOIN public.patients s ON s.id = c.subject_id"
	if got := p.From(); got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}

	plain := query.NewProjectionMap("public", "patients", "s").Project("id", "id")
	if got := plain.From(); got != "public.patients s" {
		t.Errorf("From() without joins = %q", got)
	}
}

func TestProjectionColumns(t *testing.T) {
	p := certificates()

	if got, want := p.Columns(), "c.id, c.status, c.emission_date, p.name, s.name"; got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}

	tests := []struct {
		view string
		want string
	}{
		{"emittedAt", "c.emission_date"},
		{"issuer", "p.name"},
		{"subject", "s.name"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := p.Column(tt.view); got != tt.want {
			t.Errorf("Column(%q) = %q, want %q", tt.view, got, tt.want)
		}
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		input string
		want  []query.SortField
	}{
		{"", nil},
		{"issuer", []query.SortField{{Field: "issuer"}}},
		{"-emittedAt", []query.SortField{{Field: "emittedAt", Descending: true}}},
		{"status, -emittedAt,", []query.SortField{{Field: "status"}, {Field: "emittedAt", Descending: true}}},
	}

	for _, tt := range tests {
		if got := query.ParseSortFields(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestBuilderPage(t *testing.T) {
	b := query.NewBuilder(certificates(), query.SortField{Field: "emittedAt", Descending: true}).
		WhereEquals("issuer_id", 7).
		WhereSearch(ptr("maria"), "subject", "issuer")

	sql, args := b.BuildPage(2, 10)
	wantSQL := "SELECT c.id, c.status, c.emission_date, p.name, s.name FROM public.certificates c " +
		"LEFT JOIN public.physicians p ON p.id = c.issuer_id LEFT JOIN public.patients s ON s.id = c.subject_id " +
		"WHERE issuer_id = $1 AND (s.name ILIKE $2 OR p.name ILIKE $3) ORDER BY c.emission_date DESC LIMIT 10 OFFSET 10"
	if sql != wantSQL {
		t.Errorf("BuildPage() sql = %q\nwant %q", sql, wantSQL)
	}
	if want := []any{7, "%maria%", "%maria%"}; !reflect.DeepEqual(args, want) {
		t.Errorf("BuildPage() args = %v, want %v", args, want)
	}

	count, countArgs := b.BuildCount()
	wantCount := "SELECT COUNT(*) FROM public.certificates c " +
		"LEFT JOIN public.physicians p ON p.id = c.issuer_id LEFT JOIN public.patients s ON s.id = c.subject_id " +
		"WHERE issuer_id = $1 AND (s.name ILIKE $2 OR p.name ILIKE $3)"
	if count != wantCount {
		t.Errorf("BuildCount() sql = %q\nwant %q", count, wantCount)
	}
	if len(countArgs) != 3 {
		t.Errorf("BuildCount() args = %v", countArgs)
	}
}

func TestBuilderSkipsEmptyFilters(t *testing.T) {
	var issuer *int
	b := query.NewBuilder(certificates()).
		WhereEquals("issuer_id", issuer).
		WhereSearch(nil, "subject").
		WhereSearch(ptr(""), "subject")

	sql, args := b.BuildCount()
	want := "SELECT COUNT(*) FROM " + certificates().From()
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want empty", args)
	}
}

func TestBuilderRange(t *testing.T) {
	var to *string
	b := query.NewBuilder(certificates()).
		WhereAtLeast("emittedAt", "2024-03-01").
		WhereAtMost("emittedAt", to).
		WhereEquals("status", "signed")

	sql, args := b.BuildCount()
	want := "SELECT COUNT(*) FROM " + certificates().From() +
		" WHERE c.emission_date >= $1 AND c.status = $2"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if wantArgs := []any{"2024-03-01", "signed"}; !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
}

func TestBuilderOrderOverride(t *testing.T) {
	b := query.NewBuilder(certificates(), query.SortField{Field: "emittedAt", Descending: true}).
		OrderByFields(query.ParseSortFields("subject,-id"))

	sql, _ := b.BuildPage(1, 5)
	want := "SELECT c.id, c.status, c.emission_date, p.name, s.name FROM " + certificates().From() +
		" ORDER BY s.name ASC, c.id DESC LIMIT 5 OFFSET 0"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestBuilderSingle(t *testing.T) {
	sql, args := query.NewBuilder(certificates()).BuildSingle("id", int64(42))
	want := "SELECT c.id, c.status, c.emission_date, p.name, s.name FROM " + certificates().From() + " WHERE c.id = $1"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{int64(42)}) {
		t.Errorf("args = %v", args)
	}
}
