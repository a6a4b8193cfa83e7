package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/filter"
	"github.com/goliatone/go-facet-catalog/query"
)

// offlineDB renders queries without connecting; lib/pq dials lazily.
func offlineDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open("postgres", "postgres://catalog@127.0.0.1:1/catalog?sslmode=disable")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func render(t *testing.T, spec filter.Spec) string {
	t.Helper()
	var rows []itemModel
	return findQuery(offlineDB(t), &rows, query.NewCompiler().Compile(spec)).String()
}

func TestFindQuery_Empty(t *testing.T) {
	stmt := render(t, filter.New())

	if !strings.Contains(stmt, `FROM "content_items" AS "ci"`) {
		t.Errorf("missing table: %s", stmt)
	}
	if !strings.Contains(stmt, "1=1") {
		t.Errorf("expected tautology where clause: %s", stmt)
	}
	if !strings.Contains(stmt, `ORDER BY ci.name COLLATE "C" ASC, ci.id ASC`) {
		t.Errorf("expected default order: %s", stmt)
	}
	if strings.Contains(stmt, "LIMIT") {
		t.Errorf("unexpected limit: %s", stmt)
	}
}

func TestFindQuery_AllPredicates(t *testing.T) {
	stmt := render(t, filter.New(
		filter.WithThemes(filter.MatchAll, "Music", "family"),
		filter.WithAgeGroup("Preschool"),
		filter.WithAgeRange(4, 8),
		filter.WithStimulationRange(1, 3),
		filter.WithSearch("blue"),
		filter.WithSort(filter.SortNewest),
		filter.WithPage(10, 20),
	))

	fragments := []string{
		`unnest(ci.themes) AS t) @> '{`,
		`"family"`,
		`"music"`,
		`ci.age_group = 'Preschool'`,
		`split_part(ci.age_range, '-', 1)::numeric <= 8`,
		`split_part(ci.age_range, '-', 2)::numeric >= 4`,
		`ci.stimulation_score >= 1 AND ci.stimulation_score <= 3`,
		`ci.name ILIKE '%blue%'`,
		`ORDER BY ci.release_year DESC NULLS LAST`,
		`LIMIT 10`,
		`OFFSET 20`,
	}
	for _, f := range fragments {
		if !strings.Contains(stmt, f) {
			t.Errorf("missing %q in:\n%s", f, stmt)
		}
	}
	if strings.Contains(stmt, "?") {
		t.Errorf("unbound placeholder in:\n%s", stmt)
	}
}

func TestFindQuery_OrAndSearchTiers(t *testing.T) {
	stmt := render(t, filter.New(
		filter.WithThemes(filter.MatchAny, "Music"),
		filter.WithSearch("Blue"),
	))

	if !strings.Contains(stmt, `unnest(ci.themes) AS t) && '{`) {
		t.Errorf("expected overlap operator:\n%s", stmt)
	}
	if !strings.Contains(stmt, `CASE WHEN lower(ci.name) = 'blue' THEN 1`) {
		t.Errorf("expected tier ordering:\n%s", stmt)
	}
}

func TestFindQuery_Deterministic(t *testing.T) {
	a := render(t, filter.New(filter.WithThemes(filter.MatchAll, "b", "A"), filter.WithSearch("x")))
	b := render(t, filter.New(filter.WithThemes(filter.MatchAll, "a", "B"), filter.WithSearch("x")))
	if a != b {
		t.Errorf("equivalent specs rendered differently:\n%s\n%s", a, b)
	}
}

func TestBindArgs(t *testing.T) {
	args := bindArgs([]any{[]string{"a"}, 3, "x"})
	if _, ok := args[0].([]string); ok {
		t.Error("string slices must be wrapped as arrays")
	}
	if args[1] != 3 || args[2] != "x" {
		t.Errorf("scalar args changed: %v", args)
	}
}

func TestStore_UnavailableDatabase(t *testing.T) {
	s := New(offlineDB(t))
	_, err := s.Find(context.Background(), query.NewCompiler().Compile(filter.New()))

	var storeErr *catalog.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !errors.Is(err, catalog.ErrStoreUnavailable) {
		t.Error("store errors must match ErrStoreUnavailable")
	}
	if storeErr.Op != "find" {
		t.Errorf("unexpected op %q", storeErr.Op)
	}
}

// TestStore_Postgres runs against a real database when CATALOG_TEST_DSN is set.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("CATALOG_TEST_DSN")
	if dsn == "" {
		t.Skip("CATALOG_TEST_DSN not set")
	}

	ctx := context.Background()
	db, err := Open(Config{DSN: dsn, MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	s := New(db)
	if err := s.CreateSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := db.NewTruncateTable().Model((*itemModel)(nil)).Exec(ctx); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	seed := []catalog.ContentItem{
		{Name: "Bluey", AgeRange: "3-5", StimulationScore: 2, Themes: []string{"Family", "Music"}},
		{Name: "Octonauts", AgeRange: "4-8", StimulationScore: 3, Themes: []string{"Adventure"}},
		{Name: "Cocomelon", AgeRange: "preschool", StimulationScore: 5, Themes: []string{"music"}},
	}
	var saved []catalog.ContentItem
	for _, item := range seed {
		out, err := s.Save(ctx, item)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		saved = append(saved, out)
	}

	compiler := query.NewCompiler()
	items, err := s.Find(ctx, compiler.Compile(filter.New(filter.WithThemes(filter.MatchAll, "MUSIC"))))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Bluey" || items[1].Name != "Cocomelon" {
		t.Errorf("unexpected theme result %+v", items)
	}

	items, err = s.Find(ctx, compiler.Compile(filter.New(filter.WithAgeRange(6, 8))))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Octonauts" {
		t.Errorf("unexpected age result %+v", items)
	}

	if err := s.Delete(ctx, saved[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.FindByID(ctx, saved[0].ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, saved[0].ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
