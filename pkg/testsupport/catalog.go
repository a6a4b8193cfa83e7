package testsupport

import (
	"bytes"
	_ "embed"
	"testing"

	"github.com/goliatone/go-facet-catalog/store/memstore"
)

//go:embed testdata/catalog.json
var catalogJSON []byte

// CatalogFixture decodes the shared sample catalog: eight shows and two categories.
func CatalogFixture(t testing.TB) memstore.Fixture {
	t.Helper()

	f, err := memstore.DecodeFixture(bytes.NewReader(catalogJSON))
	if err != nil {
		t.Fatalf("failed to decode catalog fixture: %v", err)
	}
	return f
}

// NewStore returns a fresh in-memory store seeded with the sample catalog.
func NewStore(t testing.TB) *memstore.Store {
	t.Helper()
	return memstore.FromFixture(CatalogFixture(t))
}

// CatalogJSON returns a copy of the raw sample catalog.
func CatalogJSON() []byte {
	return append([]byte(nil), catalogJSON...)
}
