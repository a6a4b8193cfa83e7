// Package store defines the collaborators the cached repository reads from: the
// relational item store and the facet configuration source.
package store

import (
	"context"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/query"
)

// Store executes compiled queries against the source of truth.
//
// Implementations return catalog.ErrNotFound for missing ids and a *catalog.StoreError
// for every other failure.
type Store interface {
	Find(ctx context.Context, q query.Query) ([]catalog.ContentItem, error)
	FindByID(ctx context.Context, id int64) (catalog.ContentItem, error)

	// Save inserts the item when its ID is zero and updates it otherwise. It returns the
	// stored item with its assigned ID.
	Save(ctx context.Context, item catalog.ContentItem) (catalog.ContentItem, error)
	Delete(ctx context.Context, id int64) error
}

// CategorySource lists the stored category definitions.
type CategorySource interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
}

// Catalog is a Store that also serves category definitions.
type Catalog interface {
	Store
	CategorySource
}
