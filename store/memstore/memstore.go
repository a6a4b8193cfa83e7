// Package memstore is an in-memory store used by tests and by the server when no
// database is configured.
package memstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/query"
)

// Fixture is the JSON seed format.
type Fixture struct {
	Items      []catalog.ContentItem `json:"items"`
	Categories []catalog.Category    `json:"categories"`
}

// DecodeFixture reads a Fixture from r. Items with ordinal labels outside
// catalog.Levels are rejected.
func DecodeFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	for _, item := range f.Items {
		if err := item.CheckLevels(); err != nil {
			return Fixture{}, fmt.Errorf("decode fixture: item %d: %w", item.ID, err)
		}
	}
	return f, nil
}

// Store keeps items in a map and evaluates queries with query.Query.Apply.
type Store struct {
	mu         sync.RWMutex
	items      map[int64]catalog.ContentItem
	categories []catalog.Category
	nextID     int64
}

// New creates a store seeded with items and categories. Items without an ID get one.
func New(items []catalog.ContentItem, categories []catalog.Category) *Store {
	s := &Store{
		items:      make(map[int64]catalog.ContentItem, len(items)),
		categories: append([]catalog.Category(nil), categories...),
	}
	for _, item := range items {
		if item.ID > s.nextID {
			s.nextID = item.ID
		}
	}
	for _, item := range items {
		if item.ID == 0 {
			s.nextID++
			item.ID = s.nextID
		}
		s.items[item.ID] = item
	}
	return s
}

// FromFixture creates a store from a decoded fixture.
func FromFixture(f Fixture) *Store {
	return New(f.Items, f.Categories)
}

// Open reads the fixture file at path.
func Open(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()

	f, err := DecodeFixture(file)
	if err != nil {
		return nil, err
	}
	return FromFixture(f), nil
}

// snapshot returns the items ordered by id.
func (s *Store) snapshot() []catalog.ContentItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.ContentItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Find(_ context.Context, q query.Query) ([]catalog.ContentItem, error) {
	return q.Apply(s.snapshot()), nil
}

func (s *Store) FindByID(_ context.Context, id int64) (catalog.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return catalog.ContentItem{}, catalog.ErrNotFound
	}
	return item, nil
}

func (s *Store) Save(_ context.Context, item catalog.ContentItem) (catalog.ContentItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == 0 {
		s.nextID++
		item.ID = s.nextID
	} else if _, ok := s.items[item.ID]; !ok {
		return catalog.ContentItem{}, catalog.ErrNotFound
	}
	item.Themes = append([]string(nil), item.Themes...)
	s.items[item.ID] = item
	return item, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Categories(context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]catalog.Category(nil), s.categories...), nil
}

// SetCategories replaces the category definitions.
func (s *Store) SetCategories(categories []catalog.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append([]catalog.Category(nil), categories...)
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
