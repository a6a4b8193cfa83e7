package repositorycache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/filter"
	"github.com/goliatone/go-facet-catalog/internal/cacheinfra"
	"github.com/goliatone/go-facet-catalog/metrics"
	"github.com/goliatone/go-facet-catalog/pkg/testsupport"
	"github.com/goliatone/go-facet-catalog/query"
	"github.com/goliatone/go-facet-catalog/store/memstore"
)

// countingStore wraps the sample catalog and counts calls that reach it.
type countingStore struct {
	*memstore.Store
	finds          int
	gets           int
	categoryLoads  int
	err            error
	categoriesFail bool
}

func (s *countingStore) Find(ctx context.Context, q query.Query) ([]catalog.ContentItem, error) {
	s.finds++
	if s.err != nil {
		return nil, s.err
	}
	return s.Store.Find(ctx, q)
}

func (s *countingStore) FindByID(ctx context.Context, id int64) (catalog.ContentItem, error) {
	s.gets++
	if s.err != nil {
		return catalog.ContentItem{}, s.err
	}
	return s.Store.FindByID(ctx, id)
}

func (s *countingStore) Categories(ctx context.Context) ([]catalog.Category, error) {
	s.categoryLoads++
	if s.categoriesFail {
		return nil, &catalog.StoreError{Op: "categories", Err: errors.New("connection refused")}
	}
	return s.Store.Categories(ctx)
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// failingBackend simulates an unreachable remote cache.
type failingBackend struct{ calls int }

var errBackendDown = errors.New("dial tcp: connection refused")

func (b *failingBackend) Get(context.Context, string) ([]byte, bool, error) {
	b.calls++
	return nil, false, errBackendDown
}

func (b *failingBackend) Set(context.Context, string, []byte, time.Duration) error {
	b.calls++
	return errBackendDown
}

func (b *failingBackend) Delete(context.Context, string) error {
	b.calls++
	return errBackendDown
}

func (b *failingBackend) DeleteByPrefix(context.Context, string) error {
	b.calls++
	return errBackendDown
}

func (b *failingBackend) Flush(context.Context) error {
	b.calls++
	return errBackendDown
}

type fixture struct {
	repo  *CachedRepository
	store *countingStore
	clock *testClock
	svc   *cacheinfra.Service
}

func newFixture(t *testing.T, primary cacheinfra.Backend, opts ...Option) fixture {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	local := cacheinfra.NewMemoryBackend(cacheinfra.DefaultConfig().Memory, cacheinfra.WithMemoryClock(clock.Now))
	svc := cacheinfra.NewService(primary, local)
	st := &countingStore{Store: testsupport.NewStore(t)}

	return fixture{
		repo:  New(st, st, svc, opts...),
		store: st,
		clock: clock,
		svc:   svc,
	}
}

func names(items []catalog.ContentItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func TestListItems_MissThenHit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	spec := filter.New(filter.WithThemes(filter.MatchAll, "Music"))

	first, err := f.repo.ListItems(ctx, spec)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := f.repo.ListItems(ctx, spec)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	want := []string{"Bluey", "Cocomelon", "Puffin Rock", "Sesame Street"}
	if got := names(first); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs:\n%+v\n%+v", first, second)
	}
	if f.store.finds != 1 {
		t.Errorf("expected 1 store call, got %d", f.store.finds)
	}
	if stats := f.repo.Stats(); stats != (Stats{Hits: 1, Misses: 1}) {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestListItems_EquivalentSpecsShareEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	a := filter.New(filter.WithThemes(filter.MatchAll, "Music", "Adventure"))
	b := filter.New(filter.WithThemes(filter.MatchAll, "adventure", "MUSIC", "music"))

	if _, err := f.repo.ListItems(ctx, a); err != nil {
		t.Fatalf("list: %v", err)
	}
	items, err := f.repo.ListItems(ctx, b)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if f.store.finds != 1 {
		t.Errorf("expected equivalent specs to share a cache entry, store called %d times", f.store.finds)
	}
	if got, want := names(items), []string{"Bluey", "Puffin Rock"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := f.repo.ListItems(ctx, filter.New(filter.WithThemes(filter.MatchAny, "Music", "Adventure"))); err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.store.finds != 2 {
		t.Errorf("expected a different match mode to miss, store called %d times", f.store.finds)
	}
}

func TestListItems_TTL(t *testing.T) {
	tests := []struct {
		name   string
		spec   filter.Spec
		fresh  time.Duration
		expire time.Duration
	}{
		{"plain list", filter.New(filter.WithAgeRange(3, 5)), 59 * time.Minute, 2 * time.Minute},
		{"search list", filter.New(filter.WithSearch("blu")), 29 * time.Minute, 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, nil)

			if _, err := f.repo.ListItems(ctx, tt.spec); err != nil {
				t.Fatalf("list: %v", err)
			}
			f.clock.Advance(tt.fresh)
			if _, err := f.repo.ListItems(ctx, tt.spec); err != nil {
				t.Fatalf("list: %v", err)
			}
			if f.store.finds != 1 {
				t.Fatalf("expected entry to be fresh after %v, store called %d times", tt.fresh, f.store.finds)
			}

			f.clock.Advance(tt.expire)
			if _, err := f.repo.ListItems(ctx, tt.spec); err != nil {
				t.Fatalf("list: %v", err)
			}
			if f.store.finds != 2 {
				t.Errorf("expected entry to expire, store called %d times", f.store.finds)
			}
		})
	}
}

func TestListItems_CustomTTLPolicy(t *testing.T) {
	ctx := context.Background()
	policy := DefaultTTLPolicy()
	policy.List = time.Minute
	f := newFixture(t, nil, WithTTLPolicy(policy))

	spec := filter.New()
	if _, err := f.repo.ListItems(ctx, spec); err != nil {
		t.Fatalf("list: %v", err)
	}
	f.clock.Advance(90 * time.Second)
	if _, err := f.repo.ListItems(ctx, spec); err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.store.finds != 2 {
		t.Errorf("expected custom TTL to apply, store called %d times", f.store.finds)
	}
}

func TestListItems_StoreErrorNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	spec := filter.New()

	f.store.err = &catalog.StoreError{Op: "find", Err: errors.New("connection refused")}
	if _, err := f.repo.ListItems(ctx, spec); !errors.Is(err, catalog.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	f.store.err = nil
	items, err := f.repo.ListItems(ctx, spec)
	if err != nil {
		t.Fatalf("list after recovery: %v", err)
	}
	if len(items) != 8 || f.store.finds != 2 {
		t.Errorf("expected a fresh load of 8 items, got %d items after %d calls", len(items), f.store.finds)
	}
}

func TestListItems_CacheOutage(t *testing.T) {
	ctx := context.Background()
	primary := &failingBackend{}
	f := newFixture(t, primary)
	spec := filter.New(filter.WithStimulationRange(1, 2))

	first, err := f.repo.ListItems(ctx, spec)
	if err != nil {
		t.Fatalf("list during outage: %v", err)
	}
	second, err := f.repo.ListItems(ctx, spec)
	if err != nil {
		t.Fatalf("list during outage: %v", err)
	}

	if !reflect.DeepEqual(first, second) || len(first) != 4 {
		t.Errorf("unexpected results %v / %v", names(first), names(second))
	}
	if f.store.finds != 1 {
		t.Errorf("expected in-process fallback to serve the second read, store called %d times", f.store.finds)
	}
	if primary.calls == 0 {
		t.Error("expected the primary backend to be tried")
	}
}

func TestListItems_Refresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	spec := filter.New()

	if _, err := f.repo.ListItems(ctx, spec); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := f.repo.ListItems(WithRefresh(ctx), spec); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := f.repo.ListItems(ctx, spec); err != nil {
		t.Fatalf("list: %v", err)
	}

	if f.store.finds != 2 {
		t.Errorf("expected refresh to reload once, store called %d times", f.store.finds)
	}
}

func TestGetItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	item, err := f.repo.GetItem(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	cachedItem, err := f.repo.GetItem(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.Name != "Bluey" || !reflect.DeepEqual(item, cachedItem) {
		t.Errorf("unexpected items %+v / %+v", item, cachedItem)
	}
	if cachedItem.ReleaseYear == nil || *cachedItem.ReleaseYear != 2018 {
		t.Errorf("release year lost in cache: %v", cachedItem.ReleaseYear)
	}
	if f.store.gets != 1 {
		t.Errorf("expected 1 store call, got %d", f.store.gets)
	}
}

func TestGetItem_NotFoundNotCached(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	for i := 0; i < 2; i++ {
		if _, err := f.repo.GetItem(ctx, 99); !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if f.store.gets != 2 {
		t.Errorf("expected not-found to reach the store each time, got %d calls", f.store.gets)
	}
}

func TestSaveItem_Invalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.repo.GetItem(ctx, 1); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := f.repo.ListItems(ctx, filter.New()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := f.repo.Themes(ctx); err != nil {
		t.Fatalf("themes: %v", err)
	}

	item, _ := f.store.Store.FindByID(ctx, 1)
	item.Themes = append(item.Themes, "Bedtime")
	if _, err := f.repo.SaveItem(ctx, item); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := f.repo.GetItem(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Themes) != 4 {
		t.Errorf("expected updated item, got themes %v", got.Themes)
	}

	themes, err := f.repo.Themes(ctx)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	if themes[1] != "Bedtime" {
		t.Errorf("expected Bedtime in the theme listing, got %v", themes)
	}
}

func TestSaveItem_CreateAndListed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	spec := filter.New(filter.WithThemes(filter.MatchAll, "Science"))

	before, err := f.repo.ListItems(ctx, spec)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	created, err := f.repo.SaveItem(ctx, catalog.ContentItem{
		Name:             "StoryBots",
		AgeRange:         "3-7",
		StimulationScore: 4,
		Themes:           []string{"Science", "Music"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if created.ID != 9 {
		t.Errorf("expected id 9, got %d", created.ID)
	}

	after, err := f.repo.ListItems(ctx, spec)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Errorf("expected new item in list, got %v", names(after))
	}
}

func TestDeleteItem_Invalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.repo.GetItem(ctx, 3); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := f.repo.ListItems(ctx, filter.New()); err != nil {
		t.Fatalf("list: %v", err)
	}

	if err := f.repo.DeleteItem(ctx, 3); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.repo.GetItem(ctx, 3); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	items, err := f.repo.ListItems(ctx, filter.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, item := range items {
		if item.ID == 3 {
			t.Error("deleted item still listed")
		}
	}

	if err := f.repo.DeleteItem(ctx, 3); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestInvalidate_Scopes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	warm := func() {
		t.Helper()
		if _, err := f.repo.GetItem(ctx, 2); err != nil {
			t.Fatalf("get: %v", err)
		}
		if _, err := f.repo.ListItems(ctx, filter.New()); err != nil {
			t.Fatalf("list: %v", err)
		}
		if _, err := f.repo.Categories(ctx); err != nil {
			t.Fatalf("categories: %v", err)
		}
	}
	counts := func() [3]int {
		return [3]int{f.store.gets, f.store.finds, f.store.categoryLoads}
	}

	warm()
	if got := counts(); got != [3]int{1, 1, 1} {
		t.Fatalf("unexpected initial loads %v", got)
	}

	steps := []struct {
		scope Scope
		ids   []int64
		want  [3]int
	}{
		{ScopeLists, nil, [3]int{1, 2, 1}},
		{ScopeItem, []int64{2}, [3]int{2, 2, 1}},
		{ScopeItem, nil, [3]int{3, 2, 1}},
		{ScopeFacets, nil, [3]int{3, 2, 2}},
		{ScopeAll, nil, [3]int{4, 3, 3}},
	}
	for _, step := range steps {
		if err := f.repo.Invalidate(ctx, step.scope, step.ids...); err != nil {
			t.Fatalf("invalidate %s: %v", step.scope, err)
		}
		warm()
		if got := counts(); got != step.want {
			t.Errorf("after %s%v: loads %v, want %v", step.scope, step.ids, got, step.want)
		}
	}

	if err := f.repo.Invalidate(ctx, Scope("everything")); err == nil {
		t.Error("expected error for unknown scope")
	}
}

func TestInvalidate_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	f := newFixture(t, nil, WithMetrics(m))

	if err := f.repo.Invalidate(context.Background(), ScopeLists); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if got := testutil.ToFloat64(m.CacheInvalidations.WithLabelValues("item-lists")); got != 1 {
		t.Errorf("invalidations = %v, want 1", got)
	}
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	for i := 0; i < 2; i++ {
		categories, err := f.repo.Categories(ctx)
		if err != nil {
			t.Fatalf("categories: %v", err)
		}
		if len(categories) != 2 || categories[0].Slug != "calm" {
			t.Errorf("unexpected categories %+v", categories)
		}
	}
	if f.store.categoryLoads != 1 {
		t.Errorf("expected 1 category load, got %d", f.store.categoryLoads)
	}
}

func TestCategories_NoSource(t *testing.T) {
	svc := cacheinfra.NewService(nil, cacheinfra.NewMemoryBackend(cacheinfra.DefaultConfig().Memory))
	repo := New(testsupport.NewStore(t), nil, svc)

	categories, err := repo.Categories(context.Background())
	if err != nil || len(categories) != 0 {
		t.Errorf("expected no categories, got %v %v", categories, err)
	}
}

func TestCategoryItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	tests := []struct {
		slug          string
		limit, offset int
		want          []string
	}{
		{"musical-adventures", 0, 0, []string{"Bluey", "Puffin Rock"}},
		{"calm", 0, 0, []string{"Ada Twist, Scientist", "Bluey", "Puffin Rock", "Trash Truck"}},
		{"calm", 2, 1, []string{"Bluey", "Puffin Rock"}},
	}

	// Run twice so the second pass decodes the category definitions from the cache.
	for pass := 0; pass < 2; pass++ {
		for _, tt := range tests {
			items, err := f.repo.CategoryItems(ctx, tt.slug, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("pass %d %s: %v", pass, tt.slug, err)
			}
			if got := names(items); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("pass %d %s(%d,%d): got %v, want %v", pass, tt.slug, tt.limit, tt.offset, got, tt.want)
			}
		}
	}
	if f.store.categoryLoads != 1 {
		t.Errorf("expected 1 category load, got %d", f.store.categoryLoads)
	}

	if _, err := f.repo.CategoryItems(ctx, "loud", 0, 0); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCategory_LocalCache(t *testing.T) {
	ctx := context.Background()
	local, err := cacheinfra.NewLocalCache[catalog.Category](cacheinfra.DefaultConfig().Local)
	if err != nil {
		t.Fatalf("local cache: %v", err)
	}
	f := newFixture(t, nil, WithCategoryCache(local))

	if _, err := f.repo.Category(ctx, "calm"); err != nil {
		t.Fatalf("category: %v", err)
	}
	if err := f.svc.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	category, err := f.repo.Category(ctx, "calm")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if category.Name != "Calm shows" || f.store.categoryLoads != 1 {
		t.Errorf("expected in-process hit, got %+v after %d loads", category, f.store.categoryLoads)
	}

	if err := f.repo.Invalidate(ctx, ScopeFacets); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := f.repo.Category(ctx, "calm"); err != nil {
		t.Fatalf("category: %v", err)
	}
	if f.store.categoryLoads != 2 {
		t.Errorf("expected reload after facet invalidation, got %d loads", f.store.categoryLoads)
	}
}

func TestCategory_StoreError(t *testing.T) {
	f := newFixture(t, nil)
	f.store.categoriesFail = true

	if _, err := f.repo.Category(context.Background(), "calm"); !errors.Is(err, catalog.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestThemes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	want := []string{"Adventure", "Family", "Fantasy", "Friendship", "Learning", "Music", "Nature", "Science"}
	for i := 0; i < 2; i++ {
		themes, err := f.repo.Themes(ctx)
		if err != nil {
			t.Fatalf("themes: %v", err)
		}
		if !reflect.DeepEqual(themes, want) {
			t.Errorf("got %v, want %v", themes, want)
		}
	}
	if f.store.finds != 1 {
		t.Errorf("expected 1 store call, got %d", f.store.finds)
	}
	if stats := f.repo.Stats(); stats != (Stats{Hits: 1, Misses: 1}) {
		t.Errorf("expected one lookup per call, got %+v", stats)
	}
}

func TestThemes_Metrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	f := newFixture(t, nil, WithMetrics(m))

	if _, err := f.repo.Themes(ctx); err != nil {
		t.Fatalf("themes: %v", err)
	}

	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("themes", "miss")); got != 1 {
		t.Errorf("themes misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("list_items", "miss")); got != 0 {
		t.Errorf("list_items misses = %v, want 0", got)
	}
}

func TestThemeCandidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	tests := []struct {
		name string
		spec filter.Spec
		want []string
	}{
		{
			name: "single theme by co-occurrence",
			spec: filter.New(filter.WithThemes(filter.MatchAll, "Music"), filter.WithPage(1, 0)),
			want: []string{"Adventure", "Family", "Fantasy", "Friendship", "Learning", "Nature"},
		},
		{
			name: "two themes",
			spec: filter.New(filter.WithThemes(filter.MatchAll, "Music", "Adventure")),
			want: []string{"Family", "Nature"},
		},
		{
			name: "other filters narrow the population",
			spec: filter.New(filter.WithThemes(filter.MatchAll, "Music"), filter.WithStimulationRange(1, 2)),
			want: []string{"Adventure", "Family", "Nature"},
		},
		{
			name: "any mode excludes selection",
			spec: filter.New(filter.WithThemes(filter.MatchAny, "Music", "Science")),
			want: []string{"Adventure", "Family", "Fantasy", "Friendship", "Learning", "Nature"},
		},
		{
			name: "no selection",
			spec: filter.New(filter.WithAgeGroup("Toddler")),
			want: []string{"Adventure", "Family", "Fantasy", "Friendship", "Music", "Nature"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := f.repo.ThemeCandidates(ctx, tt.spec)
			if err != nil {
				t.Fatalf("candidates: %v", err)
			}
			if !reflect.DeepEqual(fc.Candidates, tt.want) {
				t.Errorf("got %v, want %v", fc.Candidates, tt.want)
			}
			if fc.Mode != tt.spec.ThemeMatchMode {
				t.Errorf("mode = %q, want %q", fc.Mode, tt.spec.ThemeMatchMode)
			}
		})
	}
}

func TestCachedRepository_Metrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	f := newFixture(t, nil, WithMetrics(m))

	for i := 0; i < 3; i++ {
		if _, err := f.repo.GetItem(ctx, 4); err != nil {
			t.Fatalf("get: %v", err)
		}
	}

	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("get_item", "hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("get_item", "miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
	if ratio := f.repo.Stats().HitRatio(); ratio < 0.66 || ratio > 0.67 {
		t.Errorf("hit ratio = %v", ratio)
	}
}

func TestParseScope(t *testing.T) {
	for _, s := range []string{"single-item", "item-lists", "facet-config", "all"} {
		if scope, err := ParseScope(s); err != nil || string(scope) != s {
			t.Errorf("ParseScope(%q) = %q, %v", s, scope, err)
		}
	}
	if _, err := ParseScope("items"); err == nil {
		t.Error("expected error for unknown scope")
	}
}

func TestStats_HitRatioEmpty(t *testing.T) {
	if r := (Stats{}).HitRatio(); r != 0 {
		t.Errorf("expected 0, got %v", r)
	}
}

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"ListItems":       "list_items",
		"GetItem":         "get_item",
		"ThemeCandidates": "theme_candidates",
		"HTTPServer":      "http_server",
		"cache-get":       "cache_get",
		"Item2Name":       "item2_name",
	}
	for in, want := range tests {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
