package repositorycache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-facet-catalog/cache"
	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/facet"
	"github.com/goliatone/go-facet-catalog/filter"
	"github.com/goliatone/go-facet-catalog/internal/cacheinfra"
	"github.com/goliatone/go-facet-catalog/metrics"
	"github.com/goliatone/go-facet-catalog/query"
	"github.com/goliatone/go-facet-catalog/store"
)

// Key namespaces. Every key starts with one of them followed by cache.KeySeparator.
const (
	nsItem   = "item"
	nsItems  = "items"
	nsFacets = "facets"
)

// CachedRepository serves catalog reads cache-aside and passes writes through to the
// store, invalidating the entries a write can affect.
type CachedRepository struct {
	store      store.Store
	categories store.CategorySource
	cache      cache.CacheService
	keys       cache.KeySerializer
	codec      cache.Codec
	compiler   *query.Compiler
	ttl        TTLPolicy
	local      *cacheinfra.LocalCache[catalog.Category]
	logger     zerolog.Logger
	metrics    *metrics.Metrics

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a CachedRepository.
type Option func(*CachedRepository)

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(s cache.KeySerializer) Option {
	return func(c *CachedRepository) { c.keys = s }
}

// WithCodec replaces the msgpack codec.
func WithCodec(codec cache.Codec) Option {
	return func(c *CachedRepository) { c.codec = codec }
}

// WithCompiler replaces the default query compiler.
func WithCompiler(compiler *query.Compiler) Option {
	return func(c *CachedRepository) { c.compiler = compiler }
}

// WithTTLPolicy replaces DefaultTTLPolicy.
func WithTTLPolicy(p TTLPolicy) Option {
	return func(c *CachedRepository) { c.ttl = p }
}

// WithCategoryCache adds an in-process cache in front of category lookups by slug.
func WithCategoryCache(local *cacheinfra.LocalCache[catalog.Category]) Option {
	return func(c *CachedRepository) { c.local = local }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *CachedRepository) { c.logger = logger }
}

// WithMetrics exports hit and miss counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *CachedRepository) { c.metrics = m }
}

// New creates a CachedRepository over st. categories may be nil when no category
// definitions exist.
func New(st store.Store, categories store.CategorySource, svc cache.CacheService, opts ...Option) *CachedRepository {
	c := &CachedRepository{
		store:      st,
		categories: categories,
		cache:      svc,
		keys:       cache.NewDefaultKeySerializer(),
		codec:      cache.NewMsgpackCodec(),
		compiler:   query.NewCompiler(),
		ttl:        DefaultTTLPolicy(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cached runs the cache-aside step for one operation and records the outcome.
func cached[T any](ctx context.Context, c *CachedRepository, op, key string, ttl time.Duration, fetch cache.FetchFn[T]) (T, error) {
	if refreshRequested(ctx) {
		_ = c.cache.Delete(ctx, key)
	}

	value, hit, err := cache.GetOrFetch(ctx, c.cache, c.codec, key, ttl, fetch)
	label := toSnake(op)
	if hit {
		c.hits.Add(1)
		c.metrics.CacheHit(label)
	} else {
		c.misses.Add(1)
		c.metrics.CacheMiss(label)
	}
	return value, err
}

// ListItems returns the items matching spec, filtered, sorted and paginated.
func (c *CachedRepository) ListItems(ctx context.Context, spec filter.Spec) ([]catalog.ContentItem, error) {
	ttl := c.ttl.List
	if spec.HasSearch() {
		ttl = c.ttl.SearchList
	}

	key := c.keys.SerializeKey(nsItems, "list", spec.CacheKey())
	return cached(ctx, c, "ListItems", key, ttl, func(ctx context.Context) ([]catalog.ContentItem, error) {
		items, err := c.store.Find(ctx, c.compiler.Compile(spec))
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []catalog.ContentItem{}
		}
		return items, nil
	})
}

// GetItem returns one item. Missing items return catalog.ErrNotFound and are not cached.
func (c *CachedRepository) GetItem(ctx context.Context, id int64) (catalog.ContentItem, error) {
	key := c.keys.SerializeKey(nsItem, id)
	return cached(ctx, c, "GetItem", key, c.ttl.Item, func(ctx context.Context) (catalog.ContentItem, error) {
		return c.store.FindByID(ctx, id)
	})
}

// Categories lists the stored category definitions.
func (c *CachedRepository) Categories(ctx context.Context) ([]catalog.Category, error) {
	if c.categories == nil {
		return []catalog.Category{}, nil
	}

	key := c.keys.SerializeKey(nsFacets, "categories")
	return cached(ctx, c, "Categories", key, c.ttl.Categories, func(ctx context.Context) ([]catalog.Category, error) {
		categories, err := c.categories.Categories(ctx)
		if err != nil {
			return nil, err
		}
		if categories == nil {
			categories = []catalog.Category{}
		}
		return categories, nil
	})
}

// Category returns the definition with the given slug.
func (c *CachedRepository) Category(ctx context.Context, slug string) (catalog.Category, error) {
	lookup := func(ctx context.Context) (catalog.Category, error) {
		categories, err := c.Categories(ctx)
		if err != nil {
			return catalog.Category{}, err
		}
		for _, cat := range categories {
			if cat.Slug == slug {
				return cat, nil
			}
		}
		return catalog.Category{}, catalog.ErrNotFound
	}

	if c.local == nil || refreshRequested(ctx) {
		return lookup(ctx)
	}
	return c.local.GetOrFetch(ctx, c.keys.SerializeKey("category", slug), lookup)
}

// CategoryItems lists the items of a stored category. The definition is translated
// into a filter; rules that cannot be translated are skipped.
func (c *CachedRepository) CategoryItems(ctx context.Context, slug string, limit, offset int) ([]catalog.ContentItem, error) {
	category, err := c.Category(ctx, slug)
	if err != nil {
		return nil, err
	}

	spec, dropped := filter.FromCategory(category)
	for _, rule := range dropped {
		c.logger.Debug().
			Str("category", slug).
			Str("field", rule.Field).
			Str("operator", rule.Operator).
			Msg("skipping unsupported category rule")
	}

	spec.Limit, spec.Offset = limit, offset
	return c.ListItems(ctx, spec)
}

// Themes lists every distinct theme in the catalog, alphabetically. The population is
// read from the store so one call counts as one lookup.
func (c *CachedRepository) Themes(ctx context.Context) ([]string, error) {
	key := c.keys.SerializeKey(nsFacets, "themes")
	return cached(ctx, c, "Themes", key, c.ttl.Themes, func(ctx context.Context) ([]string, error) {
		population, err := c.store.Find(ctx, c.compiler.Compile(filter.New()))
		if err != nil {
			return nil, err
		}
		return facet.Candidates(population, nil, filter.MatchAll), nil
	})
}

// ThemeCandidates computes the facet context for the themes selected in spec. The
// population is every item matching the other filters of spec, unpaginated.
func (c *CachedRepository) ThemeCandidates(ctx context.Context, spec filter.Spec) (facet.Context, error) {
	population, err := c.ListItems(ctx, spec.WithoutThemes().WithoutPage())
	if err != nil {
		return facet.Context{}, err
	}
	return facet.Recompute(population, spec.Themes, spec.ThemeMatchMode), nil
}

// SaveItem writes item through to the store and invalidates the entries it affects.
func (c *CachedRepository) SaveItem(ctx context.Context, item catalog.ContentItem) (catalog.ContentItem, error) {
	saved, err := c.store.Save(ctx, item)
	if err != nil {
		return catalog.ContentItem{}, err
	}
	c.invalidateAfterWrite(ctx, saved.ID)
	return saved, nil
}

// DeleteItem deletes the item and invalidates the entries it affects.
func (c *CachedRepository) DeleteItem(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidateAfterWrite(ctx, id)
	return nil
}

// invalidateAfterWrite clears the item, every list and the derived theme listing.
// Lists are flushed wholesale since any write can move an item in or out of a result.
func (c *CachedRepository) invalidateAfterWrite(ctx context.Context, id int64) {
	if err := errors.Join(
		c.Invalidate(ctx, ScopeItem, id),
		c.Invalidate(ctx, ScopeLists),
		c.cache.Delete(ctx, c.keys.SerializeKey(nsFacets, "themes")),
	); err != nil {
		c.logger.Warn().Err(err).Int64("id", id).Msg("cache invalidation after write failed")
	}
}

// Invalidate removes a family of cache entries. With ScopeItem and no ids every
// single-item entry is removed.
func (c *CachedRepository) Invalidate(ctx context.Context, scope Scope, ids ...int64) error {
	c.metrics.Invalidation(string(scope))

	switch scope {
	case ScopeItem:
		if len(ids) == 0 {
			return c.cache.DeleteByPrefix(ctx, nsItem+cache.KeySeparator)
		}
		var errs []error
		for _, id := range ids {
			errs = append(errs, c.cache.Delete(ctx, c.keys.SerializeKey(nsItem, id)))
		}
		return errors.Join(errs...)
	case ScopeLists:
		return c.cache.DeleteByPrefix(ctx, nsItems+cache.KeySeparator)
	case ScopeFacets:
		if c.local != nil {
			c.local.Flush()
		}
		return c.cache.DeleteByPrefix(ctx, nsFacets+cache.KeySeparator)
	case ScopeAll:
		if c.local != nil {
			c.local.Flush()
		}
		return c.cache.Flush(ctx)
	}
	return fmt.Errorf("unknown invalidation scope %q", scope)
}

// Stats returns the hit and miss counters.
func (c *CachedRepository) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
