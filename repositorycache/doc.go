// Package repositorycache provides the cached read path of the catalog.
//
// # Overview
//
// CachedRepository sits between request handlers and a store.Store. Reads go through
// the cache-aside step in cache.GetOrFetch: look up the serialized key, decode on a
// hit, otherwise load from the store and write the result back with the TTL of the
// operation. Writes go straight to the store and then invalidate the entries they can
// affect.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(ctx, cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	repo := repositorycache.New(st, st, svc)
//
//	spec := filter.New(filter.WithThemes(filter.MatchAll, "Music"))
//	items, err := repo.ListItems(ctx, spec)
//	facets, err := repo.ThemeCandidates(ctx, spec)
//
// # Keys
//
// Keys are built by a cache.KeySerializer from a namespace and the operation input:
//
//	item::<id>                  GetItem
//	items::list::<spec key>     ListItems, CategoryItems
//	facets::categories          Categories
//	facets::themes              Themes
//
// The spec key is filter.Spec.CacheKey, so equivalent filters (same themes in another
// order or casing) share one entry.
//
// # Freshness
//
// TTLPolicy assigns a window per operation. Search listings use their own, shorter
// window. WithRefresh marks a context so reads skip the lookup and overwrite the entry.
//
// # Invalidation
//
// Invalidate removes one family of entries (see Scope). SaveItem and DeleteItem clear
// the item, every listing and the theme listing. Category definitions only change
// through ScopeFacets or ScopeAll.
//
// # Error Handling
//
// Store errors are returned unchanged and never cached, so a missing item is looked up
// again on the next call. Cache backend failures never reach the caller: the
// cache.CacheService falls back to its in-process map.
package repositorycache
