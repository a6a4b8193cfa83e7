// Package cache provides the cache-aside building blocks used by the catalog repository.
//
// # Overview
//
// The package exports three interfaces and their default implementations:
//
//   - CacheService: stores opaque byte values with a per-entry TTL
//   - KeySerializer: builds stable keys from a namespace, method and arguments
//   - Codec: converts values to and from bytes (msgpack by default)
//
// GetOrFetch ties them together for a single typed lookup.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(ctx, cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("item", int64(42))
//
//	item, hit, err := cache.GetOrFetch(ctx, svc, cache.NewMsgpackCodec(), key, 24*time.Hour,
//		func(ctx context.Context) (catalog.ContentItem, error) {
//			return store.FindByID(ctx, 42)
//		})
//
// # Backends
//
// NewCacheService returns a Redis-backed service when Config.Redis.Addr is set and an
// in-process map otherwise. With Redis configured, every failed or timed out remote call
// is logged and served by the in-process map instead; a circuit breaker stops calling
// Redis after repeated failures. Get never returns an error: a failing backend is a miss.
//
// The in-process map drops expired entries when they are read and sweeps expired
// entries when it grows past Config.Memory.SweepThreshold or when the janitor runs.
//
// # Keys
//
// Keys have the form method::arg1::arg2. Callers use the first segment as a namespace
// (item, items, facets) so that DeleteByPrefix can invalidate a whole family. Argument
// segments longer than DefaultMaxSegmentLength are replaced by their xxhash digest; the
// namespace is always kept verbatim.
//
// # See Also
//
// The repositorycache package implements the catalog operations on top of this package.
package cache
