package cache

import (
	"context"
	"time"
)

// KeySerializer builds a cache key from a namespace, a method name and arbitrary args.
// Keys must be stable across calls and processes.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService stores opaque values with a per-entry TTL. Get reports absent and expired
// entries as not found; backend failures are never surfaced through Get.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Flush(ctx context.Context) error
}

// GetOrFetch is the typed cache-aside step. On a hit the stored value is decoded and
// returned as is. On a miss, or when the stored bytes cannot be decoded, fetch is called
// and its result stored under key with ttl. Fetch errors are returned and never cached.
func GetOrFetch[T any](ctx context.Context, svc CacheService, codec Codec, key string, ttl time.Duration, fetch FetchFn[T]) (T, bool, error) {
	if raw, ok := svc.Get(ctx, key); ok {
		var cached T
		if err := codec.Unmarshal(raw, &cached); err == nil {
			return cached, true, nil
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}

	if raw, err := codec.Marshal(value); err == nil {
		_ = svc.Set(ctx, key, raw, ttl)
	}
	return value, false, nil
}
