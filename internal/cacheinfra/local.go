package cacheinfra

import (
	"context"
	"strings"

	"github.com/viccon/sturdyc"
)

// LocalCache is an in-process read-through cache backed by sturdyc. Concurrent misses
// for the same key share one fetch.
type LocalCache[T any] struct {
	client *sturdyc.Client[T]
}

// NewLocalCache validates cfg and creates the sturdyc client.
func NewLocalCache[T any](cfg LocalConfig) (*LocalCache[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[T](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.sturdycOptions()...,
	)
	return &LocalCache[T]{client: client}, nil
}

// GetOrFetch returns the cached value for key or calls fetch and stores its result.
// Fetch errors are returned and not cached.
func (c *LocalCache[T]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	return c.client.GetOrFetch(ctx, key, fetch)
}

// Delete removes key.
func (c *LocalCache[T]) Delete(key string) {
	c.client.Delete(key)
}

// DeleteByPrefix removes every key starting with prefix.
func (c *LocalCache[T]) DeleteByPrefix(prefix string) {
	for _, key := range c.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			c.client.Delete(key)
		}
	}
}

// Flush removes every key.
func (c *LocalCache[T]) Flush() {
	c.DeleteByPrefix("")
}

// Size returns the number of cached entries.
func (c *LocalCache[T]) Size() int {
	return c.client.Size()
}
