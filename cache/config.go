package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-facet-catalog/internal/cacheinfra"
	"github.com/goliatone/go-facet-catalog/metrics"
)

// Config groups the cache backend settings.
type Config = cacheinfra.Config

// RedisConfig configures the remote backend. An empty Addr disables it.
type RedisConfig = cacheinfra.RedisConfig

// MemoryConfig configures the in-process backend.
type MemoryConfig = cacheinfra.MemoryConfig

// LocalConfig configures the in-process read-through cache for category definitions.
type LocalConfig = cacheinfra.LocalConfig

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return cacheinfra.DefaultConfig()
}

// Option configures NewCacheService.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// WithLogger sets the logger used for backend failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *serviceOptions) { o.logger = logger }
}

// WithMetrics records fallbacks and sweeps.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

// WithClock replaces time.Now for the in-process backend.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

// NewCacheService builds the default CacheService: Redis with the in-process map as
// fallback when cfg.Redis.Addr is set, the in-process map alone otherwise. The memory
// janitor and the Redis client live until ctx is cancelled.
func NewCacheService(ctx context.Context, cfg Config, opts ...Option) (CacheService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := serviceOptions{logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	memory := cacheinfra.NewMemoryBackend(cfg.Memory,
		cacheinfra.WithMemoryClock(o.now),
		cacheinfra.WithMemoryMetrics(o.metrics),
	)
	if cfg.Memory.JanitorInterval > 0 {
		go memory.StartJanitor(ctx, cfg.Memory.JanitorInterval)
	}

	serviceOpts := []cacheinfra.ServiceOption{
		cacheinfra.WithServiceLogger(o.logger),
		cacheinfra.WithServiceMetrics(o.metrics),
	}

	if cfg.Redis.Addr == "" {
		return cacheinfra.NewService(nil, memory, serviceOpts...), nil
	}

	client := cacheinfra.NewRedisClient(cfg.Redis)
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	remote := cacheinfra.NewRedisBackend(client, cfg.Redis,
		cacheinfra.WithRedisLogger(o.logger),
		cacheinfra.WithRedisMetrics(o.metrics),
	)
	if err := remote.Ping(ctx); err != nil {
		o.logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, serving from memory until it recovers")
	}

	return cacheinfra.NewService(remote, memory, serviceOpts...), nil
}

// NewRedisCacheService wires an existing Redis client, mainly for tests.
func NewRedisCacheService(client redis.UniversalClient, cfg Config, opts ...Option) (CacheService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := serviceOptions{logger: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	memory := cacheinfra.NewMemoryBackend(cfg.Memory, cacheinfra.WithMemoryClock(o.now))
	remote := cacheinfra.NewRedisBackend(client, cfg.Redis, cacheinfra.WithRedisLogger(o.logger))
	return cacheinfra.NewService(remote, memory,
		cacheinfra.WithServiceLogger(o.logger),
		cacheinfra.WithServiceMetrics(o.metrics),
	), nil
}
