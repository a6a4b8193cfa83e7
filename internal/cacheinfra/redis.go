package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/goliatone/go-facet-catalog/metrics"
)

const (
	breakerName  = "redis-cache"
	scanPageSize = 500
)

// NewRedisClient builds a client from cfg. Dial, read and write use cfg.Timeout.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
}

// RedisBackend stores entries in Redis under a key prefix. Every call runs with a
// timeout behind a circuit breaker; once the breaker opens calls fail immediately
// until BreakerTimeout has passed.
type RedisBackend struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithRedisLogger sets the logger for breaker transitions.
func WithRedisLogger(logger zerolog.Logger) RedisOption {
	return func(r *RedisBackend) { r.logger = logger }
}

// WithRedisMetrics exports the breaker state.
func WithRedisMetrics(m *metrics.Metrics) RedisOption {
	return func(r *RedisBackend) { r.metrics = m }
}

// NewRedisBackend wraps client.
func NewRedisBackend(client redis.UniversalClient, cfg RedisConfig, opts ...RedisOption) *RedisBackend {
	r := &RedisBackend{
		client:  client,
		prefix:  cfg.Prefix,
		timeout: cfg.Timeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.timeout <= 0 {
		r.timeout = DefaultConfig().Redis.Timeout
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = DefaultConfig().Redis.BreakerFailures
	}

	r.metrics.SetBreakerState(breakerName, 0)
	r.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cache circuit breaker state change")
			r.metrics.SetBreakerState(name, stateValue(to))
		},
	})
	return r
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

func (r *RedisBackend) execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	return r.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return fn(ctx)
	})
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		data, err := r.client.Get(ctx, r.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return nil, false, err
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores value under key. A ttl of zero or less never expires.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	_, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		return nil, r.client.Set(ctx, r.prefix+key, value, ttl).Err()
	})
	return err
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	_, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		return nil, r.client.Del(ctx, r.prefix+key).Err()
	})
	return err
}

// DeleteByPrefix scans for keys under prefix and deletes them page by page.
func (r *RedisBackend) DeleteByPrefix(ctx context.Context, prefix string) error {
	_, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		iter := r.client.Scan(ctx, 0, escapeGlob(r.prefix+prefix)+"*", scanPageSize).Iterator()
		batch := make([]string, 0, scanPageSize)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanPageSize {
				if err := r.client.Del(ctx, batch...).Err(); err != nil {
					return nil, err
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if len(batch) > 0 {
			return nil, r.client.Del(ctx, batch...).Err()
		}
		return nil, nil
	})
	return err
}

// Flush deletes every key under the backend prefix. Other keys in the database are
// left alone.
func (r *RedisBackend) Flush(ctx context.Context) error {
	return r.DeleteByPrefix(ctx, "")
}

// Ping checks connectivity.
func (r *RedisBackend) Ping(ctx context.Context) error {
	_, err := r.execute(ctx, func(ctx context.Context) (any, error) {
		return nil, r.client.Ping(ctx).Err()
	})
	return err
}

// State returns the breaker state.
func (r *RedisBackend) State() gobreaker.State {
	return r.breaker.State()
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
