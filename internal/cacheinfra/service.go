package cacheinfra

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-facet-catalog/metrics"
)

// Backend is a cache store that reports its failures.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Flush(ctx context.Context) error
}

// Service reads and writes through a primary backend and falls back to the in-process
// map whenever the primary fails. Failures are logged and counted, never returned.
// Invalidations go to both backends so entries written during an outage do not survive
// it.
type Service struct {
	primary Backend
	local   *MemoryBackend
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for fallbacks.
func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithServiceMetrics counts fallbacks.
func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service. A nil primary serves everything from local.
func NewService(primary Backend, local *MemoryBackend, opts ...ServiceOption) *Service {
	s := &Service{
		primary: primary,
		local:   local,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) fallback(op, key string, err error) {
	s.logger.Warn().Err(err).Str("op", op).Str("key", key).Msg("cache backend failed, using in-process cache")
	s.metrics.CacheFallback(op)
}

func (s *Service) Get(ctx context.Context, key string) ([]byte, bool) {
	if s.primary != nil {
		value, ok, err := s.primary.Get(ctx, key)
		if err == nil {
			return value, ok
		}
		s.fallback("get", key, err)
	}
	value, ok, _ := s.local.Get(ctx, key)
	return value, ok
}

func (s *Service) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.primary != nil {
		err := s.primary.Set(ctx, key, value, ttl)
		if err == nil {
			return nil
		}
		s.fallback("set", key, err)
	}
	return s.local.Set(ctx, key, value, ttl)
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if s.primary != nil {
		if err := s.primary.Delete(ctx, key); err != nil {
			s.fallback("delete", key, err)
		}
	}
	return s.local.Delete(ctx, key)
}

func (s *Service) DeleteByPrefix(ctx context.Context, prefix string) error {
	if s.primary != nil {
		if err := s.primary.DeleteByPrefix(ctx, prefix); err != nil {
			s.fallback("delete_prefix", prefix, err)
		}
	}
	return s.local.DeleteByPrefix(ctx, prefix)
}

func (s *Service) Flush(ctx context.Context) error {
	if s.primary != nil {
		if err := s.primary.Flush(ctx); err != nil {
			s.fallback("flush", "", err)
		}
	}
	return s.local.Flush(ctx)
}
