// Package di wires the catalog service from a config.Config.
package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-facet-catalog/cache"
	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/config"
	"github.com/goliatone/go-facet-catalog/internal/cacheinfra"
	"github.com/goliatone/go-facet-catalog/internal/httpapi"
	"github.com/goliatone/go-facet-catalog/internal/logging"
	"github.com/goliatone/go-facet-catalog/metrics"
	"github.com/goliatone/go-facet-catalog/query"
	"github.com/goliatone/go-facet-catalog/repositorycache"
	"github.com/goliatone/go-facet-catalog/store"
	"github.com/goliatone/go-facet-catalog/store/bunstore"
	"github.com/goliatone/go-facet-catalog/store/memstore"
)

// Container holds the singletons of one service instance.
type Container struct {
	config   *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	store         store.Catalog
	db            *bun.DB
	repository    *repositorycache.CachedRepository
	handler       *httpapi.Handler
}

// Option configures NewContainer.
type Option func(*options)

type options struct {
	logger *zerolog.Logger
	store  store.Catalog
	now    func() time.Time
}

// WithLogger replaces the logger built from the logging section.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithStore replaces the store selected from the database section.
func WithStore(st store.Catalog) Option {
	return func(o *options) { o.store = st }
}

// WithClock replaces time.Now for the in-process cache.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewContainer builds every component from cfg. Background work (memory janitor, Redis
// client) lives until ctx is cancelled; call Close to release the database pool.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		config:        cfg,
		registry:      prometheus.NewRegistry(),
		keySerializer: cache.NewDefaultKeySerializer(),
	}
	if o.logger != nil {
		c.logger = *o.logger
	} else {
		c.logger = logging.New(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Caller: cfg.Logging.Caller,
		})
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.metrics = metrics.New(c.registry)

	svc, err := cache.NewCacheService(ctx, cfg.Cache.Backends(),
		cache.WithLogger(c.logger.With().Str("component", "cache").Logger()),
		cache.WithMetrics(c.metrics),
		cache.WithClock(o.now),
	)
	if err != nil {
		return nil, fmt.Errorf("cache service: %w", err)
	}
	c.cacheService = svc

	if o.store != nil {
		c.store = o.store
	} else if err := c.openStore(ctx); err != nil {
		return nil, err
	}

	local, err := cacheinfra.NewLocalCache[catalog.Category](cfg.Cache.Backends().Local)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("category cache: %w", err)
	}

	var compilerOpts []query.Option
	if cfg.Search.IncludeThemes {
		compilerOpts = append(compilerOpts, query.WithSearchFields(query.ThemesSearchField))
	}

	c.repository = repositorycache.New(c.store, c.store, c.cacheService,
		repositorycache.WithKeySerializer(c.keySerializer),
		repositorycache.WithCompiler(query.NewCompiler(compilerOpts...)),
		repositorycache.WithTTLPolicy(cfg.TTL.Policy()),
		repositorycache.WithCategoryCache(local),
		repositorycache.WithLogger(c.logger.With().Str("component", "repository").Logger()),
		repositorycache.WithMetrics(c.metrics),
	)

	c.handler = httpapi.New(c.repository,
		httpapi.WithLogger(c.logger.With().Str("component", "http").Logger()),
		httpapi.WithMetrics(c.metrics),
		httpapi.WithGatherer(c.registry),
		httpapi.WithHealthCheck(c.Ping),
	)
	return c, nil
}

// NewContainerWithDefaults builds a container from config.Default: in-memory store,
// in-process cache.
func NewContainerWithDefaults(ctx context.Context) (*Container, error) {
	return NewContainer(ctx, config.Default())
}

func (c *Container) openStore(ctx context.Context) error {
	if c.config.Database.DSN == "" {
		return c.openMemoryStore()
	}

	db, err := bunstore.Open(c.config.Database.Bun())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	st := bunstore.New(db,
		bunstore.WithLogger(c.logger.With().Str("component", "store").Logger()),
		bunstore.WithMetrics(c.metrics),
	)

	if c.config.Database.AutoMigrate {
		if err := st.CreateSchema(ctx); err != nil {
			_ = db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	c.db = db
	c.store = st
	return nil
}

func (c *Container) openMemoryStore() error {
	path := c.config.Store.Fixture
	if path == "" {
		c.logger.Warn().Msg("no database or fixture configured, serving an empty catalog")
		c.store = memstore.New(nil, nil)
		return nil
	}

	st, err := memstore.Open(path)
	if err != nil {
		return fmt.Errorf("load fixture: %w", err)
	}
	c.logger.Info().Str("fixture", path).Int("items", st.Len()).Msg("serving catalog from fixture")
	c.store = st
	return nil
}

// Ping reports whether the store is reachable. The in-memory store always is.
func (c *Container) Ping(ctx context.Context) error {
	pinger, ok := c.store.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return pinger.Ping(ctx)
}

// Close releases the database pool.
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Server returns an http.Server for the configured address.
func (c *Container) Server() *http.Server {
	return &http.Server{
		Addr:         c.config.Server.Addr,
		Handler:      c.handler.Routes(),
		ReadTimeout:  c.config.Server.ReadTimeout,
		WriteTimeout: c.config.Server.WriteTimeout,
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down within the
// configured timeout.
func (c *Container) Serve(ctx context.Context) error {
	srv := c.Server()
	errCh := make(chan error, 1)
	go func() {
		c.logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *Container) Config() *config.Config { return c.config }

func (c *Container) Logger() zerolog.Logger { return c.logger }

func (c *Container) Registry() *prometheus.Registry { return c.registry }

func (c *Container) Metrics() *metrics.Metrics { return c.metrics }

func (c *Container) CacheService() cache.CacheService { return c.cacheService }

func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

func (c *Container) Store() store.Catalog { return c.store }

func (c *Container) Repository() *repositorycache.CachedRepository { return c.repository }

func (c *Container) Handler() http.Handler { return c.handler.Routes() }
