// Package httpapi exposes the catalog over HTTP. Handlers only translate request
// parameters into filter specs and map errors to status codes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/facet"
	"github.com/goliatone/go-facet-catalog/filter"
	"github.com/goliatone/go-facet-catalog/metrics"
	"github.com/goliatone/go-facet-catalog/repositorycache"
)

// Catalog is the read surface the handlers need. *repositorycache.CachedRepository
// implements it.
type Catalog interface {
	ListItems(ctx context.Context, spec filter.Spec) ([]catalog.ContentItem, error)
	GetItem(ctx context.Context, id int64) (catalog.ContentItem, error)
	Themes(ctx context.Context) ([]string, error)
	ThemeCandidates(ctx context.Context, spec filter.Spec) (facet.Context, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
	CategoryItems(ctx context.Context, slug string, limit, offset int) ([]catalog.ContentItem, error)
	Invalidate(ctx context.Context, scope repositorycache.Scope, ids ...int64) error
	Stats() repositorycache.Stats
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handler serves the catalog routes.
type Handler struct {
	catalog  Catalog
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	health   HealthCheck
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMetrics records request counts and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithGatherer serves g on /metrics. Without it /metrics uses the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// WithHealthCheck makes /healthz report 503 when check fails.
func WithHealthCheck(check HealthCheck) Option {
	return func(h *Handler) { h.health = check }
}

// New creates a Handler over c.
func New(c Catalog, opts ...Option) *Handler {
	h := &Handler{
		catalog:  c,
		logger:   zerolog.Nop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(h.accessLog)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/shows", func(r chi.Router) {
		r.Get("/", h.listShows)
		r.Get("/{id}", h.getShow)
	})

	r.Route("/themes", func(r chi.Router) {
		r.Get("/", h.listThemes)
		r.Get("/candidates", h.themeCandidates)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Get("/{slug}/shows", h.categoryShows)
	})

	r.Route("/cache", func(r chi.Router) {
		r.Get("/stats", h.cacheStats)
		r.Post("/invalidate", h.invalidate)
	})

	return r
}
