// Package bunstore implements the catalog store on PostgreSQL with bun.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/metrics"
	"github.com/goliatone/go-facet-catalog/query"
)

// Config configures the connection pool.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open creates the pooled bun handle. It does not connect; use Ping for that.
func Open(cfg Config) (*bun.DB, error) {
	sqldb, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// Store reads and writes content_items and facet_categories. Every operation acquires
// its own pooled connection and releases it before returning.
type Store struct {
	db      *bun.DB
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for store failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics records operation durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New wraps db.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withConn runs fn on a dedicated pooled connection and maps its error.
func (s *Store) withConn(ctx context.Context, op string, fn func(conn bun.Conn) error) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveStore(op, start, err) }()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return s.fail(op, err)
	}
	defer conn.Close()

	if err = fn(conn); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return err
		}
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.ErrNotFound
		}
		return s.fail(op, err)
	}
	return nil
}

func (s *Store) fail(op string, err error) error {
	s.logger.Error().Err(err).Str("op", op).Msg("store operation failed")
	return &catalog.StoreError{Op: op, Err: err}
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, "ping", func(conn bun.Conn) error {
		return conn.PingContext(ctx)
	})
}

// findQuery renders q on db. Array arguments are bound as PostgreSQL arrays.
func findQuery(db bun.IDB, rows *[]itemModel, q query.Query) *bun.SelectQuery {
	where, args := q.Where()
	sel := db.NewSelect().Model(rows).Where(where, bindArgs(args)...)
	if q.Order.SQL != "" {
		sel = sel.OrderExpr(q.Order.SQL, bindArgs(q.Order.Args)...)
	}
	if q.Page != nil {
		if q.Page.Limit > 0 {
			sel = sel.Limit(q.Page.Limit)
		}
		if q.Page.Offset > 0 {
			sel = sel.Offset(q.Page.Offset)
		}
	}
	return sel
}

func bindArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		if values, ok := arg.([]string); ok {
			out[i] = pgdialect.Array(values)
			continue
		}
		out[i] = arg
	}
	return out
}

func (s *Store) Find(ctx context.Context, q query.Query) ([]catalog.ContentItem, error) {
	var rows []itemModel
	err := s.withConn(ctx, "find", func(conn bun.Conn) error {
		return findQuery(conn, &rows, q).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}

	items := make([]catalog.ContentItem, len(rows))
	for i, row := range rows {
		items[i] = row.toItem()
	}
	return items, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (catalog.ContentItem, error) {
	row := new(itemModel)
	err := s.withConn(ctx, "find_by_id", func(conn bun.Conn) error {
		return conn.NewSelect().Model(row).Where("ci.id = ?", id).Limit(1).Scan(ctx)
	})
	if err != nil {
		return catalog.ContentItem{}, err
	}
	return row.toItem(), nil
}

func (s *Store) Save(ctx context.Context, item catalog.ContentItem) (catalog.ContentItem, error) {
	row := toItemModel(item)
	err := s.withConn(ctx, "save", func(conn bun.Conn) error {
		if row.ID == 0 {
			_, err := conn.NewInsert().Model(row).Returning("id").Exec(ctx)
			return err
		}
		res, err := conn.NewUpdate().Model(row).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		return catalog.ContentItem{}, err
	}
	return row.toItem(), nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.withConn(ctx, "delete", func(conn bun.Conn) error {
		res, err := conn.NewDelete().Model((*itemModel)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Categories lists the stored category definitions by position, then name.
func (s *Store) Categories(ctx context.Context) ([]catalog.Category, error) {
	var rows []categoryModel
	err := s.withConn(ctx, "categories", func(conn bun.Conn) error {
		return conn.NewSelect().Model(&rows).OrderExpr("fc.position ASC, fc.name ASC").Scan(ctx)
	})
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Category, len(rows))
	for i, row := range rows {
		out[i] = row.toCategory()
	}
	return out, nil
}

// CreateSchema creates the tables when they do not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	return s.withConn(ctx, "create_schema", func(conn bun.Conn) error {
		for _, model := range []any{(*itemModel)(nil), (*categoryModel)(nil)} {
			if _, err := conn.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
