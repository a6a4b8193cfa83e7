// Package config loads the service configuration: built-in defaults, then an optional
// YAML file, then environment variables.
package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-facet-catalog/cache"
	"github.com/goliatone/go-facet-catalog/internal/cacheinfra"
	"github.com/goliatone/go-facet-catalog/repositorycache"
	"github.com/goliatone/go-facet-catalog/store/bunstore"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Store    StoreConfig    `koanf:"store"`
	Cache    CacheConfig    `koanf:"cache"`
	TTL      TTLConfig      `koanf:"ttl"`
	Search   SearchConfig   `koanf:"search"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig configures the PostgreSQL store. An empty DSN selects the in-memory
// store seeded from Store.Fixture.
type DatabaseConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type StoreConfig struct {
	Fixture string `koanf:"fixture"`
}

type CacheConfig struct {
	Redis  RedisConfig  `koanf:"redis"`
	Memory MemoryConfig `koanf:"memory"`
	Local  LocalConfig  `koanf:"local"`
}

type RedisConfig struct {
	Addr            string        `koanf:"addr"`
	Password        string        `koanf:"password"`
	DB              int           `koanf:"db"`
	Timeout         time.Duration `koanf:"timeout"`
	Prefix          string        `koanf:"prefix"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

type MemoryConfig struct {
	SweepThreshold  int           `koanf:"sweep_threshold"`
	JanitorInterval time.Duration `koanf:"janitor_interval"`
}

// LocalConfig configures the in-process category cache. Early refresh is disabled when
// EarlyRefresh is false.
type LocalConfig struct {
	Capacity           int           `koanf:"capacity"`
	NumShards          int           `koanf:"num_shards"`
	TTL                time.Duration `koanf:"ttl"`
	EvictionPercentage int           `koanf:"eviction_percentage"`
	EarlyRefresh       bool          `koanf:"early_refresh"`
	MinAsyncRefresh    time.Duration `koanf:"min_async_refresh"`
	MaxAsyncRefresh    time.Duration `koanf:"max_async_refresh"`
	SyncRefresh        time.Duration `koanf:"sync_refresh"`
	RetryBaseDelay     time.Duration `koanf:"retry_base_delay"`
}

type TTLConfig struct {
	Item       time.Duration `koanf:"item"`
	List       time.Duration `koanf:"list"`
	SearchList time.Duration `koanf:"search_list"`
	Categories time.Duration `koanf:"categories"`
	Themes     time.Duration `koanf:"themes"`
}

// SearchConfig controls the searchable fields. IncludeThemes adds theme labels as the
// lowest ranked search tier.
type SearchConfig struct {
	IncludeThemes bool `koanf:"include_themes"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Backends converts the cache section into the cache package configuration.
func (c CacheConfig) Backends() cache.Config {
	out := cache.Config{
		Redis: cache.RedisConfig{
			Addr:            c.Redis.Addr,
			Password:        c.Redis.Password,
			DB:              c.Redis.DB,
			Timeout:         c.Redis.Timeout,
			Prefix:          c.Redis.Prefix,
			BreakerFailures: c.Redis.BreakerFailures,
			BreakerTimeout:  c.Redis.BreakerTimeout,
		},
		Memory: cache.MemoryConfig{
			SweepThreshold:  c.Memory.SweepThreshold,
			JanitorInterval: c.Memory.JanitorInterval,
		},
		Local: cache.LocalConfig{
			Capacity:           c.Local.Capacity,
			NumShards:          c.Local.NumShards,
			TTL:                c.Local.TTL,
			EvictionPercentage: c.Local.EvictionPercentage,
		},
	}
	if c.Local.EarlyRefresh {
		out.Local.EarlyRefresh = &cacheinfra.EarlyRefreshConfig{
			MinAsyncRefreshTime: c.Local.MinAsyncRefresh,
			MaxAsyncRefreshTime: c.Local.MaxAsyncRefresh,
			SyncRefreshTime:     c.Local.SyncRefresh,
			RetryBaseDelay:      c.Local.RetryBaseDelay,
		}
	}
	return out
}

// Policy converts the ttl section.
func (c TTLConfig) Policy() repositorycache.TTLPolicy {
	return repositorycache.TTLPolicy{
		Item:       c.Item,
		List:       c.List,
		SearchList: c.SearchList,
		Categories: c.Categories,
		Themes:     c.Themes,
	}
}

// Bun converts the database section.
func (c DatabaseConfig) Bun() bunstore.Config {
	return bunstore.Config{
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Database),
		validation.Field(&c.Cache),
		validation.Field(&c.TTL),
		validation.Field(&c.Logging),
	)
}

func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.WriteTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.MaxIdleConns, validation.Min(0)),
		validation.Field(&c.ConnMaxLifetime, validation.Min(time.Duration(0))),
	)
}

// Validate defers to the cache backends' own checks.
func (c CacheConfig) Validate() error {
	return c.Backends().Validate()
}

func (c TTLConfig) Validate() error {
	positive := []validation.Rule{validation.Required, validation.Min(time.Second)}
	return validation.ValidateStruct(&c,
		validation.Field(&c.Item, positive...),
		validation.Field(&c.List, positive...),
		validation.Field(&c.SearchList, positive...),
		validation.Field(&c.Categories, positive...),
		validation.Field(&c.Themes, positive...),
	)
}

func (c LoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.In("trace", "debug", "info", "warn", "error", "disabled")),
		validation.Field(&c.Format, validation.In("json", "console")),
	)
}
