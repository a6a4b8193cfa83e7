package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/goliatone/go-facet-catalog/cache"
	"github.com/goliatone/go-facet-catalog/repositorycache"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/facet-catalog/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CATALOG_CONFIG"

// Default returns the built-in configuration: in-memory store, no Redis.
func Default() *Config {
	backends := cache.DefaultConfig()
	ttl := repositorycache.DefaultTTLPolicy()

	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Cache: CacheConfig{
			Redis: RedisConfig{
				Timeout:         backends.Redis.Timeout,
				Prefix:          backends.Redis.Prefix,
				BreakerFailures: backends.Redis.BreakerFailures,
				BreakerTimeout:  backends.Redis.BreakerTimeout,
			},
			Memory: MemoryConfig{
				SweepThreshold:  backends.Memory.SweepThreshold,
				JanitorInterval: backends.Memory.JanitorInterval,
			},
			Local: LocalConfig{
				Capacity:           backends.Local.Capacity,
				NumShards:          backends.Local.NumShards,
				TTL:                backends.Local.TTL,
				EvictionPercentage: backends.Local.EvictionPercentage,
				EarlyRefresh:       true,
				MinAsyncRefresh:    backends.Local.EarlyRefresh.MinAsyncRefreshTime,
				MaxAsyncRefresh:    backends.Local.EarlyRefresh.MaxAsyncRefreshTime,
				SyncRefresh:        backends.Local.EarlyRefresh.SyncRefreshTime,
				RetryBaseDelay:     backends.Local.EarlyRefresh.RetryBaseDelay,
			},
		},
		TTL: TTLConfig{
			Item:       ttl.Item,
			List:       ttl.List,
			SearchList: ttl.SearchList,
			Categories: ttl.Categories,
			Themes:     ttl.Themes,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. An empty path searches ConfigPathEnvVar and DefaultConfigPaths; finding
// no file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"http_addr":             "server.addr",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"database_url":               "database.dsn",
	"database_max_open_conns":    "database.max_open_conns",
	"database_max_idle_conns":    "database.max_idle_conns",
	"database_conn_max_lifetime": "database.conn_max_lifetime",
	"database_auto_migrate":      "database.auto_migrate",

	"catalog_fixture": "store.fixture",

	"redis_addr":             "cache.redis.addr",
	"redis_password":         "cache.redis.password",
	"redis_db":               "cache.redis.db",
	"redis_timeout":          "cache.redis.timeout",
	"redis_prefix":           "cache.redis.prefix",
	"redis_breaker_failures": "cache.redis.breaker_failures",
	"redis_breaker_timeout":  "cache.redis.breaker_timeout",

	"cache_sweep_threshold":  "cache.memory.sweep_threshold",
	"cache_janitor_interval": "cache.memory.janitor_interval",
	"cache_local_capacity":   "cache.local.capacity",
	"cache_local_ttl":        "cache.local.ttl",
	"cache_early_refresh":    "cache.local.early_refresh",

	"ttl_item":        "ttl.item",
	"ttl_list":        "ttl.list",
	"ttl_search_list": "ttl.search_list",
	"ttl_categories":  "ttl.categories",
	"ttl_themes":      "ttl.themes",

	"search_include_themes": "search.include_themes",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps known environment variables to config keys. Unknown variables
// map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
