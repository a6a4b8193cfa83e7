package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the settings for every cache backend.
type Config struct {
	Redis  RedisConfig
	Memory MemoryConfig
	Local  LocalConfig
}

// RedisConfig configures the remote backend. It is disabled when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Timeout bounds every remote call. A timed out call is treated as a miss.
	Timeout time.Duration

	// Prefix namespaces every key written by this service.
	Prefix string

	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures uint32

	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration
}

// MemoryConfig configures the in-process backend.
type MemoryConfig struct {
	// SweepThreshold triggers a sweep of expired entries when a write leaves the map
	// larger than this. Zero disables size-triggered sweeps.
	SweepThreshold int

	// JanitorInterval runs the same sweep periodically. Zero disables the janitor.
	JanitorInterval time.Duration
}

// LocalConfig configures the sturdyc read-through cache.
type LocalConfig struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int

	// EarlyRefresh refreshes hot entries before they expire. Nil disables it.
	EarlyRefresh *EarlyRefreshConfig
}

// EarlyRefreshConfig mirrors sturdyc.WithEarlyRefreshes.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// DefaultConfig returns a Config with sensible defaults. Redis is disabled.
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			Timeout:         200 * time.Millisecond,
			Prefix:          "facet-catalog:",
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Memory: MemoryConfig{
			SweepThreshold:  10000,
			JanitorInterval: time.Minute,
		},
		Local: LocalConfig{
			Capacity:           1000,
			NumShards:          16,
			TTL:                10 * time.Minute,
			EvictionPercentage: 10,
			EarlyRefresh: &EarlyRefreshConfig{
				MinAsyncRefreshTime: 4 * time.Minute,
				MaxAsyncRefreshTime: 6 * time.Minute,
				SyncRefreshTime:     8 * time.Minute,
				RetryBaseDelay:      100 * time.Millisecond,
			},
		},
	}
}

// Validate checks every section. Redis settings are only checked when Addr is set.
func (c Config) Validate() error {
	if c.Redis.Addr != "" {
		if c.Redis.Timeout <= 0 {
			return &ConfigError{Field: "Redis.Timeout", Message: "must be greater than 0"}
		}
		if c.Redis.BreakerFailures == 0 {
			return &ConfigError{Field: "Redis.BreakerFailures", Message: "must be greater than 0"}
		}
		if c.Redis.BreakerTimeout <= 0 {
			return &ConfigError{Field: "Redis.BreakerTimeout", Message: "must be greater than 0"}
		}
		if c.Redis.DB < 0 {
			return &ConfigError{Field: "Redis.DB", Message: "must be non-negative"}
		}
	}

	if c.Memory.SweepThreshold < 0 {
		return &ConfigError{Field: "Memory.SweepThreshold", Message: "must be non-negative"}
	}
	if c.Memory.JanitorInterval < 0 {
		return &ConfigError{Field: "Memory.JanitorInterval", Message: "must be non-negative"}
	}

	return c.Local.Validate()
}

// Validate checks the sturdyc parameters.
func (c LocalConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Local.Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "Local.NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "Local.TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "Local.EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if r := c.EarlyRefresh; r != nil {
		if r.MinAsyncRefreshTime < 0 || r.MaxAsyncRefreshTime < 0 || r.SyncRefreshTime < 0 || r.RetryBaseDelay < 0 {
			return &ConfigError{Field: "Local.EarlyRefresh", Message: "durations must be non-negative"}
		}
		if r.MinAsyncRefreshTime > r.MaxAsyncRefreshTime {
			return &ConfigError{Field: "Local.EarlyRefresh.MinAsyncRefreshTime", Message: "must not exceed MaxAsyncRefreshTime"}
		}
	}
	return nil
}

// sturdycOptions maps the optional settings. Capacity, shards, TTL and eviction are
// constructor arguments.
func (c LocalConfig) sturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if r := c.EarlyRefresh; r != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			r.MinAsyncRefreshTime,
			r.MaxAsyncRefreshTime,
			r.SyncRefreshTime,
			r.RetryBaseDelay,
		))
	}
	return options
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
