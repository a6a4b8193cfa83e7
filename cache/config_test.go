package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-facet-catalog/internal/cacheinfra"
)

func TestNewCacheService_MemoryOnly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewCacheService(ctx, DefaultConfig(), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}

	_ = svc.Set(ctx, "item::1", []byte("v"), time.Minute)
	if _, ok := svc.Get(ctx, "item::1"); !ok {
		t.Fatal("expected hit")
	}

	now = now.Add(time.Minute)
	if _, ok := svc.Get(ctx, "item::1"); ok {
		t.Error("expected expiry with injected clock")
	}
}

func TestNewCacheService_Redis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Redis.Addr = mr.Addr()

	svc, err := NewCacheService(ctx, cfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}

	_ = svc.Set(ctx, "items::list::a", []byte("v"), time.Hour)
	if !mr.Exists(cfg.Redis.Prefix + "items::list::a") {
		t.Error("expected value written to redis")
	}

	_ = svc.DeleteByPrefix(ctx, "items::")
	if _, ok := svc.Get(ctx, "items::list::a"); ok {
		t.Error("expected invalidated entry to miss")
	}
}

func TestNewRedisCacheService_FallsBack(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Redis.BreakerFailures = 1
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	svc, err := NewRedisCacheService(client, cfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}

	mr.Close()
	_ = svc.Set(ctx, "k", []byte("v"), time.Minute)
	if v, ok := svc.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Errorf("expected in-process fallback, got %q %v", v, ok)
	}
}

func TestNewCacheService_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Local.TTL = 0

	_, err := NewCacheService(context.Background(), cfg)
	var cfgErr *cacheinfra.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}
