package cacheinfra

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-facet-catalog/metrics"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryBackend is the in-process backend: a concurrent map with per-entry expiry.
// Expired entries are dropped when read, and swept when the map grows past the
// configured threshold or when the janitor runs.
type MemoryBackend struct {
	entries        *xsync.MapOf[string, memoryEntry]
	sweepThreshold int
	sweepAt        atomic.Int64 // size above which Set sweeps
	now            func() time.Time
	metrics        *metrics.Metrics
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithMemoryClock replaces time.Now.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMemoryMetrics records swept entries.
func WithMemoryMetrics(mt *metrics.Metrics) MemoryOption {
	return func(m *MemoryBackend) { m.metrics = mt }
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend(cfg MemoryConfig, opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		entries:        xsync.NewMapOf[string, memoryEntry](),
		sweepThreshold: cfg.SweepThreshold,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sweepAt.Store(int64(cfg.SweepThreshold))
	return m
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		m.deleteIfExpired(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key. A ttl of zero or less never expires.
func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries.Store(key, e)

	if m.sweepThreshold > 0 && int64(m.entries.Size()) > m.sweepAt.Load() {
		m.Sweep()
		m.rearmSweep()
	}
	return nil
}

// rearmSweep sets the next sweep point. When live entries alone exceed the threshold,
// Set waits for a tenth of the threshold in new entries before scanning again.
func (m *MemoryBackend) rearmSweep() {
	next := m.entries.Size() + m.sweepThreshold/10 + 1
	m.sweepAt.Store(int64(max(m.sweepThreshold, next)))
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

func (m *MemoryBackend) DeleteByPrefix(_ context.Context, prefix string) error {
	var keys []string
	m.entries.Range(func(key string, _ memoryEntry) bool {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return true
	})
	for _, key := range keys {
		m.entries.Delete(key)
	}
	return nil
}

func (m *MemoryBackend) Flush(context.Context) error {
	m.entries.Clear()
	m.sweepAt.Store(int64(m.sweepThreshold))
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryBackend) Len() int {
	return m.entries.Size()
}

// Sweep removes expired entries and returns how many were removed. An entry replaced
// by a fresh value between the scan and the delete is kept.
func (m *MemoryBackend) Sweep() int {
	now := m.now()
	var expired []string
	m.entries.Range(func(key string, e memoryEntry) bool {
		if e.expired(now) {
			expired = append(expired, key)
		}
		return true
	})

	removed := 0
	for _, key := range expired {
		if m.deleteIfExpired(key) {
			removed++
		}
	}
	m.metrics.Swept(removed)
	return removed
}

func (m *MemoryBackend) deleteIfExpired(key string) bool {
	now := m.now()
	deleted := false
	m.entries.Compute(key, func(old memoryEntry, loaded bool) (memoryEntry, bool) {
		if !loaded {
			return old, true
		}
		if old.expired(now) {
			deleted = true
			return old, true
		}
		return old, false
	})
	return deleted
}

// StartJanitor sweeps every interval until ctx is cancelled. It blocks; run it in a
// goroutine.
func (m *MemoryBackend) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
