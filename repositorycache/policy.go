package repositorycache

import (
	"fmt"
	"time"
)

// TTLPolicy holds the freshness window of every cached operation.
type TTLPolicy struct {
	Item       time.Duration
	List       time.Duration
	SearchList time.Duration
	Categories time.Duration
	Themes     time.Duration
}

// DefaultTTLPolicy returns the standard windows: single items change rarely, search
// results are refreshed twice as often as plain listings.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Item:       24 * time.Hour,
		List:       time.Hour,
		SearchList: 30 * time.Minute,
		Categories: 12 * time.Hour,
		Themes:     time.Hour,
	}
}

// Scope selects the family of cache entries to invalidate.
type Scope string

const (
	ScopeItem   Scope = "single-item"
	ScopeLists  Scope = "item-lists"
	ScopeFacets Scope = "facet-config"
	ScopeAll    Scope = "all"
)

// ParseScope validates s.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(s); sc {
	case ScopeItem, ScopeLists, ScopeFacets, ScopeAll:
		return sc, nil
	}
	return "", fmt.Errorf("unknown invalidation scope %q", s)
}

// Stats counts cache outcomes of one repository.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// HitRatio returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
