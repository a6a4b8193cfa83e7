// Package filter holds the typed representation of a catalog query and the rules that
// turn loosely typed request input into it.
package filter

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-facet-catalog/catalog"
)

// MatchMode controls how multiple selected themes combine.
type MatchMode string

const (
	// MatchAll requires every selected theme (set containment).
	MatchAll MatchMode = "AND"
	// MatchAny requires at least one selected theme (set intersection).
	MatchAny MatchMode = "OR"
)

// ParseMatchMode maps user input to a MatchMode. Anything unrecognized is MatchAll.
func ParseMatchMode(s string) MatchMode {
	if strings.EqualFold(strings.TrimSpace(s), string(MatchAny)) {
		return MatchAny
	}
	return MatchAll
}

// SortKey enumerates the supported orderings.
type SortKey string

const (
	SortUnspecified     SortKey = ""
	SortName            SortKey = "name"
	SortNameDesc        SortKey = "nameDesc"
	SortStimulation     SortKey = "stimulation"
	SortStimulationDesc SortKey = "stimulationDesc"
	SortAgeAsc          SortKey = "ageAsc"
	SortAgeDesc         SortKey = "ageDesc"
	SortPopular         SortKey = "popular"
	SortNewest          SortKey = "newest"
	SortOldest          SortKey = "oldest"
)

// SortKeys lists every accepted sortBy value.
var SortKeys = []SortKey{
	SortName, SortNameDesc,
	SortStimulation, SortStimulationDesc,
	SortAgeAsc, SortAgeDesc,
	SortPopular, SortNewest, SortOldest,
}

// Valid reports whether k is one of SortKeys.
func (k SortKey) Valid() bool {
	for _, known := range SortKeys {
		if k == known {
			return true
		}
	}
	return false
}

// Open bounds used when a range side is omitted.
const (
	MinAge = 0
	MaxAge = math.MaxInt32
)

// Range is an inclusive numeric interval. Min > Max is allowed and matches nothing.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r Range) String() string {
	return strconv.Itoa(r.Min) + ".." + strconv.Itoa(r.Max)
}

// Spec describes one catalog query. It is a value type: build it once per request with
// Parse or New and never mutate it afterwards.
type Spec struct {
	AgeGroup         string
	AgeRange         *Range
	StimulationRange *Range
	Themes           []string
	ThemeMatchMode   MatchMode
	Search           string
	SortBy           SortKey
	Limit            int
	Offset           int
}

// Option configures a Spec built with New.
type Option func(*Spec)

// New builds a Spec from options, applying the same normalization as Parse.
func New(opts ...Option) Spec {
	s := Spec{ThemeMatchMode: MatchAll}
	for _, opt := range opts {
		opt(&s)
	}
	s.Themes = normalizeThemes(s.Themes)
	s.Search = strings.TrimSpace(s.Search)
	if s.ThemeMatchMode != MatchAny {
		s.ThemeMatchMode = MatchAll
	}
	return s
}

func WithAgeGroup(group string) Option {
	return func(s *Spec) { s.AgeGroup = strings.TrimSpace(group) }
}

func WithAgeRange(min, max int) Option {
	return func(s *Spec) { s.AgeRange = &Range{Min: min, Max: max} }
}

func WithStimulationRange(min, max int) Option {
	return func(s *Spec) { s.StimulationRange = &Range{Min: min, Max: max} }
}

// WithThemes selects themes combined with mode.
func WithThemes(mode MatchMode, themes ...string) Option {
	return func(s *Spec) {
		s.ThemeMatchMode = mode
		s.Themes = append([]string(nil), themes...)
	}
}

func WithSearch(term string) Option {
	return func(s *Spec) { s.Search = term }
}

func WithSort(key SortKey) Option {
	return func(s *Spec) { s.SortBy = key }
}

func WithPage(limit, offset int) Option {
	return func(s *Spec) {
		s.Limit = limit
		s.Offset = offset
	}
}

// HasThemes reports whether a theme predicate is active.
func (s Spec) HasThemes() bool { return len(s.Themes) > 0 }

// HasSearch reports whether a search predicate is active.
func (s Spec) HasSearch() bool { return s.Search != "" }

// Paginated reports whether a limit or offset is set.
func (s Spec) Paginated() bool { return s.Limit > 0 || s.Offset > 0 }

// WithoutThemes returns a copy of s with the theme selection cleared.
func (s Spec) WithoutThemes() Spec {
	s.Themes = nil
	return s
}

// WithoutPage returns a copy of s with limit and offset cleared.
func (s Spec) WithoutPage() Spec {
	s.Limit, s.Offset = 0, 0
	return s
}

// CanonicalThemes returns the selected themes lower-cased, deduplicated and sorted.
// It is meant for keys and comparisons only; display uses Themes.
func (s Spec) CanonicalThemes() []string {
	out := make([]string, 0, len(s.Themes))
	seen := make(map[string]struct{}, len(s.Themes))
	for _, t := range s.Themes {
		lt := strings.ToLower(t)
		if _, ok := seen[lt]; ok {
			continue
		}
		seen[lt] = struct{}{}
		out = append(out, lt)
	}
	sort.Strings(out)
	return out
}

// CacheKey renders s as a canonical string: equal field values produce equal keys
// regardless of theme order or casing.
func (s Spec) CacheKey() string {
	var b strings.Builder
	b.WriteString("ag=")
	b.WriteString(strconv.Quote(s.AgeGroup))
	b.WriteString("|ar=")
	writeRange(&b, s.AgeRange)
	b.WriteString("|sr=")
	writeRange(&b, s.StimulationRange)
	if s.HasThemes() {
		b.WriteString("|th=")
		for i, t := range s.CanonicalThemes() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(t))
		}
		b.WriteString("|tm=")
		b.WriteString(string(s.ThemeMatchMode))
	}
	b.WriteString("|q=")
	b.WriteString(strconv.Quote(s.Search))
	b.WriteString("|sb=")
	b.WriteString(string(s.SortBy))
	b.WriteString("|l=")
	b.WriteString(strconv.Itoa(s.Limit))
	b.WriteString("|o=")
	b.WriteString(strconv.Itoa(s.Offset))
	return b.String()
}

func writeRange(b *strings.Builder, r *Range) {
	if r == nil {
		b.WriteByte('-')
		return
	}
	b.WriteString(r.String())
}

// normalizeThemes trims labels, drops empties and removes case-insensitive duplicates,
// keeping the first spelling and the input order.
func normalizeThemes(themes []string) []string {
	if len(themes) == 0 {
		return nil
	}
	out := make([]string, 0, len(themes))
	seen := make(map[string]struct{}, len(themes))
	for _, t := range themes {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		lt := strings.ToLower(t)
		if _, ok := seen[lt]; ok {
			continue
		}
		seen[lt] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stimulationBounds() Range {
	return Range{Min: catalog.MinStimulationScore, Max: catalog.MaxStimulationScore}
}
