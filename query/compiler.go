package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/filter"
)

// Column expressions, qualified with the content_items alias used by the store.
const (
	colName        = `ci.name`
	colDescription = `ci.description`
	colAgeGroup    = `ci.age_group`
	colAgeRange    = `ci.age_range`
	colStimulation = `ci.stimulation_score`
	colFeatured    = `ci.is_featured`
	colReleaseYear = `ci.release_year`
	colID          = `ci.id`

	lowerThemes = `ARRAY(SELECT lower(t) FROM unnest(ci.themes) AS t)`
	spanGuard   = `ci.age_range ~ '^[0-9]+-[0-9]+$'`
	spanLow     = `split_part(ci.age_range, '-', 1)::numeric`
	spanHigh    = `split_part(ci.age_range, '-', 2)::numeric`

	// byName is the deterministic tie breaker appended to every order.
	byName = `ci.name COLLATE "C" ASC, ci.id ASC`
)

var spanPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// SearchField is an additional column searched after name and description. Matches on
// these fields rank in the last search tier.
type SearchField struct {
	Name  string
	SQL   string
	Value func(catalog.ContentItem) string
}

// ThemesSearchField makes theme labels searchable.
var ThemesSearchField = SearchField{
	Name: "themes",
	SQL:  `array_to_string(ci.themes, ' ')`,
	Value: func(item catalog.ContentItem) string {
		return strings.Join(item.Themes, " ")
	},
}

// Compiler turns specs into queries. It holds configuration only and is safe for
// concurrent use.
type Compiler struct {
	searchFields []SearchField
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithSearchFields adds searchable fields beyond name and description.
func WithSearchFields(fields ...SearchField) Option {
	return func(c *Compiler) {
		c.searchFields = append(c.searchFields, fields...)
	}
}

// NewCompiler creates a Compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the query for spec. The result depends on spec and the compiler
// configuration only.
func (c *Compiler) Compile(spec filter.Spec) Query {
	b := newBuilder()

	if spec.HasThemes() {
		b.addThemes(spec.CanonicalThemes(), spec.ThemeMatchMode)
	}
	if spec.AgeGroup != "" {
		b.addAgeGroup(spec.AgeGroup)
	}
	if spec.AgeRange != nil {
		b.addAgeRange(*spec.AgeRange)
	}
	if spec.StimulationRange != nil {
		b.addStimulation(*spec.StimulationRange)
	}
	if spec.HasSearch() {
		b.addSearch(spec.Search, c.searchFields)
	}

	q := Query{
		Predicates: b.predicates,
		Order:      c.order(spec),
	}
	if spec.Paginated() {
		q.Page = &Page{Limit: spec.Limit, Offset: spec.Offset}
	}
	return q
}

type builder struct {
	predicates []Predicate
}

func newBuilder() *builder {
	return &builder{predicates: []Predicate{}}
}

func (b *builder) add(name, sql string, match func(catalog.ContentItem) bool, args ...any) {
	b.predicates = append(b.predicates, Predicate{Name: name, SQL: sql, Args: args, match: match})
}

func (b *builder) addThemes(themes []string, mode filter.MatchMode) {
	if mode == filter.MatchAny {
		b.add("themes_any", lowerThemes+` && ?`, func(item catalog.ContentItem) bool {
			set := themeSet(item)
			for _, t := range themes {
				if _, ok := set[t]; ok {
					return true
				}
			}
			return false
		}, themes)
		return
	}

	b.add("themes_all", lowerThemes+` @> ?`, func(item catalog.ContentItem) bool {
		set := themeSet(item)
		for _, t := range themes {
			if _, ok := set[t]; !ok {
				return false
			}
		}
		return true
	}, themes)
}

func (b *builder) addAgeGroup(group string) {
	b.add("age_group", colAgeGroup+` = ?`, func(item catalog.ContentItem) bool {
		return item.AgeGroup == group
	}, group)
}

func (b *builder) addAgeRange(r filter.Range) {
	sql := `CASE WHEN ` + spanGuard + ` THEN ` + spanLow + ` <= ? AND ` + spanHigh + ` >= ? ELSE false END`
	b.add("age_range", sql, func(item catalog.ContentItem) bool {
		lo, hi, ok := ParseSpan(item.AgeRange)
		return ok && lo <= r.Max && hi >= r.Min
	}, r.Max, r.Min)
}

func (b *builder) addStimulation(r filter.Range) {
	sql := colStimulation + ` >= ? AND ` + colStimulation + ` <= ?`
	b.add("stimulation_score", sql, func(item catalog.ContentItem) bool {
		return item.StimulationScore >= r.Min && item.StimulationScore <= r.Max
	}, r.Min, r.Max)
}

func (b *builder) addSearch(term string, extra []SearchField) {
	needle := strings.ToLower(term)
	pattern := "%" + escapeLike(term) + "%"

	clauses := []string{colName + ` ILIKE ?`, colDescription + ` ILIKE ?`}
	args := []any{pattern, pattern}
	for _, f := range extra {
		clauses = append(clauses, f.SQL+` ILIKE ?`)
		args = append(args, pattern)
	}

	b.add("search", strings.Join(clauses, " OR "), func(item catalog.ContentItem) bool {
		return searchTier(item, needle, extra) > 0
	}, args...)
}

func (c *Compiler) order(spec filter.Spec) Order {
	switch spec.SortBy {
	case filter.SortName:
		return Order{SQL: byName, cmp: compareName}
	case filter.SortNameDesc:
		return Order{SQL: colName + ` COLLATE "C" DESC, ` + colID + ` ASC`, cmp: func(a, b catalog.ContentItem) int {
			if n := strings.Compare(b.Name, a.Name); n != 0 {
				return n
			}
			return compareID(a, b)
		}}
	case filter.SortStimulation:
		return Order{SQL: colStimulation + ` ASC, ` + byName, cmp: func(a, b catalog.ContentItem) int {
			return then(compareInt(a.StimulationScore, b.StimulationScore), a, b)
		}}
	case filter.SortStimulationDesc:
		return Order{SQL: colStimulation + ` DESC, ` + byName, cmp: func(a, b catalog.ContentItem) int {
			return then(compareInt(b.StimulationScore, a.StimulationScore), a, b)
		}}
	case filter.SortAgeAsc:
		sql := `CASE WHEN ` + spanGuard + ` THEN ` + spanLow + ` END ASC NULLS LAST, ` +
			`CASE WHEN ` + spanGuard + ` THEN ` + spanHigh + ` END ASC NULLS LAST, ` + byName
		return Order{SQL: sql, cmp: func(a, b catalog.ContentItem) int {
			return then(compareSpan(a, b, false), a, b)
		}}
	case filter.SortAgeDesc:
		sql := `CASE WHEN ` + spanGuard + ` THEN ` + spanLow + ` END DESC NULLS LAST, ` +
			`CASE WHEN ` + spanGuard + ` THEN ` + spanHigh + ` END DESC NULLS LAST, ` + byName
		return Order{SQL: sql, cmp: func(a, b catalog.ContentItem) int {
			return then(compareSpan(a, b, true), a, b)
		}}
	case filter.SortPopular:
		return Order{SQL: colFeatured + ` DESC, ` + byName, cmp: func(a, b catalog.ContentItem) int {
			return then(compareBool(b.IsFeatured, a.IsFeatured), a, b)
		}}
	case filter.SortNewest:
		return Order{SQL: colReleaseYear + ` DESC NULLS LAST, ` + byName, cmp: func(a, b catalog.ContentItem) int {
			return then(compareYear(a, b, true), a, b)
		}}
	case filter.SortOldest:
		return Order{SQL: colReleaseYear + ` ASC NULLS LAST, ` + byName, cmp: func(a, b catalog.ContentItem) int {
			return then(compareYear(a, b, false), a, b)
		}}
	}

	if spec.HasSearch() {
		return c.tierOrder(spec.Search)
	}
	return Order{SQL: byName, cmp: compareName}
}

// tierOrder ranks search results: 1 exact name, 2 name prefix, 3 name contains,
// 4 description contains, 5 any other searchable field.
func (c *Compiler) tierOrder(term string) Order {
	needle := strings.ToLower(term)
	escaped := escapeLike(needle)
	sql := `CASE WHEN lower(` + colName + `) = ? THEN 1` +
		` WHEN lower(` + colName + `) LIKE ? THEN 2` +
		` WHEN lower(` + colName + `) LIKE ? THEN 3` +
		` WHEN lower(` + colDescription + `) LIKE ? THEN 4` +
		` ELSE 5 END ASC, ` + byName
	extra := c.searchFields
	return Order{
		SQL:  sql,
		Args: []any{needle, escaped + "%", "%" + escaped + "%", "%" + escaped + "%"},
		cmp: func(a, b catalog.ContentItem) int {
			return then(compareInt(searchTier(a, needle, extra), searchTier(b, needle, extra)), a, b)
		},
	}
}

// searchTier returns the rank of item for needle, or 0 when nothing matches.
func searchTier(item catalog.ContentItem, needle string, extra []SearchField) int {
	name := strings.ToLower(item.Name)
	switch {
	case name == needle:
		return 1
	case strings.HasPrefix(name, needle):
		return 2
	case strings.Contains(name, needle):
		return 3
	case strings.Contains(strings.ToLower(item.Description), needle):
		return 4
	}
	for _, f := range extra {
		if strings.Contains(strings.ToLower(f.Value(item)), needle) {
			return 5
		}
	}
	return 0
}

// ParseSpan decodes a "lo-hi" age range. ok is false for anything else.
func ParseSpan(s string) (lo, hi int, ok bool) {
	m := spanPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lo, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	hi, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func themeSet(item catalog.ContentItem) map[string]struct{} {
	set := make(map[string]struct{}, len(item.Themes))
	for _, t := range item.Themes {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func compareName(a, b catalog.ContentItem) int {
	if n := strings.Compare(a.Name, b.Name); n != 0 {
		return n
	}
	return compareID(a, b)
}

func compareID(a, b catalog.ContentItem) int {
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func then(primary int, a, b catalog.ContentItem) int {
	if primary != 0 {
		return primary
	}
	return compareName(a, b)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// compareSpan orders by low then high bound; items without a numeric span sort last in
// both directions.
func compareSpan(a, b catalog.ContentItem, desc bool) int {
	alo, ahi, aok := ParseSpan(a.AgeRange)
	blo, bhi, bok := ParseSpan(b.AgeRange)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	if desc {
		alo, blo, ahi, bhi = blo, alo, bhi, ahi
	}
	if n := compareInt(alo, blo); n != 0 {
		return n
	}
	return compareInt(ahi, bhi)
}

func compareYear(a, b catalog.ContentItem, desc bool) int {
	switch {
	case a.ReleaseYear == nil && b.ReleaseYear == nil:
		return 0
	case a.ReleaseYear == nil:
		return 1
	case b.ReleaseYear == nil:
		return -1
	}
	if desc {
		return compareInt(*b.ReleaseYear, *a.ReleaseYear)
	}
	return compareInt(*a.ReleaseYear, *b.ReleaseYear)
}
