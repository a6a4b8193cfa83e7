// Package query compiles a filter.Spec into an ordered set of parameterized predicates,
// a sort clause and a pagination clause.
//
// A compiled Query carries two renderings of the same semantics: SQL fragments with ?
// placeholders for PostgreSQL (see store/bunstore) and in-memory matchers used by
// Query.Apply (see store/memstore). Predicates are accumulated independently and rendered
// once, so argument order always follows predicate order.
package query

import (
	"sort"
	"strings"

	"github.com/goliatone/go-facet-catalog/catalog"
)

// Predicate is one boolean condition with its bound parameters.
type Predicate struct {
	Name  string
	SQL   string
	Args  []any
	match func(catalog.ContentItem) bool
}

// Matches evaluates the predicate against item in memory.
func (p Predicate) Matches(item catalog.ContentItem) bool {
	return p.match(item)
}

// Order is the single sort expression of a query.
type Order struct {
	SQL  string
	Args []any
	cmp  func(a, b catalog.ContentItem) int
}

// Compare orders two items the way the SQL expression does.
func (o Order) Compare(a, b catalog.ContentItem) int {
	return o.cmp(a, b)
}

// Page is the pagination clause. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Query is the compiled form of a filter.Spec.
type Query struct {
	Predicates []Predicate
	Order      Order
	Page       *Page
}

// Where renders the predicates joined by AND. It returns "1=1" when no predicate is
// active.
func (q Query) Where() (string, []any) {
	if len(q.Predicates) == 0 {
		return "1=1", []any{}
	}
	clauses := make([]string, len(q.Predicates))
	args := []any{}
	for i, p := range q.Predicates {
		clauses[i] = "(" + p.SQL + ")"
		args = append(args, p.Args...)
	}
	return strings.Join(clauses, " AND "), args
}

// Matches reports whether item satisfies every predicate.
func (q Query) Matches(item catalog.ContentItem) bool {
	for _, p := range q.Predicates {
		if !p.Matches(item) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and paginates items in that order. The input is not modified.
func (q Query) Apply(items []catalog.ContentItem) []catalog.ContentItem {
	out := make([]catalog.ContentItem, 0, len(items))
	for _, item := range items {
		if q.Matches(item) {
			out = append(out, item)
		}
	}

	if q.Order.cmp != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return q.Order.cmp(out[i], out[j]) < 0
		})
	}

	if q.Page == nil {
		return out
	}
	if q.Page.Offset >= len(out) {
		return []catalog.ContentItem{}
	}
	out = out[q.Page.Offset:]
	if q.Page.Limit > 0 && q.Page.Limit < len(out) {
		out = out[:q.Page.Limit]
	}
	return out
}
