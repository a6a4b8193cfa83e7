// Package facet computes which theme values are worth offering next for a partial theme
// selection, based on co-occurrence in the matched item population.
package facet

import (
	"sort"
	"strings"

	"github.com/goliatone/go-facet-catalog/catalog"
	"github.com/goliatone/go-facet-catalog/filter"
)

// Context is the derived facet state for one selection. It is never persisted.
type Context struct {
	Selected   []string         `json:"selected"`
	Mode       filter.MatchMode `json:"matchMode"`
	Candidates []string         `json:"candidateThemes"`
}

// Recompute derives the Context for selected and mode over population.
func Recompute(population []catalog.ContentItem, selected []string, mode filter.MatchMode) Context {
	if mode != filter.MatchAny {
		mode = filter.MatchAll
	}
	sel := make([]string, 0, len(selected))
	sel = append(sel, selected...)
	return Context{
		Selected:   sel,
		Mode:       mode,
		Candidates: Candidates(population, selected, mode),
	}
}

// Candidates returns the theme values to offer next. Matching is case-insensitive; the
// returned labels use the first spelling found in population order.
//
// Without a selection every distinct theme is returned alphabetically. Under MatchAny the
// result is every distinct theme except the selected ones. Under MatchAll only items
// carrying every selected theme are considered, and the remaining themes are ordered by
// the number of those items they appear on, most frequent first.
func Candidates(population []catalog.ContentItem, selected []string, mode filter.MatchMode) []string {
	labels := displayLabels(population)
	excluded := lowerSet(selected)

	if len(excluded) == 0 {
		return alphabetical(labels, nil)
	}
	if mode == filter.MatchAny {
		return alphabetical(labels, excluded)
	}

	counts := map[string]int{}
	for _, item := range population {
		themes := itemThemes(item)
		if !containsAll(themes, excluded) {
			continue
		}
		for key := range themes {
			if _, skip := excluded[key]; !skip {
				counts[key]++
			}
		}
	}

	out := make([]string, 0, len(counts))
	for key := range counts {
		out = append(out, labels[key])
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := counts[strings.ToLower(out[i])], counts[strings.ToLower(out[j])]
		if ci != cj {
			return ci > cj
		}
		return labelLess(out[i], out[j])
	})
	return out
}

// displayLabels maps each lower-cased theme to its first stored spelling.
func displayLabels(population []catalog.ContentItem) map[string]string {
	labels := map[string]string{}
	for _, item := range population {
		for _, t := range item.Themes {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			key := strings.ToLower(t)
			if _, ok := labels[key]; !ok {
				labels[key] = t
			}
		}
	}
	return labels
}

func alphabetical(labels map[string]string, excluded map[string]struct{}) []string {
	out := make([]string, 0, len(labels))
	for key, label := range labels {
		if _, skip := excluded[key]; skip {
			continue
		}
		out = append(out, label)
	}
	sort.Slice(out, func(i, j int) bool { return labelLess(out[i], out[j]) })
	return out
}

func labelLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func itemThemes(item catalog.ContentItem) map[string]struct{} {
	set := make(map[string]struct{}, len(item.Themes))
	for _, t := range item.Themes {
		if t = strings.TrimSpace(t); t != "" {
			set[strings.ToLower(t)] = struct{}{}
		}
	}
	return set
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[strings.ToLower(v)] = struct{}{}
		}
	}
	return set
}

func containsAll(set, want map[string]struct{}) bool {
	for key := range want {
		if _, ok := set[key]; !ok {
			return false
		}
	}
	return true
}
