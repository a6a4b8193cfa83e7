package filter

import (
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-facet-catalog/catalog"
)

var spanPattern = regexp.MustCompile(`^(\d+)-(\d+)$`)

// FromCategory translates a stored category definition into a Spec. The translation is
// total: rules with an unknown field, operator or value shape are skipped and returned
// as dropped so the caller can report them.
func FromCategory(c catalog.Category) (Spec, []catalog.CategoryRule) {
	mode := ParseMatchMode(c.Logic)
	var (
		themes      []string
		opts        []Option
		stimulation *Range
		dropped     []catalog.CategoryRule
	)

	for _, rule := range c.Rules {
		ok := true
		switch normalizeField(rule.Field) {
		case "themes", "theme":
			var values []string
			values, ok = themeValues(rule)
			themes = append(themes, values...)
		case "agegroup":
			var group string
			group, ok = stringValue(rule.Value)
			ok = ok && isEquality(rule.Operator)
			if ok {
				opts = append(opts, WithAgeGroup(group))
			}
		case "agerange", "age":
			var r Range
			r, ok = ageRangeValue(rule)
			if ok {
				opts = append(opts, WithAgeRange(r.Min, r.Max))
			}
		case "stimulationscore", "stimulation", "tantrumfactor":
			var r Range
			r, ok = stimulationValue(rule)
			if ok {
				stimulation = intersect(stimulation, r)
			}
		case "search", "name", "description":
			var term string
			term, ok = stringValue(rule.Value)
			ok = ok && normalizeOperator(rule.Operator) == "contains"
			if ok {
				opts = append(opts, WithSearch(term))
			}
		default:
			ok = false
		}
		if !ok {
			dropped = append(dropped, rule)
		}
	}

	if len(themes) > 0 {
		opts = append(opts, WithThemes(mode, themes...))
	}
	if stimulation != nil {
		opts = append(opts, WithStimulationRange(stimulation.Min, stimulation.Max))
	}
	if key := SortKey(c.SortBy); key.Valid() {
		opts = append(opts, WithSort(key))
	}
	return New(opts...), dropped
}

func normalizeField(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(f)
}

func normalizeOperator(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	switch op {
	case "=", "==", "eq", "equals", "is":
		return "eq"
	case "contains", "includes", "in", "any", "all", "has":
		return "contains"
	case "between", "overlaps", "range":
		return "between"
	case "<=", "lte", "max", "atmost":
		return "lte"
	case ">=", "gte", "min", "atleast":
		return "gte"
	case "<", "lt":
		return "lt"
	case ">", "gt":
		return "gt"
	}
	return op
}

func isEquality(op string) bool {
	return op == "" || normalizeOperator(op) == "eq"
}

func themeValues(rule catalog.CategoryRule) ([]string, bool) {
	switch normalizeOperator(rule.Operator) {
	case "contains", "eq", "":
	default:
		return nil, false
	}
	switch v := rule.Value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, false
		}
		return []string{v}, true
	case []string:
		return v, len(v) > 0
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, len(out) > 0
	}
	return nil, false
}

func ageRangeValue(rule catalog.CategoryRule) (Range, bool) {
	switch normalizeOperator(rule.Operator) {
	case "between", "eq", "":
	default:
		return Range{}, false
	}
	if s, ok := rule.Value.(string); ok {
		m := spanPattern.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			return Range{}, false
		}
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		return Range{Min: lo, Max: hi}, err1 == nil && err2 == nil
	}
	return rangeValue(rule.Value, Range{Min: MinAge, Max: MaxAge})
}

func stimulationValue(rule catalog.CategoryRule) (Range, bool) {
	bounds := stimulationBounds()
	op := normalizeOperator(rule.Operator)
	if op == "between" {
		return rangeValue(rule.Value, bounds)
	}
	n, ok := intValue(rule.Value)
	if !ok {
		return Range{}, false
	}
	switch op {
	case "eq", "":
		return Range{Min: n, Max: n}, true
	case "lte":
		return Range{Min: bounds.Min, Max: n}, true
	case "gte":
		return Range{Min: n, Max: bounds.Max}, true
	case "lt":
		return Range{Min: bounds.Min, Max: n - 1}, true
	case "gt":
		return Range{Min: n + 1, Max: bounds.Max}, true
	}
	return Range{}, false
}

// rangeValue accepts {"min","max"} maps and [min, max] pairs.
func rangeValue(v any, open Range) (Range, bool) {
	r := open
	switch val := v.(type) {
	case map[string]any:
		min, hasMin := val["min"]
		max, hasMax := val["max"]
		if !hasMin && !hasMax {
			return Range{}, false
		}
		if hasMin {
			n, ok := intValue(min)
			if !ok {
				return Range{}, false
			}
			r.Min = n
		}
		if hasMax {
			n, ok := intValue(max)
			if !ok {
				return Range{}, false
			}
			r.Max = n
		}
		return r, true
	case []any:
		if len(val) != 2 {
			return Range{}, false
		}
		lo, ok1 := intValue(val[0])
		hi, ok2 := intValue(val[1])
		return Range{Min: lo, Max: hi}, ok1 && ok2
	case Range:
		return val, true
	}
	return Range{}, false
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return intValue(float64(n))
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func intersect(cur *Range, r Range) *Range {
	if cur == nil {
		return &r
	}
	out := *cur
	if r.Min > out.Min {
		out.Min = r.Min
	}
	if r.Max < out.Max {
		out.Max = r.Max
	}
	return &out
}
