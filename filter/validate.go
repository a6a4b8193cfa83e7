package filter

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	json "github.com/goccy/go-json"
)

// MaxLimit caps the page size a client may request.
const MaxLimit = 500

// Raw is the loosely typed filter input as it arrives from the request surface.
type Raw struct {
	Search                string   `json:"search"`
	AgeGroup              string   `json:"ageGroup"`
	AgeRange              string   `json:"ageRange"`
	StimulationScoreRange string   `json:"stimulationScoreRange"`
	TantrumFactor         string   `json:"tantrumFactor"`
	Themes                []string `json:"themes"`
	ThemeMatchMode        string   `json:"themeMatchMode"`
	SortBy                string   `json:"sortBy"`
	Limit                 string   `json:"limit"`
	Offset                string   `json:"offset"`
}

// FromValues collects the filter parameters from a query string. Themes may be given as
// repeated values, a JSON array or a comma separated list.
func FromValues(v url.Values) Raw {
	raw := Raw{
		Search:                v.Get("search"),
		AgeGroup:              v.Get("ageGroup"),
		AgeRange:              v.Get("ageRange"),
		StimulationScoreRange: v.Get("stimulationScoreRange"),
		TantrumFactor:         v.Get("tantrumFactor"),
		ThemeMatchMode:        v.Get("themeMatchMode"),
		SortBy:                v.Get("sortBy"),
		Limit:                 v.Get("limit"),
		Offset:                v.Get("offset"),
	}
	values := append(append([]string(nil), v["themes"]...), v["themes[]"]...)
	for _, value := range values {
		raw.Themes = append(raw.Themes, splitThemes(value)...)
	}
	return raw
}

func splitThemes(value string) []string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "[") {
		var list []string
		if err := json.Unmarshal([]byte(value), &list); err == nil {
			return list
		}
	}
	return strings.Split(value, ",")
}

// Validate checks the raw input without building a Spec.
func (r Raw) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AgeRange, validation.By(rangeJSON)),
		validation.Field(&r.StimulationScoreRange, validation.By(rangeJSON)),
		validation.Field(&r.TantrumFactor, validation.By(rangeJSON)),
		validation.Field(&r.SortBy, validation.In(sortKeyValues()...).Error("must be a known sort key")),
		validation.Field(&r.Limit, is.Digit, validation.By(maxInt(MaxLimit))),
		validation.Field(&r.Offset, is.Digit, validation.By(maxInt(math.MaxInt32))),
	)
}

// ValidationError reports rejected filter input. It is a client error.
type ValidationError struct {
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	return "invalid filter: " + e.Errors.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Errors
}

// Parse validates raw and produces the canonical Spec.
func Parse(raw Raw) (Spec, error) {
	if err := raw.Validate(); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return Spec{}, &ValidationError{Errors: verrs}
		}
		return Spec{}, err
	}

	opts := []Option{
		WithAgeGroup(raw.AgeGroup),
		WithSearch(raw.Search),
		WithSort(SortKey(raw.SortBy)),
		WithThemes(ParseMatchMode(raw.ThemeMatchMode), raw.Themes...),
	}

	if raw.AgeRange != "" {
		r, _ := decodeRange(raw.AgeRange, Range{Min: MinAge, Max: MaxAge})
		opts = append(opts, WithAgeRange(r.Min, r.Max))
	}

	stimulation := raw.StimulationScoreRange
	if stimulation == "" {
		stimulation = raw.TantrumFactor
	}
	if stimulation != "" {
		r, _ := decodeRange(stimulation, stimulationBounds())
		opts = append(opts, WithStimulationRange(r.Min, r.Max))
	}

	limit, err := atoiOrZero(raw.Limit)
	if err != nil {
		return Spec{}, &ValidationError{Errors: validation.Errors{"limit": err}}
	}
	offset, err := atoiOrZero(raw.Offset)
	if err != nil {
		return Spec{}, &ValidationError{Errors: validation.Errors{"offset": err}}
	}
	opts = append(opts, WithPage(limit, offset))

	return New(opts...), nil
}

type rangeInput struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// decodeRange parses {"min":n,"max":n}; a missing side takes the matching bound of open.
func decodeRange(s string, open Range) (Range, error) {
	var in rangeInput
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return Range{}, err
	}
	r := open
	if in.Min != nil {
		r.Min = *in.Min
	}
	if in.Max != nil {
		r.Max = *in.Max
	}
	return r, nil
}

func rangeJSON(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := decodeRange(s, Range{}); err != nil {
		return errors.New(`must be a JSON object {"min":n,"max":n}`)
	}
	return nil
}

func maxInt(max int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		n, err := atoiOrZero(s)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return fmt.Errorf("must be no greater than %d", max)
			}
			return errors.New("must be an integer")
		}
		if n > max {
			return fmt.Errorf("must be no greater than %d", max)
		}
		return nil
	}
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func sortKeyValues() []any {
	out := make([]any, len(SortKeys))
	for i, k := range SortKeys {
		out[i] = string(k)
	}
	return out
}
