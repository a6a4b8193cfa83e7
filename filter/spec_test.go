package filter

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
)

func TestCacheKey_ThemeOrderAndCaseIndependent(t *testing.T) {
	a := New(WithThemes(MatchAll, "Music", "Adventure"))
	b := New(WithThemes(MatchAll, "adventure", "MUSIC"))

	if a.CacheKey() != b.CacheKey() {
		t.Fatalf("expected equal keys, got %q and %q", a.CacheKey(), b.CacheKey())
	}

	if !reflect.DeepEqual(a.Themes, []string{"Music", "Adventure"}) {
		t.Errorf("display order should be preserved, got %v", a.Themes)
	}
}

func TestCacheKey_DistinguishesFields(t *testing.T) {
	base := New(WithThemes(MatchAll, "Music"))
	variants := []Spec{
		New(WithThemes(MatchAny, "Music")),
		New(WithThemes(MatchAll, "Music"), WithSearch("bluey")),
		New(WithThemes(MatchAll, "Music"), WithAgeRange(3, 5)),
		New(WithThemes(MatchAll, "Music"), WithStimulationRange(1, 2)),
		New(WithThemes(MatchAll, "Music"), WithSort(SortNewest)),
		New(WithThemes(MatchAll, "Music"), WithPage(10, 0)),
		New(WithThemes(MatchAll, "Music"), WithAgeGroup("Toddler")),
	}

	for i, v := range variants {
		if v.CacheKey() == base.CacheKey() {
			t.Errorf("variant %d produced the base key %q", i, v.CacheKey())
		}
	}
}

func TestCacheKey_ModeIgnoredWithoutThemes(t *testing.T) {
	a := New(WithThemes(MatchAll))
	b := New(WithThemes(MatchAny))
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("match mode without themes should not change the key")
	}
}

func TestNew_NormalizesThemes(t *testing.T) {
	s := New(WithThemes(MatchAll, " Music ", "", "music", "Adventure"))
	want := []string{"Music", "Adventure"}
	if !reflect.DeepEqual(s.Themes, want) {
		t.Errorf("Themes = %v, want %v", s.Themes, want)
	}
	if got := s.CanonicalThemes(); !reflect.DeepEqual(got, []string{"adventure", "music"}) {
		t.Errorf("CanonicalThemes = %v", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		check   func(t *testing.T, s Spec)
		wantErr bool
	}{
		{
			name:   "defaults",
			values: url.Values{},
			check: func(t *testing.T, s Spec) {
				if s.ThemeMatchMode != MatchAll {
					t.Errorf("mode = %q, want AND", s.ThemeMatchMode)
				}
				if s.HasSearch() || s.HasThemes() || s.AgeRange != nil || s.StimulationRange != nil {
					t.Errorf("expected empty spec, got %+v", s)
				}
			},
		},
		{
			name:   "unrecognized match mode falls back to AND",
			values: url.Values{"themeMatchMode": {"XOR"}, "themes": {"Music"}},
			check: func(t *testing.T, s Spec) {
				if s.ThemeMatchMode != MatchAll {
					t.Errorf("mode = %q, want AND", s.ThemeMatchMode)
				}
			},
		},
		{
			name:   "or mode is case insensitive",
			values: url.Values{"themeMatchMode": {"or"}, "themes": {"Music"}},
			check: func(t *testing.T, s Spec) {
				if s.ThemeMatchMode != MatchAny {
					t.Errorf("mode = %q, want OR", s.ThemeMatchMode)
				}
			},
		},
		{
			name:   "themes as repeated values, JSON array and comma list",
			values: url.Values{"themes": {"Music", `["Adventure","Fantasy"]`, "Science,Nature"}},
			check: func(t *testing.T, s Spec) {
				want := []string{"Music", "Adventure", "Fantasy", "Science", "Nature"}
				if !reflect.DeepEqual(s.Themes, want) {
					t.Errorf("Themes = %v, want %v", s.Themes, want)
				}
			},
		},
		{
			name:   "search trimmed and empty treated as absent",
			values: url.Values{"search": {"   "}},
			check: func(t *testing.T, s Spec) {
				if s.HasSearch() {
					t.Errorf("expected no search, got %q", s.Search)
				}
			},
		},
		{
			name:   "inverted range accepted",
			values: url.Values{"ageRange": {`{"min":8,"max":3}`}},
			check: func(t *testing.T, s Spec) {
				if s.AgeRange == nil || s.AgeRange.Min != 8 || s.AgeRange.Max != 3 {
					t.Errorf("AgeRange = %+v", s.AgeRange)
				}
			},
		},
		{
			name:   "missing range side takes open bound",
			values: url.Values{"stimulationScoreRange": {`{"max":3}`}},
			check: func(t *testing.T, s Spec) {
				if s.StimulationRange == nil || s.StimulationRange.Min != 1 || s.StimulationRange.Max != 3 {
					t.Errorf("StimulationRange = %+v", s.StimulationRange)
				}
			},
		},
		{
			name:   "tantrumFactor aliases stimulation range",
			values: url.Values{"tantrumFactor": {`{"min":2,"max":4}`}},
			check: func(t *testing.T, s Spec) {
				if s.StimulationRange == nil || s.StimulationRange.Min != 2 || s.StimulationRange.Max != 4 {
					t.Errorf("StimulationRange = %+v", s.StimulationRange)
				}
			},
		},
		{
			name:   "pagination",
			values: url.Values{"limit": {"20"}, "offset": {"40"}, "sortBy": {"newest"}},
			check: func(t *testing.T, s Spec) {
				if s.Limit != 20 || s.Offset != 40 || s.SortBy != SortNewest {
					t.Errorf("got %+v", s)
				}
			},
		},
		{name: "malformed range JSON", values: url.Values{"ageRange": {"3-5"}}, wantErr: true},
		{name: "unknown sort key", values: url.Values{"sortBy": {"rating"}}, wantErr: true},
		{name: "negative limit", values: url.Values{"limit": {"-1"}}, wantErr: true},
		{name: "limit above max", values: url.Values{"limit": {"1000"}}, wantErr: true},
		{name: "non numeric offset", values: url.Values{"offset": {"abc"}}, wantErr: true},
		{name: "limit overflowing int", values: url.Values{"limit": {"99999999999999999999"}}, wantErr: true},
		{name: "offset overflowing int", values: url.Values{"offset": {"99999999999999999999"}}, wantErr: true},
		{name: "offset above int32", values: url.Values{"offset": {"4294967296"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(FromValues(tt.values))
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, s)
		})
	}
}

func TestParse_SameInputSameKey(t *testing.T) {
	a, err := Parse(FromValues(url.Values{"themes": {"Music", "Adventure"}, "search": {" bluey "}}))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse(FromValues(url.Values{"themes": {"adventure", "music"}, "search": {"bluey"}}))
	if err != nil {
		t.Fatal(err)
	}
	if a.CacheKey() != b.CacheKey() {
		t.Errorf("keys differ: %q vs %q", a.CacheKey(), b.CacheKey())
	}
}

func TestParse_OverflowingPage(t *testing.T) {
	for _, field := range []string{"limit", "offset"} {
		_, err := Parse(FromValues(url.Values{field: {"99999999999999999999"}}))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected *ValidationError, got %v", field, err)
		}
		if _, ok := verr.Errors[field]; !ok {
			t.Errorf("%s: error not reported on the field: %v", field, verr.Errors)
		}
	}
}
