package cache

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// DefaultMaxSegmentLength is the longest argument segment kept verbatim. Longer segments
// are replaced by their xxhash digest.
const DefaultMaxSegmentLength = 128

type defaultKeySerializer struct {
	maxSegment int
}

// SerializerOption configures the default key serializer.
type SerializerOption func(*defaultKeySerializer)

// WithMaxSegmentLength overrides DefaultMaxSegmentLength. Zero or less disables digests.
func WithMaxSegmentLength(n int) SerializerOption {
	return func(s *defaultKeySerializer) {
		s.maxSegment = n
	}
}

// NewDefaultKeySerializer creates the default key serializer. Keys have the form
// method::arg1::arg2, so every key built for one method shares the method:: prefix.
func NewDefaultKeySerializer(opts ...SerializerOption) KeySerializer {
	s := &defaultKeySerializer{maxSegment: DefaultMaxSegmentLength}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *defaultKeySerializer) SerializeKey(method string, args ...any) string {
	if len(args) == 0 {
		return method
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, method)
	for _, arg := range args {
		parts = append(parts, s.digest(s.serializeValue(arg)))
	}
	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) digest(segment string) string {
	if s.maxSegment <= 0 || len(segment) <= s.maxSegment {
		return segment
	}
	return "h:" + strconv.FormatUint(xxhash.Sum64String(segment), 16)
}

func (s *defaultKeySerializer) serializeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return x
	case []string:
		return "[" + strings.Join(x, ",") + "]"
	case fmt.Stringer:
		return x.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = s.serializeValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ",") + "]"
	case reflect.Map:
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, s.serializeValue(iter.Key().Interface())+"="+s.serializeValue(iter.Value().Interface()))
		}
		sort.Strings(pairs)
		return "{" + strings.Join(pairs, ",") + "}"
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "type:" + reflect.TypeOf(v).String()
	}
	return string(data)
}
