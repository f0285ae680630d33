// Package coerce holds the field-level helpers the call-site post-processors share when they
// walk a repaired value: typed lookups with key aliases, numeric coercion from numbers or
// numeric strings, string list clamping, enum fallback and the ValidationError they raise.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
)

// ValidationError names a required field that is missing or cannot be converted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func Missing(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

func WrongType(field, want string, got jsonvalue.Value) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("must be %s, got %s", want, got.Kind())}
}

// Path joins a parent path and a key: Path("", "a") = "a", Path("a", "b") = "a.b".
func Path(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func Index(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// Lookup returns the first key present on obj with a non-null value.
func Lookup(obj jsonvalue.Value, keys ...string) (jsonvalue.Value, bool) {
	for _, k := range keys {
		if v, ok := obj.Get(k); ok && !v.IsNull() {
			return v, true
		}
	}
	return jsonvalue.Value{}, false
}

// RequireObject is for the top-level value handed to a post-processor.
func RequireObject(v jsonvalue.Value, field string) error {
	if v.Kind() != jsonvalue.KindObject {
		if field == "" {
			field = "$"
		}
		return WrongType(field, "an object", v)
	}
	return nil
}

// RequireString accepts empty strings; absence and null are both "missing".
func RequireString(obj jsonvalue.Value, parent, key string) (string, error) {
	field := Path(parent, key)
	v, ok := Lookup(obj, key)
	if !ok {
		return "", Missing(field)
	}
	s, ok := v.Str()
	if !ok {
		return "", WrongType(field, "a string", v)
	}
	return s, nil
}

// RequireArray returns the elements of obj[key], which may be empty.
func RequireArray(obj jsonvalue.Value, parent, key string) ([]jsonvalue.Value, error) {
	field := Path(parent, key)
	v, ok := Lookup(obj, key)
	if !ok {
		return nil, Missing(field)
	}
	items, ok := v.Array()
	if !ok {
		return nil, WrongType(field, "an array", v)
	}
	return items, nil
}

// OptionalString returns the trimmed string under the first matching key, or "" when absent,
// blank or not a string.
func OptionalString(obj jsonvalue.Value, keys ...string) string {
	v, ok := Lookup(obj, keys...)
	if !ok {
		return ""
	}
	s, _ := v.Str()
	return strings.TrimSpace(s)
}

// Number reads a finite number from a JSON number or a numeric string.
func Number(v jsonvalue.Value) (float64, bool) {
	var f float64
	switch v.Kind() {
	case jsonvalue.KindNumber:
		n, ok := v.Float()
		if !ok {
			return 0, false
		}
		f = n
	case jsonvalue.KindString:
		s, _ := v.Str()
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int rounds half away from zero.
func Int(v jsonvalue.Value) (int, bool) {
	f, ok := Number(v)
	if !ok {
		return 0, false
	}
	r := math.Round(f)
	if r > math.MaxInt32 || r < math.MinInt32 {
		return 0, false
	}
	return int(r), true
}

func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Strings keeps the non-blank string entries of an array, trimmed, up to limit (0 = no limit).
// Anything that is not an array yields an empty, non-nil slice.
func Strings(v jsonvalue.Value, limit int) []string {
	out := []string{}
	items, ok := v.Array()
	if !ok {
		return out
	}
	for _, item := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		s, ok := item.Str()
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Enum matches a string case-insensitively against allowed values, returning fallback on miss.
// aliases maps extra accepted inputs onto canonical values.
func Enum(v jsonvalue.Value, allowed []string, aliases map[string]string, fallback string) string {
	s, ok := v.Str()
	if !ok {
		return fallback
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if s == a {
			return a
		}
	}
	if canonical, ok := aliases[s]; ok {
		return canonical
	}
	return fallback
}

func ClampRunes(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max])
}
