// Package jsonvalue is an explicit tagged-union representation of decoded JSON.
//
// Model output is never trusted to match the shape a caller asked for, so post-processors
// walk a Value kind by kind instead of asserting map[string]any fields.
package jsonvalue

import (
	"encoding/json"
	"math"
	"strconv"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is immutable once built. The zero Value is JSON null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	s    string
	arr  []Value
	keys []string
	obj  map[string]Value
}

// Member is one key/value pair of an object, used by NewObject.
type Member struct {
	Key   string
	Value Value
}

func Pair(key string, v Value) Member { return Member{Key: key, Value: v} }

func NewNull() Value { return Value{} }

func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewNumber returns null for NaN and ±Inf, which JSON cannot represent.
func NewNumber(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

func NewInt(n int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(n, 10))}
}

func NewString(s string) Value { return Value{kind: KindString, s: s} }

func NewArray(items ...Value) Value {
	arr := make([]Value, len(items))
	copy(arr, items)
	return Value{kind: KindArray, arr: arr}
}

// NewObject keeps member order; a repeated key replaces the earlier value in place.
func NewObject(members ...Member) Value {
	v := Value{kind: KindObject, obj: make(map[string]Value, len(members))}
	for _, m := range members {
		v.set(m.Key, m.Value)
	}
	return v
}

func (v *Value) set(key string, child Value) {
	if _, exists := v.obj[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.obj[key] = child
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Number returns the literal number text as decoded.
func (v Value) Number() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.num, true
}

func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// Str is named to stay clear of fmt.Stringer; it only succeeds for string values.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Array returns the backing slice; callers must not modify it.
func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	child, ok := v.obj[key]
	return child, ok
}

func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Len is the element count for arrays, member count for objects, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.keys)
	default:
		return 0
	}
}

// Interface converts back to the encoding/json generic representation.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if f, err := v.num.Float64(); err == nil {
			return f
		}
		return v.num.String()
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.obj[k].Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal is deep equality; object member order is ignored and numbers compare by value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		a, errA := v.num.Float64()
		b, errB := o.num.Float64()
		if errA != nil || errB != nil {
			return v.num == o.num
		}
		return a == b
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.keys) != len(o.keys) {
			return false
		}
		for _, k := range v.keys {
			other, ok := o.obj[k]
			if !ok || !v.obj[k].Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders compact JSON, mainly for logs and test failure output.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<invalid>"
	}
	return string(b)
}
