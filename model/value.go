package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindArray represents an array value.
	KindArray
	// KindMap represents a nested key/value map.
	KindMap
)

// Value is a small typed value used for entity metadata documents.
//
// Free-form metadata arrives as arbitrary JSON; modeling it as a tagged
// union instead of map[string]any keeps filtering predictable (no
// reflection, no fmt-based stringification) and guarantees round-trip
// fidelity through the codec.
//
// NOTE: This is also used for persistence; keep it stable.
type Value struct {
	Kind Kind             `json:"k"`
	I64  int64            `json:"i,omitempty"`
	F64  float64          `json:"f,omitempty"`
	S    string           `json:"s,omitempty"`
	B    bool             `json:"b,omitempty"`
	A    []Value          `json:"a,omitempty"`
	M    map[string]Value `json:"m,omitempty"`
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an integer Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Array returns an array Value.
func Array(vs ...Value) Value { return Value{Kind: KindArray, A: vs} }

// Map returns a map Value.
func Map(m map[string]Value) Value { return Value{Kind: KindMap, M: m} }

// FromAny converts a decoded JSON value (as produced by encoding/json
// into any) to a Value. Unsupported types map to null.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float64:
		// JSON numbers decode as float64; preserve integral values as ints.
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < 1<<53 {
			return Int(int64(t))
		}
		return Float(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = FromAny(e)
		}
		return Value{Kind: KindArray, A: arr}
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromAny(e)
		}
		return Map(m)
	default:
		return Null()
	}
}

// ToAny converts the Value back to the plain-Go shape encoding/json would
// produce. FromAny and ToAny are inverses up to int/float normalization.
func (v Value) ToAny() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindInt:
		return v.I64
	case KindFloat:
		return v.F64
	case KindString:
		return v.S
	case KindBool:
		return v.B
	case KindArray:
		arr := make([]any, len(v.A))
		for i := range v.A {
			arr[i] = v.A[i].ToAny()
		}
		return arr
	case KindMap:
		m := make(map[string]any, len(v.M))
		for k := range v.M {
			m[k] = v.M[k].ToAny()
		}
		return m
	default:
		return nil
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.I64 == o.I64
	case KindFloat:
		return v.F64 == o.F64
	case KindString:
		return v.S == o.S
	case KindBool:
		return v.B == o.B
	case KindArray:
		if len(v.A) != len(o.A) {
			return false
		}
		for i := range v.A {
			if !v.A[i].Equal(o.A[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.M) != len(o.M) {
			return false
		}
		for k := range v.M {
			ov, ok := o.M[k]
			if !ok || !v.M[k].Equal(ov) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Key returns a stable string representation for use in maps.
//
// It is intended for internal indexing and must remain stable across
// versions for persisted metadata usage.
func (v Value) Key() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return "i:" + strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindString:
		return "s:" + v.S
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case KindArray:
		parts := make([]string, len(v.A))
		for i := range v.A {
			parts[i] = v.A[i].Key()
		}
		return "a:" + strings.Join(parts, "\x1f")
	case KindMap:
		keys := make([]string, 0, len(v.M))
		for k := range v.M {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + v.M[k].Key()
		}
		return "m:" + strings.Join(parts, "\x1f")
	default:
		return "invalid"
	}
}

// String implements fmt.Stringer for diagnostics.
func (v Value) String() string {
	b, err := json.Marshal(v.ToAny())
	if err != nil {
		return fmt.Sprintf("value(kind=%d)", v.Kind)
	}
	return string(b)
}
