// Package value holds the tagged union used for schema node values.
//
// A Value is one of Null, Bool, Number, String, Array or Object. The set is
// sealed: only types in this package implement Value, so type switches over
// it can be checked for exhaustiveness by linters.
package value

import (
	"sort"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
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

// Value is a sealed interface over JSON-like values.
type Value interface {
	Kind() Kind
	sealed()
}

// Null is the JSON null value.
type Null struct{}

// Bool is a JSON boolean.
type Bool bool

// Number is a JSON number.
type Number float64

// String is a JSON string.
type String string

// Array is an ordered list of values.
type Array []Value

// Object maps member names to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind  { return KindArray }
func (Object) Kind() Kind { return KindObject }

func (Null) sealed()   {}
func (Bool) sealed()   {}
func (Number) sealed() {}
func (String) sealed() {}
func (Array) sealed()  {}
func (Object) sealed() {}

// SortedKeys returns the member names in byte order.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the member named key, if present.
func (o Object) Get(key string) (Value, bool) {
	v, ok := o[key]
	return v, ok
}

// AsObject returns v as an Object when it holds one.
func AsObject(v Value) (Object, bool) {
	o, ok := v.(Object)
	return o, ok
}

// IsEmpty reports whether v carries no meaningful content: nil, null, the
// empty string, an empty array or an empty object. Booleans and numbers are
// never empty.
func IsEmpty(v Value) bool {
	switch x := v.(type) {
	case nil, Null:
		return true
	case String:
		return x == ""
	case Array:
		return len(x) == 0
	case Object:
		return len(x) == 0
	default:
		return false
	}
}

// Equal reports deep equality of two values.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case Bool:
		return x == b.(Bool)
	case Number:
		return x == b.(Number)
	case String:
		return x == b.(String)
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y := b.(Object)
		if len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Text renders scalar values as plain text. Arrays and objects render as
// their kind name.
func Text(v Value) string {
	switch x := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return strconv.FormatBool(bool(x))
	case Number:
		return strconv.FormatFloat(float64(x), 'f', -1, 64)
	case String:
		return string(x)
	default:
		return v.Kind().String()
	}
}
