// Package value provides the small typed values used as vertex pedigrees and
// property cells.
//
// A Value is a closed variant over integers, floats, strings and booleans. The
// zero Value is invalid and means "no value", which is how optional pedigrees
// are expressed.
package value

import (
	"math"
	"strconv"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents the absence of a value.
	KindInvalid Kind = iota
	// KindInt represents a signed integer value.
	KindInt
	// KindUint represents an unsigned integer value.
	KindUint
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a typed scalar.
//
// NOTE: Values travel inside wire messages; keep the field tags stable.
type Value struct {
	Kind Kind    `json:"k" msgpack:"k"`
	I64  int64   `json:"i,omitempty" msgpack:"i,omitempty"`
	U64  uint64  `json:"u,omitempty" msgpack:"u,omitempty"`
	F64  float64 `json:"f,omitempty" msgpack:"f,omitempty"`
	S    string  `json:"s,omitempty" msgpack:"s,omitempty"`
	B    bool    `json:"b,omitempty" msgpack:"b,omitempty"`
}

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Uint returns a uint64 Value.
func Uint(v uint64) Value { return Value{Kind: KindUint, U64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.Kind != KindInvalid }

// IsNumeric reports whether v is an integer or float.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindUint || v.Kind == KindFloat
}

// ToFloat64 converts a numeric value to float64.
func (v Value) ToFloat64() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I64), true
	case KindUint:
		return float64(v.U64), true
	case KindFloat:
		return v.F64, true
	default:
		return 0, false
	}
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsUint64 returns the uint64 value if Kind is KindUint.
func (v Value) AsUint64() (uint64, bool) {
	if v.Kind != KindUint {
		return 0, false
	}
	return v.U64, true
}

// AsFloat64 returns the float64 value if Kind is KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.F64, true
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.S, true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// Key returns a stable string representation for use in maps.
//
// Two values share a key only if they have the same kind and payload.
func (v Value) Key() string {
	switch v.Kind {
	case KindInt:
		return "i:" + strconv.FormatInt(v.I64, 10)
	case KindUint:
		return "u:" + strconv.FormatUint(v.U64, 10)
	case KindFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindString:
		return "s:" + v.S
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	default:
		return "invalid"
	}
}

// PedigreeKey returns the map key identifying v as a pedigree.
//
// Numeric kinds are keyed by their float64 bits, so Int(5), Uint(5) and
// Float(5) name the same vertex. Other kinds use Key.
func (v Value) PedigreeKey() string {
	if f, ok := v.ToFloat64(); ok {
		return "n:" + strconv.FormatUint(math.Float64bits(f), 16)
	}
	return v.Key()
}

// String formats the value for logs.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindUint:
		return strconv.FormatUint(v.U64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.S)
	case KindBool:
		return strconv.FormatBool(v.B)
	default:
		return "<invalid>"
	}
}

// Equal reports whether v and o have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.I64 == o.I64
	case KindUint:
		return v.U64 == o.U64
	case KindFloat:
		return math.Float64bits(v.F64) == math.Float64bits(o.F64)
	case KindString:
		return v.S == o.S
	case KindBool:
		return v.B == o.B
	default:
		return true
	}
}

