// Package value implements Value, the tagged sum type the VM operates on:
// undefined, null, boolean, two numeric representations (exact int32 vs.
// general float64), bigint, string, symbol, and object handle.
//
// Value deliberately does not import internal/object: Objects are stored
// as an opaque `any` (always a *object.Object in practice) so the two
// packages don't form an import cycle — object.Object needs to hold
// Values in its property storage, and value needs to hold objects.
// Package object supplies the typed accessors (object.Wrap,
// object.ToValue) that keep that boundary type-safe at the call site.
package value

import (
	"math"

	"github.com/oxhq/jsengine/internal/jsstring"
)

// Kind discriminates which alternative of the sum a Value holds.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindInteger  // exact int32, never -0
	KindRational // float64, used for NaN/Infinity/-0/non-integers/out-of-range integers
	KindBigInt
	KindString
	KindSymbol
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInteger, KindRational:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a small, comparable-by-field tagged union. The zero Value is
// Undefined.
type Value struct {
	kind Kind
	bits uint64 // bool / int32 / float64 bit pattern
	ptr  any    // *jsstring.String / *big.Int / Symbol handle / *object.Object
}

// Undefined is the canonical undefined value (also the zero Value).
var Undefined = Value{kind: KindUndefined}

// Null is the canonical null value.
var Null = Value{kind: KindNull}

// True and False are the canonical boolean values.
var (
	True  = Value{kind: KindBoolean, bits: 1}
	False = Value{kind: KindBoolean, bits: 0}
)

// Bool returns True or False per b.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Int returns an exact-integer Value. Per the spec's invariant, callers
// must not pass a value that represents -0; use Float(math.Copysign(0,
// -1)) for negative zero instead.
func Int(i int32) Value {
	return Value{kind: KindInteger, bits: uint64(uint32(i))}
}

// Float returns a Rational Value, used for NaN, +/-Infinity, -0, and any
// number that isn't an exact 32-bit signed integer.
func Float(f float64) Value {
	return Value{kind: KindRational, bits: math.Float64bits(f)}
}

// Number chooses Int vs Float automatically, preserving the spec's
// invariant: Integer iff the number is an exact int32 and not -0.
func Number(f float64) Value {
	if f == 0 && math.Signbit(f) {
		return Float(f)
	}
	if i := int32(f); float64(i) == f && !math.IsInf(f, 0) {
		return Int(i)
	}
	return Float(f)
}

// Str wraps a *jsstring.String.
func Str(s *jsstring.String) Value {
	return Value{kind: KindString, ptr: s}
}

// StrFromGo interns nothing; it simply constructs a String Value from a Go
// string, for convenience at call sites that don't already hold a
// *jsstring.String.
func StrFromGo(s string) Value {
	return Str(jsstring.New(s))
}

// FromObject wraps an object handle (always *object.Object at the
// package's actual use sites) as an Object Value. Exported for use by
// package object, which cannot be imported here.
func FromObject(obj any) Value {
	return Value{kind: KindObject, ptr: obj}
}

// FromSymbol wraps a symbol handle (an interner.Symbol or similar small
// handle type) as a Symbol Value.
func FromSymbol(sym any) Value {
	return Value{kind: KindSymbol, ptr: sym}
}

// FromBigInt wraps a *big.Int-like handle as a BigInt Value.
func FromBigInt(b any) Value {
	return Value{kind: KindBigInt, ptr: b}
}

// Kind reports which alternative this Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined, IsNull, ... report the Value's kind directly.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsNullOrUndefined() bool {
	return v.kind == KindUndefined || v.kind == KindNull
}
func (v Value) IsBoolean() bool { return v.kind == KindBoolean }
func (v Value) IsNumber() bool  { return v.kind == KindInteger || v.kind == KindRational }
func (v Value) IsInteger() bool { return v.kind == KindInteger }
func (v Value) IsString() bool  { return v.kind == KindString }
func (v Value) IsObject() bool  { return v.kind == KindObject }
func (v Value) IsSymbol() bool  { return v.kind == KindSymbol }
func (v Value) IsBigInt() bool  { return v.kind == KindBigInt }

// AsBool returns the boolean payload. Callers must check IsBoolean first.
func (v Value) AsBool() bool { return v.bits != 0 }

// AsInt32 returns the exact-integer payload. Callers must check
// IsInteger first.
func (v Value) AsInt32() int32 { return int32(uint32(v.bits)) }

// AsFloat64 returns the numeric payload as a float64 regardless of
// whether it's stored as Integer or Rational.
func (v Value) AsFloat64() float64 {
	if v.kind == KindInteger {
		return float64(v.AsInt32())
	}
	return math.Float64frombits(v.bits)
}

// AsString returns the *jsstring.String payload. Callers must check
// IsString first.
func (v Value) AsString() *jsstring.String { return v.ptr.(*jsstring.String) }

// AsObject returns the opaque object handle payload. Callers must check
// IsObject first; package object provides a typed Wrap on top of this.
func (v Value) AsObject() any { return v.ptr }

// AsSymbol returns the opaque symbol handle payload.
func (v Value) AsSymbol() any { return v.ptr }

// AsBigInt returns the opaque bigint handle payload.
func (v Value) AsBigInt() any { return v.ptr }
