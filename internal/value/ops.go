package value

import "math"

// ToBoolean implements the abstract operation of the same name for every
// Value kind; objects are always truthy, so no dispatch into the object
// model is needed.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.AsBool()
	case KindInteger:
		return v.AsInt32() != 0
	case KindRational:
		f := v.AsFloat64()
		return f != 0 && !math.IsNaN(f)
	case KindString:
		return v.AsString().Length() > 0
	case KindBigInt, KindSymbol, KindObject:
		return true
	default:
		return false
	}
}

// StrictEquals implements the `===` algorithm: no coercion, NaN is never
// equal to itself, and +0/-0 compare equal (testable property 3).
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		// Integer and Rational are both "number" for this purpose.
		if a.IsNumber() && b.IsNumber() {
			return numEquals(a, b)
		}
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return a.bits == b.bits
	case KindInteger, KindRational:
		return numEquals(a, b)
	case KindString:
		return a.AsString().Equal(b.AsString())
	case KindObject:
		return sameObjectHandle(a.ptr, b.ptr)
	case KindSymbol:
		return a.ptr == b.ptr
	case KindBigInt:
		return bigIntEquals(a.ptr, b.ptr)
	default:
		return false
	}
}

func numEquals(a, b Value) bool {
	af, bf := a.AsFloat64(), b.AsFloat64()
	if math.IsNaN(af) || math.IsNaN(bf) {
		return false
	}
	return af == bf
}

// SameValue implements the SameValue algorithm: like StrictEquals except
// NaN is equal to itself and +0 is distinct from -0.
func SameValue(a, b Value) bool {
	if a.kind != b.kind && !(a.IsNumber() && b.IsNumber()) {
		return false
	}
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		if af == 0 && bf == 0 {
			return math.Signbit(af) == math.Signbit(bf)
		}
		return af == bf
	}
	return StrictEquals(a, b)
}

// SameValueZero is SameValue except +0 and -0 compare equal, matching its
// use in Array.prototype.includes, Map/Set key comparison, etc.
func SameValueZero(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return af == bf
	}
	return StrictEquals(a, b)
}

// sameObjectHandle compares two opaque object handles for identity. It is
// a package-level var so package object can install a real comparator
// (pointer equality on *object.Object) without value importing object.
var sameObjectHandle = func(a, b any) bool { return a == b }

// bigIntEquals compares two opaque bigint handles by value. Installed by
// whichever package owns the concrete bigint representation.
var bigIntEquals = func(a, b any) bool { return a == b }

// RegisterObjectComparator installs the identity comparator used by
// StrictEquals/SameValue for Object-kind Values. Package object calls
// this from an init() so value never needs to import object directly.
func RegisterObjectComparator(cmp func(a, b any) bool) {
	sameObjectHandle = cmp
}

// RegisterBigIntComparator installs the value comparator used by
// StrictEquals/SameValue for BigInt-kind Values.
func RegisterBigIntComparator(cmp func(a, b any) bool) {
	bigIntEquals = cmp
}
