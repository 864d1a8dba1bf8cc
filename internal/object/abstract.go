package object

import (
	"math"

	"github.com/oxhq/jsengine/internal/value"
)

// ToInt32 implements the abstract operation (spec §4.3): ToNumber then
// wrap into a signed 32-bit integer.
func ToInt32(v value.Value) (int32, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	f := n.AsFloat64()
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0, nil
	}
	return int32(uint32(int64(math.Trunc(f)))), nil
}

// ToUint32 implements the abstract operation (spec §4.3).
func ToUint32(v value.Value) (uint32, error) {
	i, err := ToInt32(v)
	if err != nil {
		return 0, err
	}
	return uint32(i), nil
}

// ToPropertyKey implements the abstract operation (spec §4.3): symbols
// pass through, everything else is coerced via ToString.
func ToPropertyKey(v value.Value) (PropertyKey, error) {
	if v.IsSymbol() {
		return SymbolKey(v.AsSymbol()), nil
	}
	s, err := ToString(v)
	if err != nil {
		return PropertyKey{}, err
	}
	return StringKey(s), nil
}

// Typeof implements the `typeof` operator (spec §4.7), the one place
// "function" is distinguished from "object".
func Typeof(v value.Value) string {
	switch v.Kind() {
	case value.KindUndefined:
		return "undefined"
	case value.KindNull:
		return "object"
	case value.KindBoolean:
		return "boolean"
	case value.KindInteger, value.KindRational:
		return "number"
	case value.KindBigInt:
		return "bigint"
	case value.KindString:
		return "string"
	case value.KindSymbol:
		return "symbol"
	case value.KindObject:
		if o, ok := Wrap(v); ok && o.IsCallable() {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

// Add implements the `+` operator (spec §4.7): string concatenation if
// either ToPrimitive'd operand is a string, numeric addition otherwise.
func Add(a, b value.Value) (value.Value, error) {
	pa, err := ToPrimitive(a, HintDefault)
	if err != nil {
		return value.Undefined, err
	}
	pb, err := ToPrimitive(b, HintDefault)
	if err != nil {
		return value.Undefined, err
	}
	if pa.IsString() || pb.IsString() {
		sa, err := ToString(pa)
		if err != nil {
			return value.Undefined, err
		}
		sb, err := ToString(pb)
		if err != nil {
			return value.Undefined, err
		}
		return value.Str(sa.Concat(sb)), nil
	}
	na, err := ToNumber(pa)
	if err != nil {
		return value.Undefined, err
	}
	nb, err := ToNumber(pb)
	if err != nil {
		return value.Undefined, err
	}
	return value.Number(na.AsFloat64() + nb.AsFloat64()), nil
}

// numericBinOp covers the remaining arithmetic operators, all of which
// always coerce both operands to Number (no string-concat special case).
func numericBinOp(a, b value.Value, op func(x, y float64) float64) (value.Value, error) {
	na, err := ToNumber(a)
	if err != nil {
		return value.Undefined, err
	}
	nb, err := ToNumber(b)
	if err != nil {
		return value.Undefined, err
	}
	return value.Number(op(na.AsFloat64(), nb.AsFloat64())), nil
}

func Sub(a, b value.Value) (value.Value, error) {
	return numericBinOp(a, b, func(x, y float64) float64 { return x - y })
}

func Mul(a, b value.Value) (value.Value, error) {
	return numericBinOp(a, b, func(x, y float64) float64 { return x * y })
}

func Div(a, b value.Value) (value.Value, error) {
	return numericBinOp(a, b, func(x, y float64) float64 { return x / y })
}

func Mod(a, b value.Value) (value.Value, error) {
	return numericBinOp(a, b, math.Mod)
}

func Exp(a, b value.Value) (value.Value, error) {
	return numericBinOp(a, b, math.Pow)
}

func bitwiseBinOp(a, b value.Value, op func(x, y int32) int32) (value.Value, error) {
	xa, err := ToInt32(a)
	if err != nil {
		return value.Undefined, err
	}
	xb, err := ToInt32(b)
	if err != nil {
		return value.Undefined, err
	}
	return value.Int(op(xa, xb)), nil
}

func BitAnd(a, b value.Value) (value.Value, error) {
	return bitwiseBinOp(a, b, func(x, y int32) int32 { return x & y })
}

func BitOr(a, b value.Value) (value.Value, error) {
	return bitwiseBinOp(a, b, func(x, y int32) int32 { return x | y })
}

func BitXor(a, b value.Value) (value.Value, error) {
	return bitwiseBinOp(a, b, func(x, y int32) int32 { return x ^ y })
}

func Shl(a, b value.Value) (value.Value, error) {
	xa, err := ToInt32(a)
	if err != nil {
		return value.Undefined, err
	}
	xb, err := ToUint32(b)
	if err != nil {
		return value.Undefined, err
	}
	return value.Int(xa << (xb & 31)), nil
}

func Shr(a, b value.Value) (value.Value, error) {
	xa, err := ToInt32(a)
	if err != nil {
		return value.Undefined, err
	}
	xb, err := ToUint32(b)
	if err != nil {
		return value.Undefined, err
	}
	return value.Int(xa >> (xb & 31)), nil
}

func UShr(a, b value.Value) (value.Value, error) {
	xa, err := ToUint32(a)
	if err != nil {
		return value.Undefined, err
	}
	xb, err := ToUint32(b)
	if err != nil {
		return value.Undefined, err
	}
	return value.Number(float64(xa >> (xb & 31))), nil
}

func BitNot(a value.Value) (value.Value, error) {
	xa, err := ToInt32(a)
	if err != nil {
		return value.Undefined, err
	}
	return value.Int(^xa), nil
}

func Neg(a value.Value) (value.Value, error) {
	n, err := ToNumber(a)
	if err != nil {
		return value.Undefined, err
	}
	return value.Number(-n.AsFloat64()), nil
}

// LessThan implements the abstract relational comparison (spec §4.7):
// string operands compare lexicographically by UTF-16 code unit, anything
// else compares numerically. A NaN operand makes the comparison
// undefined, which callers that need a boolean (< <= > >=) must treat as
// false.
func LessThan(a, b value.Value) (result value.Value, err error) {
	pa, err := ToPrimitive(a, HintNumber)
	if err != nil {
		return value.Undefined, err
	}
	pb, err := ToPrimitive(b, HintNumber)
	if err != nil {
		return value.Undefined, err
	}
	if pa.IsString() && pb.IsString() {
		sa, sb := pa.AsString(), pb.AsString()
		for i := 0; i < sa.Length() && i < sb.Length(); i++ {
			if ca, cb := sa.CharAt(i), sb.CharAt(i); ca != cb {
				return value.Bool(ca < cb), nil
			}
		}
		return value.Bool(sa.Length() < sb.Length()), nil
	}
	na, err := ToNumber(pa)
	if err != nil {
		return value.Undefined, err
	}
	nb, err := ToNumber(pb)
	if err != nil {
		return value.Undefined, err
	}
	fa, fb := na.AsFloat64(), nb.AsFloat64()
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return value.Undefined, nil
	}
	return value.Bool(fa < fb), nil
}

// LooseEquals implements the `==` algorithm (spec §4.7 Abstract Equality
// Comparison).
func LooseEquals(a, b value.Value) (bool, error) {
	if a.Kind() == b.Kind() || (a.IsNumber() && b.IsNumber()) {
		return value.StrictEquals(a, b), nil
	}
	if a.IsNullOrUndefined() && b.IsNullOrUndefined() {
		return true, nil
	}
	if a.IsNullOrUndefined() || b.IsNullOrUndefined() {
		return false, nil
	}
	if a.IsNumber() && b.IsString() {
		nb, err := ToNumber(b)
		if err != nil {
			return false, err
		}
		return value.StrictEquals(a, nb), nil
	}
	if a.IsString() && b.IsNumber() {
		na, err := ToNumber(a)
		if err != nil {
			return false, err
		}
		return value.StrictEquals(na, b), nil
	}
	if a.IsBoolean() {
		na, err := ToNumber(a)
		if err != nil {
			return false, err
		}
		return LooseEquals(na, b)
	}
	if b.IsBoolean() {
		nb, err := ToNumber(b)
		if err != nil {
			return false, err
		}
		return LooseEquals(a, nb)
	}
	if (a.IsNumber() || a.IsString() || a.IsBigInt()) && b.IsObject() {
		pb, err := ToPrimitive(b, HintDefault)
		if err != nil {
			return false, err
		}
		return LooseEquals(a, pb)
	}
	if a.IsObject() && (b.IsNumber() || b.IsString() || b.IsBigInt()) {
		pa, err := ToPrimitive(a, HintDefault)
		if err != nil {
			return false, err
		}
		return LooseEquals(pa, b)
	}
	return false, nil
}

// HasProperty implements [[HasProperty]]: own property or anywhere on the
// prototype chain.
func HasProperty(o *Object, key PropertyKey) bool {
	for cur := o; cur != nil; cur = cur.Prototype() {
		if cur.HasOwnProperty(key) {
			return true
		}
	}
	return false
}

// OrdinaryHasInstance implements the default `instanceof` algorithm
// (spec §4.7): walk v's prototype chain looking for ctor's "prototype"
// property.
func OrdinaryHasInstance(ctor *Object, v value.Value) (bool, error) {
	if !ctor.IsCallable() {
		return false, TypeError("right-hand side of instanceof is not callable")
	}
	obj, ok := Wrap(v)
	if !ok {
		return false, nil
	}
	protoVal, err := ctor.Get(Key("prototype"), value.FromObject(ctor))
	if err != nil {
		return false, err
	}
	proto, ok := Wrap(protoVal)
	if !ok {
		return false, TypeError("instanceof right-hand side has non-object prototype")
	}
	for p := obj.Prototype(); p != nil; p = p.Prototype() {
		if p == proto {
			return true, nil
		}
	}
	return false, nil
}
