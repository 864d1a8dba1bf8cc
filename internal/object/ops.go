package object

import (
	"math"

	"github.com/oxhq/jsengine/internal/jsstring"
	"github.com/oxhq/jsengine/internal/value"
)

// Hint selects which method order ToPrimitive tries first.
type Hint uint8

const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

// ToPrimitive implements the abstract operation (spec §4.3): if v is
// already a primitive it is returned unchanged; otherwise its
// toString/valueOf methods (in an order depending on hint) are invoked
// via [[Get]] and [[Call]].
func ToPrimitive(v value.Value, hint Hint) (value.Value, error) {
	obj, ok := Wrap(v)
	if !ok {
		return v, nil
	}
	methodNames := []string{"valueOf", "toString"}
	if hint == HintString {
		methodNames = []string{"toString", "valueOf"}
	}
	for _, name := range methodNames {
		m, err := obj.Get(Key(name), v)
		if err != nil {
			return value.Undefined, err
		}
		fn, ok := Wrap(m)
		if !ok || !fn.IsCallable() {
			continue
		}
		result, err := fn.Call(v, nil)
		if err != nil {
			return value.Undefined, err
		}
		if !result.IsObject() {
			return result, nil
		}
	}
	return value.Undefined, TypeError("cannot convert object to primitive value")
}

// ToNumber implements the abstract operation, dispatching to
// ToPrimitive(HintNumber) for objects.
func ToNumber(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindUndefined:
		return value.Float(math.NaN()), nil
	case value.KindNull:
		return value.Int(0), nil
	case value.KindBoolean:
		if v.AsBool() {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.KindInteger, value.KindRational:
		return v, nil
	case value.KindString:
		return stringToNumber(v.AsString()), nil
	case value.KindObject:
		prim, err := ToPrimitive(v, HintNumber)
		if err != nil {
			return value.Undefined, err
		}
		return ToNumber(prim)
	default:
		return value.Float(math.NaN()), nil
	}
}

func stringToNumber(s *jsstring.String) value.Value {
	str := trimSpace(s.String())
	if str == "" {
		return value.Int(0)
	}
	f, err := parseFloatStrict(str)
	if err != nil {
		return value.Float(math.NaN())
	}
	return value.Number(f)
}

// ToString implements the abstract operation, dispatching to
// ToPrimitive(HintString) for objects.
func ToString(v value.Value) (*jsstring.String, error) {
	switch v.Kind() {
	case value.KindUndefined:
		return jsstring.New("undefined"), nil
	case value.KindNull:
		return jsstring.New("null"), nil
	case value.KindBoolean:
		if v.AsBool() {
			return jsstring.New("true"), nil
		}
		return jsstring.New("false"), nil
	case value.KindInteger:
		return jsstring.New(formatInt(v.AsInt32())), nil
	case value.KindRational:
		return jsstring.New(formatFloat(v.AsFloat64())), nil
	case value.KindString:
		return v.AsString(), nil
	case value.KindObject:
		prim, err := ToPrimitive(v, HintString)
		if err != nil {
			return nil, err
		}
		return ToString(prim)
	default:
		return jsstring.New(""), nil
	}
}

// ToObject implements the abstract operation for the common cases the
// core needs at call boundaries (`this` coercion in sloppy mode, etc.);
// wrapping primitive values in boxed Number/String/Boolean objects is a
// built-in concern and is supplied via the boxWrapper hook installed by
// the realm that owns those prototypes.
var boxWrapper func(v value.Value) (*Object, error)

// RegisterBoxWrapper installs the function used to box a primitive into
// its wrapper object (new Number(v), new String(v), ...). Installed by
// the realm/intrinsics layer, which owns the relevant prototypes.
func RegisterBoxWrapper(fn func(value.Value) (*Object, error)) {
	boxWrapper = fn
}

// ToObject converts v to an Object, boxing primitives via the
// registered box wrapper.
func ToObject(v value.Value) (*Object, error) {
	if obj, ok := Wrap(v); ok {
		return obj, nil
	}
	if v.IsNullOrUndefined() {
		return nil, TypeError("cannot convert undefined or null to object")
	}
	if boxWrapper == nil {
		return nil, TypeError("no object wrapper registered for primitive")
	}
	return boxWrapper(v)
}

// jsError is the minimal shape pkg/engine needs to recognise a thrown
// TypeError originating from the object model's abstract operations,
// without object importing the VM's full error machinery.
type jsError struct {
	kind string
	msg  string
}

func (e *jsError) Error() string { return e.kind + ": " + e.msg }

// Kind reports the error-kind string ("TypeError", "RangeError", ...).
func (e *jsError) Kind() string { return e.kind }

// TypeError builds the sentinel error internal methods return for
// spec-mandated TypeError conditions (calling a non-callable, strict
// writes to non-writable properties, etc.).
func TypeError(msg string) error { return &jsError{kind: "TypeError", msg: msg} }

// RangeError builds the sentinel error for out-of-range conditions.
func RangeError(msg string) error { return &jsError{kind: "RangeError", msg: msg} }

// ErrorKind extracts the kind string from an error built by TypeError/
// RangeError, or "" if err wasn't built that way.
func ErrorKind(err error) string {
	if e, ok := err.(*jsError); ok {
		return e.kind
	}
	return ""
}
