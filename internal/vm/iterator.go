package vm

import (
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/value"
)

// iterKind discriminates which of the iteration protocol's several
// sources an Iterator was built over (spec §4.9 Iteration protocol).
type iterKind uint8

const (
	iterArray   iterKind = iota // dense array-kind object, indexed directly
	iterString                  // UTF-16 code units of a string, one per step
	iterKeys                    // own enumerable string keys, the for-in fallback
	iterGeneric                 // an object exposing a callable "next" (includes generators)
)

// Iterator is the VM's internal iterator record, wrapped in an *object.Object
// (via wrapIterator) so it can live in an ordinary register alongside every
// other Value.
type Iterator struct {
	kind   iterKind
	source *object.Object // iterArray: the array; iterGeneric: the object to call next()/return()/throw() on
	idx    int
	keys   []object.PropertyKey // iterKeys
	units  []uint16             // iterString
}

// wrapIterator boxes it as a Value so OpGetIterator can write it into a
// register.
func (m *Machine) wrapIterator(it *Iterator) value.Value {
	obj := object.New(m.Shapes.RootFor(nil))
	obj.SetHost(it)
	return value.FromObject(m.Own(obj))
}

// unwrapIterator recovers the Iterator boxed by wrapIterator.
func unwrapIterator(v value.Value) (*Iterator, bool) {
	obj, ok := object.Wrap(v)
	if !ok {
		return nil, false
	}
	it, ok := obj.Host().(*Iterator)
	return it, ok
}

// getIterator implements the GetIterator abstract operation (spec §4.9):
// an object carrying a callable Symbol.iterator method is iterated by
// calling it, as required for user-defined iterables; arrays and strings
// fall back to a built-in iterator since neither installs Symbol.iterator
// on its prototype; an object exposing a callable "next" (which includes
// every generator object, since its .next() is exactly such a method) is
// used as an iterator as-is; anything else falls back to enumerating its
// own enumerable string keys, which is also exactly what for-in needs, so
// no opcode-level disambiguation between for-in and for-of is required.
// null/undefined degrade to an immediately-done iterator instead of
// throwing, covering `for (const x in null)` the same way.
func (m *Machine) getIterator(v value.Value) (*Iterator, error) {
	if v.IsNullOrUndefined() {
		return &Iterator{kind: iterKeys}, nil
	}
	if v.IsString() {
		s := v.AsString()
		units := make([]uint16, s.Length())
		for i := range units {
			units[i] = s.CharAt(i)
		}
		return &Iterator{kind: iterString, units: units}, nil
	}
	obj, ok := object.Wrap(v)
	if !ok {
		return nil, Throw(value.StrFromGo("value is not iterable"))
	}
	if it, found, err := m.iteratorFromSymbol(m.SymIterator, obj, v); found || err != nil {
		return it, err
	}
	if obj.Kind() == object.KindArray {
		return &Iterator{kind: iterArray, source: obj}, nil
	}
	if nextVal, err := obj.Get(object.Key("next"), v); err == nil {
		if nextFn, ok := object.Wrap(nextVal); ok && nextFn.IsCallable() {
			return &Iterator{kind: iterGeneric, source: obj}, nil
		}
	}
	return &Iterator{kind: iterKeys, keys: ownEnumerableKeys(obj)}, nil
}

// iteratorFromSymbol looks up sym (Symbol.iterator or Symbol.asyncIterator)
// on obj and, if it is callable, invokes it and wraps the resulting object
// as an iterGeneric iterator. found is false when no such callable method
// exists, telling the caller to fall back to the duck-typed special cases.
// sym is nil when the Machine was built without Bootstrap (core-interpreter
// tests), in which case the symbol-keyed lookup simply never matches.
func (m *Machine) iteratorFromSymbol(sym *symbolHandle, obj *object.Object, v value.Value) (*Iterator, bool, error) {
	if sym == nil {
		return nil, false, nil
	}
	iterFn, err := obj.Get(object.SymbolKey(sym), v)
	if err != nil {
		return nil, false, err
	}
	fn, ok := object.Wrap(iterFn)
	if !ok || !fn.IsCallable() {
		return nil, false, nil
	}
	res, err := fn.Call(v, nil)
	if err != nil {
		return nil, true, err
	}
	io, ok := object.Wrap(res)
	if !ok {
		return nil, true, Throw(value.StrFromGo("Symbol.iterator method returned a non-object"))
	}
	return &Iterator{kind: iterGeneric, source: io}, true, nil
}

func ownEnumerableKeys(o *object.Object) []object.PropertyKey {
	var out []object.PropertyKey
	for _, k := range o.OwnPropertyKeys() {
		if k.IsSymbol() {
			continue
		}
		cell, ok := o.GetOwnProperty(k)
		if ok && cell.Attrs.Enumerable {
			out = append(out, k)
		}
	}
	return out
}

// iteratorNext implements IteratorStep+IteratorValue combined, returning
// the next value and whether the iterator is now done.
func (m *Machine) iteratorNext(it *Iterator) (value.Value, bool, error) {
	switch it.kind {
	case iterArray:
		if it.idx >= it.source.Length() {
			return value.Undefined, true, nil
		}
		v := it.source.Element(it.idx)
		it.idx++
		return v, false, nil
	case iterString:
		if it.idx >= len(it.units) {
			return value.Undefined, true, nil
		}
		v := value.StrFromGo(string(rune(it.units[it.idx])))
		it.idx++
		return v, false, nil
	case iterKeys:
		if it.idx >= len(it.keys) {
			return value.Undefined, true, nil
		}
		k := it.keys[it.idx]
		it.idx++
		return value.StrFromGo(k.String()), false, nil
	case iterGeneric:
		res, err := callMethod(it.source, "next", nil)
		if err != nil {
			return value.Undefined, true, err
		}
		return iterResultFields(res)
	default:
		return value.Undefined, true, nil
	}
}

// iteratorClose implements IteratorClose: best-effort, ignoring a missing
// "return" method on a generic iterator (spec §4.9).
func (m *Machine) iteratorClose(it *Iterator) {
	if it.kind != iterGeneric {
		return
	}
	retVal, err := it.source.Get(object.Key("return"), value.FromObject(it.source))
	if err != nil {
		return
	}
	retFn, ok := object.Wrap(retVal)
	if !ok || !retFn.IsCallable() {
		return
	}
	_, _ = retFn.Call(value.FromObject(it.source), nil)
}

// callMethod performs a [[Get]] followed by [[Call]], the common pattern
// for invoking a duck-typed protocol method (next/return/throw, thenable
// then, etc.).
func callMethod(o *object.Object, name string, args []value.Value) (value.Value, error) {
	fnVal, err := o.Get(object.Key(name), value.FromObject(o))
	if err != nil {
		return value.Undefined, err
	}
	fn, ok := object.Wrap(fnVal)
	if !ok || !fn.IsCallable() {
		return value.Undefined, object.TypeError(name + " is not a function")
	}
	return fn.Call(value.FromObject(o), args)
}

// iterResultFields reads an IteratorResult object's value/done pair.
func iterResultFields(res value.Value) (value.Value, bool, error) {
	obj, ok := object.Wrap(res)
	if !ok {
		return value.Undefined, true, object.TypeError("iterator result is not an object")
	}
	val, err := obj.Get(object.Key("value"), res)
	if err != nil {
		return value.Undefined, true, err
	}
	doneVal, err := obj.Get(object.Key("done"), res)
	if err != nil {
		return value.Undefined, true, err
	}
	return val, doneVal.ToBoolean(), nil
}

// newIterResult builds a plain IteratorResult object: {value, done}.
func (m *Machine) newIterResult(v value.Value, done bool) value.Value {
	obj := object.New(m.Shapes.RootFor(m.ObjectProto))
	obj.DefineOwnProperty(object.Key("value"), v, object.DataAttributes(true, true, true))
	obj.DefineOwnProperty(object.Key("done"), value.Bool(done), object.DataAttributes(true, true, true))
	return value.FromObject(m.Own(obj))
}
