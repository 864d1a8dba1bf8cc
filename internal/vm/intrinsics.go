package vm

import (
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/value"
)

// Bootstrap installs the intrinsic prototypes and global bindings a
// compiled program expects to find in scope (spec §4.11 "Realm
// intrinsics"): Object/Array/Function/Generator/Promise prototypes, the
// built-in error kinds, and a minimal but real set of Array/Object/
// Function/Promise prototype methods, plus globalThis and console.log.
// Grounded on the teacher's registry-style "install a fixed table of
// named entries onto a shared root" pattern (internal/registry/registry.go).
func (m *Machine) Bootstrap() {
	m.ObjectProto = m.Own(object.New(m.Shapes.RootFor(nil)))
	m.FunctionProto = m.Own(object.New(m.Shapes.RootFor(m.ObjectProto)))
	m.ArrayProto = m.Own(object.New(m.Shapes.RootFor(m.ObjectProto)))
	m.GeneratorProto = m.Own(object.New(m.Shapes.RootFor(m.ObjectProto)))
	m.PromiseProto = m.Own(object.New(m.Shapes.RootFor(m.ObjectProto)))

	for _, kind := range []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError", "URIError"} {
		parent := m.ObjectProto
		if kind != "Error" {
			parent = m.ErrorProtos["Error"]
		}
		proto := m.Own(object.New(m.Shapes.RootFor(parent)))
		proto.DefineOwnProperty(object.Key("name"), value.StrFromGo(kind), object.DataAttributes(true, false, true))
		m.ErrorProtos[kind] = proto
	}

	m.installObjectProto()
	m.installFunctionProto()
	m.installArrayProto()
	m.installGeneratorProto()
	m.installPromiseProto()

	m.GlobalObject = m.Own(object.New(m.Shapes.RootFor(m.ObjectProto)))
	m.installGlobals()
}

func (m *Machine) method(target *object.Object, name string, length int, fn func(value.Value, []value.Value) (value.Value, error)) {
	target.DefineOwnProperty(object.Key(name), value.FromObject(m.newNativeFunction(name, length, fn)), object.DataAttributes(true, false, true))
}

func (m *Machine) installObjectProto() {
	m.method(m.ObjectProto, "hasOwnProperty", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		obj, ok := object.Wrap(this)
		if !ok {
			return value.Bool(false), nil
		}
		key, err := object.ToPropertyKey(argAt(args, 0))
		if err != nil {
			return value.Undefined, err
		}
		return value.Bool(obj.HasOwnProperty(key)), nil
	})
	m.method(m.ObjectProto, "isPrototypeOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		self, ok := object.Wrap(this)
		target, tok := object.Wrap(argAt(args, 0))
		if !ok || !tok {
			return value.Bool(false), nil
		}
		for p := target.Prototype(); p != nil; p = p.Prototype() {
			if p == self {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	m.method(m.ObjectProto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		if obj, ok := object.Wrap(this); ok {
			return value.StrFromGo("[object " + obj.ClassName() + "]"), nil
		}
		return value.StrFromGo("[object Object]"), nil
	})
	m.method(m.ObjectProto, "valueOf", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})
}

func (m *Machine) installFunctionProto() {
	m.method(m.FunctionProto, "call", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		fn, ok := object.Wrap(this)
		if !ok || !fn.IsCallable() {
			return value.Undefined, object.TypeError("value is not a function")
		}
		var thisArg value.Value
		var rest []value.Value
		if len(args) > 0 {
			thisArg, rest = args[0], args[1:]
		}
		return fn.Call(thisArg, rest)
	})
	m.method(m.FunctionProto, "apply", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		fn, ok := object.Wrap(this)
		if !ok || !fn.IsCallable() {
			return value.Undefined, object.TypeError("value is not a function")
		}
		var rest []value.Value
		if len(args) > 1 {
			if arr, ok := object.Wrap(args[1]); ok {
				rest = append([]value.Value(nil), arr.Elements()...)
			}
		}
		return fn.Call(argAt(args, 0), rest)
	})
	m.method(m.FunctionProto, "bind", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		fn, ok := object.Wrap(this)
		if !ok || !fn.IsCallable() {
			return value.Undefined, object.TypeError("value is not a function")
		}
		boundThis := argAt(args, 0)
		var bound []value.Value
		if len(args) > 1 {
			bound = append([]value.Value(nil), args[1:]...)
		}
		return value.FromObject(m.newNativeFunction("bound", 0, func(_ value.Value, callArgs []value.Value) (value.Value, error) {
			return fn.Call(boundThis, append(append([]value.Value(nil), bound...), callArgs...))
		})), nil
	})
}

func (m *Machine) installArrayProto() {
	m.method(m.ArrayProto, "push", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, ok := object.Wrap(this)
		if !ok {
			return value.Undefined, object.TypeError("Array.prototype.push called on a non-object")
		}
		for _, a := range args {
			arr.Push(a)
		}
		return value.Number(float64(arr.Length())), nil
	})
	m.method(m.ArrayProto, "forEach", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, fn, ok := arrayAndCallback(this, args)
		if !ok {
			return value.Undefined, object.TypeError("Array.prototype.forEach requires a callback")
		}
		for i := 0; i < arr.Length(); i++ {
			if _, err := fn.Call(value.Undefined, []value.Value{arr.Element(i), value.Number(float64(i)), this}); err != nil {
				return value.Undefined, err
			}
		}
		return value.Undefined, nil
	})
	m.method(m.ArrayProto, "map", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, fn, ok := arrayAndCallback(this, args)
		if !ok {
			return value.Undefined, object.TypeError("Array.prototype.map requires a callback")
		}
		out := m.Own(object.NewArray(m.Shapes.RootFor(m.ArrayProto)))
		for i := 0; i < arr.Length(); i++ {
			v, err := fn.Call(value.Undefined, []value.Value{arr.Element(i), value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined, err
			}
			out.Push(v)
		}
		return value.FromObject(out), nil
	})
	m.method(m.ArrayProto, "filter", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, fn, ok := arrayAndCallback(this, args)
		if !ok {
			return value.Undefined, object.TypeError("Array.prototype.filter requires a callback")
		}
		out := m.Own(object.NewArray(m.Shapes.RootFor(m.ArrayProto)))
		for i := 0; i < arr.Length(); i++ {
			keep, err := fn.Call(value.Undefined, []value.Value{arr.Element(i), value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined, err
			}
			if keep.ToBoolean() {
				out.Push(arr.Element(i))
			}
		}
		return value.FromObject(out), nil
	})
	m.method(m.ArrayProto, "reduce", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, ok := object.Wrap(this)
		if !ok {
			return value.Undefined, object.TypeError("Array.prototype.reduce called on a non-object")
		}
		fn, fok := object.Wrap(argAt(args, 0))
		if !fok || !fn.IsCallable() {
			return value.Undefined, object.TypeError("reduce callback is not a function")
		}
		i := 0
		var acc value.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if arr.Length() == 0 {
				return value.Undefined, object.TypeError("Reduce of empty array with no initial value")
			}
			acc = arr.Element(0)
			i = 1
		}
		for ; i < arr.Length(); i++ {
			v, err := fn.Call(value.Undefined, []value.Value{acc, arr.Element(i), value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined, err
			}
			acc = v
		}
		return acc, nil
	})
	m.method(m.ArrayProto, "includes", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, ok := object.Wrap(this)
		if !ok {
			return value.Bool(false), nil
		}
		target := argAt(args, 0)
		for i := 0; i < arr.Length(); i++ {
			if value.SameValueZero(arr.Element(i), target) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})
	m.method(m.ArrayProto, "indexOf", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, ok := object.Wrap(this)
		if !ok {
			return value.Number(-1), nil
		}
		target := argAt(args, 0)
		for i := 0; i < arr.Length(); i++ {
			if value.StrictEquals(arr.Element(i), target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	})
	m.method(m.ArrayProto, "slice", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, ok := object.Wrap(this)
		if !ok {
			return value.Undefined, object.TypeError("Array.prototype.slice called on a non-object")
		}
		n := arr.Length()
		start := normalizeIndex(argAt(args, 0), n, 0)
		end := normalizeIndex(argAt(args, 1), n, n)
		out := m.Own(object.NewArray(m.Shapes.RootFor(m.ArrayProto)))
		for i := start; i < end; i++ {
			out.Push(arr.Element(i))
		}
		return value.FromObject(out), nil
	})
	m.method(m.ArrayProto, "join", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		arr, ok := object.Wrap(this)
		if !ok {
			return value.StrFromGo(""), nil
		}
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			s, err := object.ToString(args[0])
			if err != nil {
				return value.Undefined, err
			}
			sep = s.String()
		}
		out := ""
		for i := 0; i < arr.Length(); i++ {
			if i > 0 {
				out += sep
			}
			v := arr.Element(i)
			if v.IsNullOrUndefined() {
				continue
			}
			s, err := object.ToString(v)
			if err != nil {
				return value.Undefined, err
			}
			out += s.String()
		}
		return value.StrFromGo(out), nil
	})
}

func (m *Machine) installGeneratorProto() {
	m.method(m.GeneratorProto, "toString", 0, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.StrFromGo("[object Generator]"), nil
	})
}

func (m *Machine) installPromiseProto() {
	m.method(m.PromiseProto, "then", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		p, ok := object.Wrap(this)
		if !ok {
			return value.Undefined, object.TypeError("Promise.prototype.then called on a non-Promise")
		}
		return value.FromObject(m.promiseThen(p, argAt(args, 0), argAt(args, 1))), nil
	})
	m.method(m.PromiseProto, "catch", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		p, ok := object.Wrap(this)
		if !ok {
			return value.Undefined, object.TypeError("Promise.prototype.catch called on a non-Promise")
		}
		return value.FromObject(m.promiseThen(p, value.Undefined, argAt(args, 0))), nil
	})
	m.method(m.PromiseProto, "finally", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		p, ok := object.Wrap(this)
		if !ok {
			return value.Undefined, object.TypeError("Promise.prototype.finally called on a non-Promise")
		}
		onFinally := argAt(args, 0)
		wrap := m.newNativeFunction("", 1, func(_ value.Value, a []value.Value) (value.Value, error) {
			if fn, ok := object.Wrap(onFinally); ok && fn.IsCallable() {
				if _, err := fn.Call(value.Undefined, nil); err != nil {
					return value.Undefined, err
				}
			}
			return argAt(a, 0), nil
		})
		wrapReject := m.newNativeFunction("", 1, func(_ value.Value, a []value.Value) (value.Value, error) {
			if fn, ok := object.Wrap(onFinally); ok && fn.IsCallable() {
				if _, err := fn.Call(value.Undefined, nil); err != nil {
					return value.Undefined, err
				}
			}
			return value.Undefined, Throw(argAt(a, 0))
		})
		return value.FromObject(m.promiseThen(p, value.FromObject(wrap), value.FromObject(wrapReject))), nil
	})
}

// symbolHandle is the opaque payload a Symbol Value's AsSymbol() carries
// (spec §3 Symbol). Distinct *symbolHandle pointers are distinct symbols
// even with the same description; the well-known symbols are singletons
// held on the Machine so every reference to Symbol.iterator compares equal.
type symbolHandle struct {
	desc string
}

// installSymbolGlobal wires the Symbol global: a non-constructible factory
// function (each call mints a fresh, never-equal symbol) plus the
// Symbol.iterator/Symbol.asyncIterator well-known symbols getIterator
// dispatches through (spec §4.9 GetIterator/GetIteratorAsync).
func (m *Machine) installSymbolGlobal() {
	m.SymIterator = &symbolHandle{desc: "Symbol.iterator"}
	m.SymAsyncIterator = &symbolHandle{desc: "Symbol.asyncIterator"}

	symbolCtor := m.newNativeFunction("Symbol", 0, func(_ value.Value, args []value.Value) (value.Value, error) {
		desc := ""
		if d := argAt(args, 0); !d.IsUndefined() {
			s, err := object.ToString(d)
			if err != nil {
				return value.Undefined, err
			}
			desc = s.String()
		}
		return value.FromSymbol(&symbolHandle{desc: desc}), nil
	})
	symbolCtor.DefineOwnProperty(object.Key("iterator"), value.FromSymbol(m.SymIterator), object.DataAttributes(false, false, false))
	symbolCtor.DefineOwnProperty(object.Key("asyncIterator"), value.FromSymbol(m.SymAsyncIterator), object.DataAttributes(false, false, false))
	m.GlobalObject.DefineOwnProperty(object.Key("Symbol"), value.FromObject(symbolCtor), object.DataAttributes(true, false, true))
}

// installGlobals wires globalThis, console.log, Symbol, and the Promise
// constructor onto the global object (spec §6 "reference host globals").
func (m *Machine) installGlobals() {
	m.GlobalObject.DefineOwnProperty(object.Key("globalThis"), value.FromObject(m.GlobalObject), object.DataAttributes(true, false, true))
	m.installSymbolGlobal()

	console := m.Own(object.New(m.Shapes.RootFor(m.ObjectProto)))
	m.method(console, "log", 0, func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Undefined, nil
	})
	m.GlobalObject.DefineOwnProperty(object.Key("console"), value.FromObject(console), object.DataAttributes(true, false, true))

	promiseNF := &NativeFunction{
		Name:   "Promise",
		Length: 1,
		Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
			return value.Undefined, object.TypeError("Promise constructor requires 'new'")
		},
		NewFn: func(args []value.Value, newTarget *object.Object) (*object.Object, error) {
			executor, ok := object.Wrap(argAt(args, 0))
			if !ok || !executor.IsCallable() {
				return nil, object.TypeError("Promise resolver is not a function")
			}
			p := m.newPromiseObject()
			resolveFn := m.newNativeFunction("", 1, func(_ value.Value, a []value.Value) (value.Value, error) {
				m.resolvePromise(p, argAt(a, 0))
				return value.Undefined, nil
			})
			rejectFn := m.newNativeFunction("", 1, func(_ value.Value, a []value.Value) (value.Value, error) {
				m.rejectPromise(p, argAt(a, 0))
				return value.Undefined, nil
			})
			if _, err := executor.Call(value.Undefined, []value.Value{value.FromObject(resolveFn), value.FromObject(rejectFn)}); err != nil {
				m.rejectPromise(p, m.errToValue(err))
			}
			return p, nil
		},
	}
	promiseCtorObj := object.NewFunction(m.Shapes.RootFor(m.FunctionProto), promiseNF, promiseNF)
	promiseCtorObj.SetClassName("Function")
	promiseCtorObj.SetHost(promiseNF)
	promiseCtorObj.DefineOwnProperty(object.Key("name"), value.StrFromGo("Promise"), object.DataAttributes(false, false, true))
	promiseCtorObj.DefineOwnProperty(object.Key("length"), value.Int(1), object.DataAttributes(false, false, true))
	m.Own(promiseCtorObj)
	promiseCtorObj.DefineOwnProperty(object.Key("prototype"), value.FromObject(m.PromiseProto), object.DataAttributes(false, false, false))
	m.PromiseProto.DefineOwnProperty(object.Key("constructor"), value.FromObject(promiseCtorObj), object.DataAttributes(true, false, true))
	m.GlobalObject.DefineOwnProperty(object.Key("Promise"), value.FromObject(promiseCtorObj), object.DataAttributes(true, false, true))

	m.method(console, "error", 0, func(_ value.Value, args []value.Value) (value.Value, error) { return value.Undefined, nil })
}

func arrayAndCallback(this value.Value, args []value.Value) (*object.Object, *object.Object, bool) {
	arr, ok := object.Wrap(this)
	if !ok {
		return nil, nil, false
	}
	fn, ok := object.Wrap(argAt(args, 0))
	if !ok || !fn.IsCallable() {
		return nil, nil, false
	}
	return arr, fn, true
}

func normalizeIndex(v value.Value, length, defaultVal int) int {
	if v.IsUndefined() {
		return defaultVal
	}
	n, err := object.ToNumber(v)
	if err != nil {
		return defaultVal
	}
	i := int(n.AsFloat64())
	if i < 0 {
		i += length
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}
