package vm

import (
	"github.com/oxhq/jsengine/internal/compiler"
	"github.com/oxhq/jsengine/internal/environment"
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/value"
)

// Closure is a function object's [[Call]]/[[Construct]] backing for a
// VM-compiled function body (spec §3 "Closure"): the compiled code, the
// environment it closed over, and — for methods and class constructors —
// the home object used to resolve `super` (spec §4.8 class instruction
// family).
type Closure struct {
	m          *Machine
	cb         *compiler.CodeBlock
	env        *environment.Record
	homeObject *object.Object
	superClass *object.Object // non-nil only for a derived class's constructor closure
	self       *object.Object // the function object wrapping this closure
}

// MakeClosure builds an ordinary function object (not a class constructor)
// from a compiled child CodeBlock and the environment it closes over
// (OpMakeClosure's runtime effect).
func (m *Machine) MakeClosure(cb *compiler.CodeBlock, env *environment.Record) *object.Object {
	cl := &Closure{m: m, cb: cb, env: env}
	var construct object.Constructable
	if !cb.IsArrow && !cb.IsGenerator && !cb.IsAsync {
		construct = cl
	}
	fnObj := object.NewFunction(m.Shapes.RootFor(m.FunctionProto), cl, construct)
	fnObj.SetClassName("Function")
	fnObj.SetHost(cl)
	cl.self = fnObj
	if !cb.IsArrow {
		proto := object.New(m.Shapes.RootFor(m.ObjectProto))
		proto.DefineOwnProperty(object.Key("constructor"), value.FromObject(fnObj), object.DataAttributes(true, false, true))
		fnObj.DefineOwnProperty(object.Key("prototype"), value.FromObject(m.Own(proto)), object.DataAttributes(true, false, false))
	}
	fnObj.DefineOwnProperty(object.Key("name"), value.StrFromGo(cb.Name), object.DataAttributes(false, false, true))
	fnObj.DefineOwnProperty(object.Key("length"), value.Int(int32(requiredParamCount(cb))), object.DataAttributes(false, false, true))
	return m.Own(fnObj)
}

func requiredParamCount(cb *compiler.CodeBlock) int {
	n := 0
	for _, p := range cb.Params {
		if p.Rest || p.Default != nil {
			break
		}
		n++
	}
	return n
}

// MakeClass builds a class constructor function object (OpMakeClass's
// runtime effect): its own prototype object links to the superclass's
// prototype (or Object.prototype), and the constructor function itself
// links to the superclass constructor (static inheritance) or
// Function.prototype.
func (m *Machine) MakeClass(cb *compiler.CodeBlock, env *environment.Record, superCtor *object.Object) *object.Object {
	cl := &Closure{m: m, cb: cb, env: env, superClass: superCtor}
	fnObj := object.NewFunction(m.Shapes.RootFor(m.FunctionProto), cl, cl)
	fnObj.SetClassName(cb.Name)
	fnObj.SetHost(cl)
	cl.self = fnObj

	var protoParent *object.Object
	var staticParent *object.Object
	if superCtor != nil {
		superProtoVal, _ := superCtor.Get(object.Key("prototype"), value.FromObject(superCtor))
		protoParent, _ = object.Wrap(superProtoVal)
		staticParent = superCtor
		fnObj.SetPrototypeOf(staticParent)
	} else {
		protoParent = m.ObjectProto
		fnObj.SetPrototypeOf(m.FunctionProto)
	}
	proto := object.New(m.Shapes.RootFor(protoParent))
	proto.DefineOwnProperty(object.Key("constructor"), value.FromObject(fnObj), object.DataAttributes(true, false, true))
	cl.homeObject = proto

	fnObj.DefineOwnProperty(object.Key("prototype"), value.FromObject(m.Own(proto)), object.DataAttributes(false, false, false))
	fnObj.DefineOwnProperty(object.Key("name"), value.StrFromGo(cb.Name), object.DataAttributes(false, false, true))
	return m.Own(fnObj)
}

// Call implements object.Callable for a VM closure. A generator function
// returns a new generator object without running its body, an async
// function is handed to callAsync and returns a Promise, and an ordinary
// function binds arguments into a fresh function environment and runs
// the body to completion.
func (cl *Closure) Call(this value.Value, args []value.Value) (value.Value, error) {
	m := cl.m
	if cl.cb.IsGenerator {
		return value.FromObject(m.newGeneratorObject(cl, this, args)), nil
	}
	if cl.cb.IsAsync {
		return m.callAsync(cl, this, args)
	}
	f, err := m.prepareCall(cl, this, args, nil, thisBound)
	if err != nil {
		return value.Undefined, err
	}
	val, oc, payload, err := m.run(f)
	if err != nil {
		return value.Undefined, err
	}
	switch oc {
	case completionReturn:
		return val, nil
	case completionThrow:
		return value.Undefined, Throw(payload)
	default:
		return value.Undefined, Throw(value.StrFromGo("await/yield outside of an async/generator function"))
	}
}

// Construct implements object.Constructable (the `new` operator and
// OpSuperCall's invocation of a parent class constructor).
func (cl *Closure) Construct(args []value.Value, newTarget *object.Object) (*object.Object, error) {
	m := cl.m
	if cl.superClass != nil {
		// Derived class constructor: `this` starts in its temporal dead
		// zone; the constructor body's own super() call (OpSuperCall)
		// constructs the instance and initializes `this`.
		f, err := m.prepareCall(cl, value.Undefined, args, newTarget, thisTDZ)
		if err != nil {
			return nil, err
		}
		val, oc, payload, err := m.run(f)
		if err != nil {
			return nil, err
		}
		switch oc {
		case completionThrow:
			return nil, Throw(payload)
		case completionReturn:
			if obj, ok := object.Wrap(val); ok {
				return obj, nil
			}
			thisVal, terr := environment.GetBindingValue(f.env, "this")
			if terr != nil {
				return nil, Throw(value.StrFromGo("must call super constructor before returning from derived constructor"))
			}
			obj, _ := object.Wrap(thisVal)
			return obj, nil
		default:
			return nil, Throw(value.StrFromGo("await/yield in constructor"))
		}
	}

	proto := m.ObjectProto
	ntReg := newTarget
	if ntReg == nil {
		ntReg = cl.self
	}
	if ntReg != nil {
		if pv, err := ntReg.Get(object.Key("prototype"), value.FromObject(ntReg)); err == nil {
			if p, ok := object.Wrap(pv); ok {
				proto = p
			}
		}
	}
	instance := object.New(m.Shapes.RootFor(proto))
	instance.SetClassName(cl.cb.Name)
	m.Own(instance)

	f, err := m.prepareCall(cl, value.FromObject(instance), args, newTarget, thisBound)
	if err != nil {
		return nil, err
	}
	val, oc, payload, err := m.run(f)
	if err != nil {
		return nil, err
	}
	switch oc {
	case completionThrow:
		return nil, Throw(payload)
	case completionReturn:
		if obj, ok := object.Wrap(val); ok {
			return obj, nil
		}
		return instance, nil
	default:
		return nil, Throw(value.StrFromGo("await/yield in constructor"))
	}
}

// NativeFunction wraps a Go function as a Callable/Constructable object
// host, used by Bootstrap to install built-in methods.
type NativeFunction struct {
	Name    string
	Length  int
	Fn      func(this value.Value, args []value.Value) (value.Value, error)
	NewFn   func(args []value.Value, newTarget *object.Object) (*object.Object, error)
}

func (n *NativeFunction) Call(this value.Value, args []value.Value) (value.Value, error) {
	return n.Fn(this, args)
}

func (n *NativeFunction) Construct(args []value.Value, newTarget *object.Object) (*object.Object, error) {
	if n.NewFn == nil {
		return nil, object.ErrNotConstructor
	}
	return n.NewFn(args, newTarget)
}

// NewNativeFunction builds and installs (via Machine.Own) a function
// object backed by a host Go function, for embedders registering a native
// global (spec §6 embedding API "NativeFunction::from_fn").
func (m *Machine) NewNativeFunction(name string, length int, fn func(this value.Value, args []value.Value) (value.Value, error)) *object.Object {
	return m.newNativeFunction(name, length, fn)
}

// newNativeFunction builds a function object backed by a NativeFunction.
func (m *Machine) newNativeFunction(name string, length int, fn func(value.Value, []value.Value) (value.Value, error)) *object.Object {
	nf := &NativeFunction{Name: name, Length: length, Fn: fn}
	obj := object.NewFunction(m.Shapes.RootFor(m.FunctionProto), nf, nil)
	obj.SetClassName("Function")
	obj.SetHost(nf)
	obj.DefineOwnProperty(object.Key("name"), value.StrFromGo(name), object.DataAttributes(false, false, true))
	obj.DefineOwnProperty(object.Key("length"), value.Int(int32(length)), object.DataAttributes(false, false, true))
	return m.Own(obj)
}

func argAt(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}
