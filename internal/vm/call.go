package vm

import (
	"github.com/oxhq/jsengine/internal/compiler"
	"github.com/oxhq/jsengine/internal/environment"
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/value"
)

// thisMode tells prepareCall how to seed the new frame's "this" binding.
// The compiler treats `this` as an ordinary named binding (OpGetName
// "this"), so prepareCall declares it directly in the frame's own
// environment rather than through environment.go's dedicated This/
// BindThis API, which stays unused by the VM.
type thisMode uint8

const (
	thisNone   thisMode = iota // no binding at all (top-level program frame)
	thisBound                  // bind immediately to the given value (ordinary call, base-class construct)
	thisTDZ                    // declare uninitialized; the body's own super() call initializes it (derived-class construct)
)

// prepareCall builds the Frame for one invocation of cl: a fresh
// parameter environment closing over cl.env, "this" bound per mode
// before any parameter is bound (so a default/destructuring pattern may
// reference this), then each declared parameter bound from args in
// order, and finally the arguments object if the body uses it.
func (m *Machine) prepareCall(cl *Closure, this value.Value, args []value.Value, newTarget *object.Object, mode thisMode) (*Frame, error) {
	env := environment.NewDeclarative(cl.env)
	f := newFrame(cl.cb, env, cl)
	f.newTargetObj = newTarget

	switch mode {
	case thisBound:
		if err := env.CreateMutableBinding("this", false); err != nil {
			return nil, err
		}
		if err := env.InitializeBinding("this", this); err != nil {
			return nil, err
		}
	case thisTDZ:
		if err := env.CreateImmutableBinding("this"); err != nil {
			return nil, err
		}
	}

	for i, p := range cl.cb.Params {
		if p.Rest {
			rest := object.NewArray(m.Shapes.RootFor(m.ArrayProto))
			for j := i; j < len(args); j++ {
				rest.Push(args[j])
			}
			m.Own(rest)
			if err := bindParamName(env, p.Name, value.FromObject(rest)); err != nil {
				return nil, err
			}
			continue
		}

		var v value.Value
		if i < len(args) {
			v = args[i]
		} else {
			v = value.Undefined
		}
		if v.IsUndefined() && p.Default != nil {
			dv, _, _, err := m.runThunk(p.Default, env, nil)
			if err != nil {
				return nil, err
			}
			v = dv
		}

		if p.Bind != nil {
			if _, _, _, err := m.runThunk(p.Bind, env, []value.Value{v}); err != nil {
				return nil, err
			}
			continue
		}
		if err := bindParamName(env, p.Name, v); err != nil {
			return nil, err
		}
	}

	if cl.cb.UsesArguments {
		argsObj := object.NewArray(m.Shapes.RootFor(m.ArrayProto))
		for _, a := range args {
			argsObj.Push(a)
		}
		argsObj.SetClassName("Arguments")
		m.Own(argsObj)
		if err := bindParamName(env, "arguments", value.FromObject(argsObj)); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func bindParamName(env *environment.Record, name string, v value.Value) error {
	if err := env.CreateMutableBinding(name, false); err != nil {
		return err
	}
	return env.InitializeBinding(name, v)
}

// runThunk runs a nullary/unary helper CodeBlock (a parameter default or
// destructuring bind, compiled by compileParams) sharing env as its
// environment rather than a fresh child scope, so bindings it declares
// land directly in the call's own parameter environment. preset values
// are copied into the thunk's leading registers before dispatch (the
// incoming argument value, for a destructuring bind).
func (m *Machine) runThunk(cb *compiler.CodeBlock, env *environment.Record, preset []value.Value) (value.Value, completion, value.Value, error) {
	f := newFrame(cb, env, nil)
	copy(f.regs, preset)
	return m.run(f)
}

// objBinding adapts an *object.Object to environment.ObjectBinding, used
// both for `with` statements (OpPushEnv over an object register) and for
// the global environment backing RunProgram's top-level var/function
// bindings (spec §4.5 object environment record).
type objBinding struct{ obj *object.Object }

func (b objBinding) HasBinding(name string) bool {
	return object.HasProperty(b.obj, object.Key(name))
}

func (b objBinding) GetBinding(name string) (value.Value, error) {
	return b.obj.Get(object.Key(name), value.FromObject(b.obj))
}

func (b objBinding) SetBinding(name string, v value.Value) error {
	_, err := b.obj.Set(object.Key(name), v, value.FromObject(b.obj))
	return err
}

func (b objBinding) DeleteBinding(name string) bool {
	return b.obj.Delete(object.Key(name))
}

func (b objBinding) CreateBinding(name string, v value.Value) error {
	b.obj.DefineOwnProperty(object.Key(name), v, object.DataAttributes(true, false, true))
	return nil
}

// NewGlobalEnvironment builds the object-backed global environment
// RunProgram executes the top-level program against, routing var/
// function declarations through Machine.GlobalObject (spec §4.5 "the
// global environment is object-backed").
func (m *Machine) NewGlobalEnvironment() *environment.Record {
	return environment.NewObjectBacked(nil, objBinding{m.GlobalObject})
}
