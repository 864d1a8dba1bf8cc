package vm

import (
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/value"
)

// resumeKind selects which of the three generator resume entry points
// drove one step of the driver (spec §4.9 "Generator resumption").
type resumeKind uint8

const (
	resumeNext resumeKind = iota
	resumeThrow
	resumeReturn
)

// GeneratorState is the heap-allocated, detached activation a generator
// object drives across repeated calls to .next()/.throw()/.return(): the
// Frame is built once (by prepareCall, via newGeneratorObject) and never
// re-entered concurrently, matching the single-Frame-per-call design —
// only this Frame ever suspends mid-dispatch.
type GeneratorState struct {
	cl      *Closure
	frame   *Frame
	started bool
	done    bool
}

// newGeneratorObject builds a generator object (the result of calling a
// generator function, via Closure.Call's IsGenerator branch): the
// call's Frame is prepared but not run, and native next/
// return/throw methods capturing the resulting GeneratorState are
// installed as own properties of the returned instance.
func (m *Machine) newGeneratorObject(cl *Closure, this value.Value, args []value.Value) *object.Object {
	f, err := m.prepareCall(cl, this, args, nil, thisBound)
	gs := &GeneratorState{cl: cl}
	if err == nil {
		gs.frame = f
	} else {
		gs.done = true
	}

	inst := object.New(m.Shapes.RootFor(m.GeneratorProto))
	inst.SetClassName("Generator")
	inst.SetHost(gs)

	inst.DefineOwnProperty(object.Key("next"), value.FromObject(m.newNativeFunction("next", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		return m.generatorNext(gs, resumeNext, argAt(args, 0))
	})), object.DataAttributes(true, false, true))
	inst.DefineOwnProperty(object.Key("throw"), value.FromObject(m.newNativeFunction("throw", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		return m.generatorNext(gs, resumeThrow, argAt(args, 0))
	})), object.DataAttributes(true, false, true))
	inst.DefineOwnProperty(object.Key("return"), value.FromObject(m.newNativeFunction("return", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		return m.generatorNext(gs, resumeReturn, argAt(args, 0))
	})), object.DataAttributes(true, false, true))

	return m.Own(inst)
}

// generatorNext drives one resumption of gs's Frame and builds the
// resulting IteratorResult, or propagates a thrown exception to the
// caller (spec §4.9 GeneratorResume/GeneratorResumeAbrupt).
func (m *Machine) generatorNext(gs *GeneratorState, kind resumeKind, arg value.Value) (value.Value, error) {
	if gs.done {
		if kind == resumeThrow {
			return value.Undefined, Throw(arg)
		}
		if kind == resumeReturn {
			return m.newIterResult(arg, true), nil
		}
		return m.newIterResult(value.Undefined, true), nil
	}

	f := gs.frame

	if !gs.started {
		// A generator's first .next(v) discards v (spec: the argument to
		// the initial resumption is ignored); .throw()/.return() before
		// the body has ever run complete immediately without entering it.
		gs.started = true
		switch kind {
		case resumeThrow:
			gs.done = true
			return value.Undefined, Throw(arg)
		case resumeReturn:
			gs.done = true
			return m.newIterResult(arg, true), nil
		}
	} else {
		switch kind {
		case resumeNext:
			f.resumeVal = arg
			f.resumeErr = nil
		case resumeThrow:
			f.resumeVal = value.Undefined
			f.resumeErr = Throw(arg)
		case resumeReturn:
			f.resumeVal = value.Undefined
			f.resumeErr = &returnSignal{val: arg}
		}
	}

	val, oc, payload, err := m.run(f)
	if err != nil {
		gs.done = true
		return value.Undefined, err
	}
	switch oc {
	case completionYield, completionAwait:
		return m.newIterResult(val, false), nil
	case completionReturn:
		gs.done = true
		return m.newIterResult(val, true), nil
	case completionThrow:
		gs.done = true
		return value.Undefined, Throw(payload)
	default:
		gs.done = true
		return m.newIterResult(value.Undefined, true), nil
	}
}
