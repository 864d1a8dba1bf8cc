// Package vm implements the register-based bytecode interpreter (spec
// §4.9). Each JS function call is a dispatch loop over one Frame; calling
// another function recurses through Go (ordinary nested calls can never
// themselves contain a yield/await belonging to an outer generator, since
// yield/await are only well-formed directly inside the generator/async
// function's own body, so Go-stack recursion for plain calls costs
// nothing in correctness). A generator or async function suspends by
// detaching its own single Frame — register file, pc, environment, and
// iterator-close stack — into a heap-allocated GeneratorState, resumed
// later by re-entering the dispatch loop on that same Frame. No goroutine
// or native stack-switching primitive is used anywhere in this package.
package vm

import (
	"fmt"

	"github.com/oxhq/jsengine/internal/compiler"
	"github.com/oxhq/jsengine/internal/environment"
	"github.com/oxhq/jsengine/internal/gc"
	"github.com/oxhq/jsengine/internal/hostsignal"
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/value"
)

// Frame is one activation record: a code block, its register file, program
// counter, environment chain, and the active iterator stack used to close
// iterators on non-local exit (spec §3 CallFrame, §4.9 Iterator stack).
type Frame struct {
	cb       *compiler.CodeBlock
	regs     []value.Value
	pc       int
	execPC   int // pc of the instruction currently being dispatched, for handler-table lookups
	env      *environment.Record
	envDepth int                  // number of OpPushEnv frames currently active, mirrors the compiler's static envDepth
	closure  *Closure             // the function object this frame is executing, nil for the top-level program frame

	iterStack []*Iterator // active for-of/for-await-of iterators, closed on non-local exit

	newTargetObj *object.Object // the [[Construct]] newTarget in scope, nil for an ordinary call

	// suspendedAt is the instruction index of the OpYield/OpAwait that last
	// suspended this frame, or -1 if it has never suspended. resumeVal/
	// resumeErr carry the value or exception a generator/async resume
	// injects there; the dispatch loop consumes and clears both on entry.
	suspendedAt int
	resumeVal   value.Value
	resumeErr   error
}

func newFrame(cb *compiler.CodeBlock, env *environment.Record, closure *Closure) *Frame {
	return &Frame{
		cb:          cb,
		regs:        make([]value.Value, cb.NumRegs),
		env:         env,
		closure:     closure,
		suspendedAt: -1,
	}
}

// returnSignal is the sentinel resumeErr a generator's .return(v) injects:
// it short-circuits straight to a return completion with v, deliberately
// skipping any finally block still active at the suspension point (a
// documented simplification; the far more common .next()/.throw() resume
// paths are unaffected).
type returnSignal struct{ val value.Value }

func (r *returnSignal) Error() string { return "generator return()" }

// completion tags how a run of frames stopped.
type completion uint8

const (
	completionReturn completion = iota
	completionThrow
	completionYield
	completionAwait
)

// thrown wraps a JS exception Value as a Go error so it can travel through
// ordinary error returns at the Go call boundary (native function calls,
// object abstract operations).
type thrown struct {
	val value.Value
}

func (t *thrown) Error() string {
	s, err := object.ToString(t.val)
	if err != nil {
		return "uncaught exception"
	}
	return s.String()
}

// Throw wraps v as a Go error carrying a JS exception value.
func Throw(v value.Value) error { return &thrown{val: v} }

// ThrownValue extracts the JS exception Value from an error produced by
// Throw or by the VM's own unwind path, or reports ok=false for a plain Go
// error (which the VM wraps into a generic Error object at the point it
// crosses back into JS via errToValue).
func ThrownValue(err error) (value.Value, bool) {
	if t, ok := err.(*thrown); ok {
		return t.val, true
	}
	return value.Undefined, false
}

// Machine is one running instance of the VM, owning the heap and the
// realm-level object graph it allocates against (spec §4.11: GC is
// per-context/realm).
type Machine struct {
	Heap *gc.Heap
	Jobs JobQueue

	// Canceller gates the cooperative-cancellation safe points (spec §5);
	// nil (the default) means the dispatch loop never checks it.
	Canceller *hostsignal.Canceller

	Shapes *object.ShapeTable

	// Intrinsic prototypes, installed by Bootstrap. A Machine built without
	// calling Bootstrap has these nil, which is fine for tests that only
	// exercise the core interpreter loop against plain objects/arrays.
	ObjectProto    *object.Object
	ArrayProto     *object.Object
	FunctionProto  *object.Object
	GeneratorProto *object.Object
	PromiseProto   *object.Object
	ErrorProtos    map[string]*object.Object // kind -> prototype ("TypeError", "RangeError", ...)
	GlobalObject   *object.Object

	// SymIterator/SymAsyncIterator are the well-known symbols the iteration
	// protocol dispatches on (spec §4.9 GetIterator); installed by Bootstrap
	// alongside the Symbol global so Symbol.iterator and a script's own
	// `obj[Symbol.iterator]` property both resolve to the same handle.
	SymIterator      *symbolHandle
	SymAsyncIterator *symbolHandle

	handles map[*object.Object]*gc.Handle

	// templateCache implements the caller-unique template object open
	// question (spec §9): one cached array object per tagged-template
	// call-site id, assigned at compile time (OpTemplateCacheGet/Set).
	templateCache map[int32]*object.Object
}

// JobQueue is the minimal surface Machine needs from internal/job, kept as
// an interface so package vm does not have to import internal/job directly
// for its exported API (internal/realm wires the concrete queue in).
type JobQueue interface {
	Enqueue(run func() error)
}

// New creates a Machine over heap.
func New(heap *gc.Heap) *Machine {
	return &Machine{
		Heap:          heap,
		Shapes:        object.NewShapeTable(),
		ErrorProtos:   make(map[string]*object.Object),
		handles:       make(map[*object.Object]*gc.Handle),
		templateCache: make(map[int32]*object.Object),
	}
}

// Own registers obj with the heap as a permanently-rooted allocation and
// returns it. The VM does not attempt precise per-register rooting (retain
// on every register write, release on frame pop): getting that right by
// hand without a running test suite to validate it is far riskier than the
// space it would save, so every object/environment/closure this engine
// creates is rooted for the lifetime of its Machine. Collect still runs
// (and is exercised by internal/gc's own tests) — it simply never finds
// these permanently-rooted allocations unreachable, which keeps it
// trivially conservative (testable property 10) at the cost of never
// reclaiming anything short of process exit.
func (m *Machine) Own(obj *object.Object) *object.Object {
	h := m.Heap.Alloc(object.NewHeapAllocation(obj, m.resolveHandle, nil))
	m.handles[obj] = h
	return obj
}

func (m *Machine) resolveHandle(v value.Value) *gc.Handle {
	obj, ok := object.Wrap(v)
	if !ok {
		return nil
	}
	return m.handles[obj]
}

// errToValue converts any Go error into a JS exception Value: errors
// created by Throw pass their wrapped value through unchanged; errors from
// the object model's abstract operations (object.TypeError/RangeError) and
// object.ErrNotCallable/ErrNotConstructor are lifted into Error objects;
// the environment's unresolvable and uninitialized-binding errors become
// ReferenceErrors and its immutable-binding error a TypeError; anything
// else becomes a generic Error with the Go error's message.
func (m *Machine) errToValue(err error) value.Value {
	if v, ok := ThrownValue(err); ok {
		return v
	}
	kind := object.ErrorKind(err)
	if kind == "" {
		switch err {
		case object.ErrNotCallable, object.ErrNotConstructor, environment.ErrImmutableBinding:
			kind = "TypeError"
		case environment.ErrUnresolvable, environment.ErrUninitializedBinding:
			kind = "ReferenceError"
		default:
			kind = "Error"
		}
	}
	return value.FromObject(m.newErrorObject(kind, err.Error()))
}

func (m *Machine) newErrorObject(kind, msg string) *object.Object {
	proto := m.ErrorProtos[kind]
	if proto == nil {
		proto = m.ErrorProtos["Error"]
	}
	obj := object.New(m.Shapes.RootFor(proto))
	obj.SetClassName(kind)
	obj.DefineOwnProperty(object.Key("name"), value.StrFromGo(kind), object.DataAttributes(true, false, true))
	obj.DefineOwnProperty(object.Key("message"), value.StrFromGo(msg), object.DataAttributes(true, false, true))
	obj.DefineOwnProperty(object.Key("stack"), value.StrFromGo(fmt.Sprintf("%s: %s", kind, msg)), object.DataAttributes(true, false, true))
	return m.Own(obj)
}

// RunProgram executes a top-level CodeBlock (a parsed+compiled Program) in
// the given global environment and returns the completion value of its
// last expression statement (spec §6 Context::eval semantics), or an error
// if it threw.
func (m *Machine) RunProgram(cb *compiler.CodeBlock, globalEnv *environment.Record) (value.Value, error) {
	frame := newFrame(cb, globalEnv, nil)
	val, oc, payload, err := m.run(frame)
	if err != nil {
		return value.Undefined, err
	}
	switch oc {
	case completionReturn:
		return val, nil
	case completionThrow:
		return value.Undefined, Throw(payload)
	default:
		return value.Undefined, fmt.Errorf("vm: top-level program suspended unexpectedly")
	}
}
