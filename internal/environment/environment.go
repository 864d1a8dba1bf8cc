// Package environment implements lexical/variable/object/function/global
// environment records and the binding-lookup protocol that backs
// identifier resolution (spec §3 "Environment record", §4.5).
package environment

import (
	"fmt"

	"github.com/oxhq/jsengine/internal/value"
)

// Status tracks a binding's lifecycle for the temporal-dead-zone rule
// (spec §3 invariant: reading an uninitialized binding is a dynamic
// ReferenceError).
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusInitialized
)

type binding struct {
	value     value.Value
	status    Status
	mutable   bool
	deletable bool
}

// ErrUninitializedBinding is returned by GetBindingValue for a binding
// still in its temporal dead zone.
var ErrUninitializedBinding = fmt.Errorf("environment: binding accessed before initialization")

// ErrImmutableBinding is returned by SetMutableBinding against a const
// binding.
var ErrImmutableBinding = fmt.Errorf("environment: assignment to immutable binding")

// ErrUnresolvable is returned when no binding for a name exists anywhere
// on the lexical chain.
var ErrUnresolvable = fmt.Errorf("environment: binding not found")

// ThisStatus tracks a function environment's `this` binding state.
type ThisStatus uint8

const (
	ThisUninitialized ThisStatus = iota // derived class constructor before super()
	ThisLexical                          // arrow function: this comes from the outer scope
	ThisInitialized
)

// Record is one environment record on the lexical chain: declarative
// (the common case), and optionally carrying function-specific state
// (this/new.target/arguments) or marked as the global/module record.
// Kept as a single concrete type (rather than an interface per kind)
// because every kind in spec §4.5 shares the same binding protocol; the
// few kind-specific behaviours (function `this`, object-backed globals)
// are plain fields rather than virtual dispatch.
type Record struct {
	outer    *Record
	bindings map[string]*binding

	// poisoned marks that a direct eval may have introduced dynamic
	// bindings somewhere on or below this environment, so identifier
	// lookups that would otherwise be resolved and cached statically must
	// be re-resolved dynamically instead (spec §9 "Eval / direct-eval").
	poisoned bool

	// Function-environment-only fields.
	isFunction   bool
	thisValue    value.Value
	thisStatus   ThisStatus
	newTarget    value.Value
	hasNewTarget bool

	// objectBacked, when non-nil, routes bindings through an object's
	// property operations instead of the bindings map (global/`with`
	// environments, spec §3 "object-backed").
	objectBacked ObjectBinding
}

// ObjectBinding is the minimal surface a global object needs to back an
// object environment record, kept as an interface so package
// environment doesn't need to import package object.
type ObjectBinding interface {
	HasBinding(name string) bool
	GetBinding(name string) (value.Value, error)
	SetBinding(name string, v value.Value) error
	DeleteBinding(name string) bool
	CreateBinding(name string, v value.Value) error
}

// NewDeclarative creates a declarative environment record with the given
// outer link (nil for the outermost/global scope).
func NewDeclarative(outer *Record) *Record {
	return &Record{outer: outer, bindings: make(map[string]*binding)}
}

// NewObjectBacked creates an object-backed environment record (used for
// the global environment's var/function bindings, and `with`
// statements).
func NewObjectBacked(outer *Record, obj ObjectBinding) *Record {
	return &Record{outer: outer, bindings: make(map[string]*binding), objectBacked: obj}
}

// NewFunction creates a function environment record: a declarative
// record additionally carrying `this`/`new.target` state.
func NewFunction(outer *Record, thisStatus ThisStatus, thisVal value.Value) *Record {
	r := NewDeclarative(outer)
	r.isFunction = true
	r.thisStatus = thisStatus
	r.thisValue = thisVal
	return r
}

// Outer returns the enclosing environment record, or nil at the top.
func (r *Record) Outer() *Record { return r.outer }

// Poison marks this environment (and, per spec, every environment a
// direct eval could introduce bindings into) as no longer safe for
// statically cached binding lookups.
func (r *Record) Poison() { r.poisoned = true }

// Poisoned reports whether this environment or an enclosing one has been
// poisoned by a direct eval.
func (r *Record) Poisoned() bool {
	for cur := r; cur != nil; cur = cur.outer {
		if cur.poisoned {
			return true
		}
	}
	return false
}

// CreateMutableBinding declares a new mutable binding, uninitialized
// until InitializeBinding runs (spec §4.5).
func (r *Record) CreateMutableBinding(name string, deletable bool) error {
	if r.objectBacked != nil {
		return r.objectBacked.CreateBinding(name, value.Undefined)
	}
	r.bindings[name] = &binding{status: StatusUninitialized, mutable: true, deletable: deletable}
	return nil
}

// CreateImmutableBinding declares a new immutable (const) binding,
// uninitialized until InitializeBinding runs.
func (r *Record) CreateImmutableBinding(name string) error {
	r.bindings[name] = &binding{status: StatusUninitialized, mutable: false}
	return nil
}

// InitializeBinding sets a declared binding's value for the first time
// and marks it initialized, ending its temporal dead zone.
func (r *Record) InitializeBinding(name string, v value.Value) error {
	if r.objectBacked != nil {
		return r.objectBacked.SetBinding(name, v)
	}
	b, ok := r.bindings[name]
	if !ok {
		return ErrUnresolvable
	}
	b.value = v
	b.status = StatusInitialized
	return nil
}

// HasBinding reports whether name is declared directly in this record
// (not the chain).
func (r *Record) HasBinding(name string) bool {
	if r.objectBacked != nil {
		return r.objectBacked.HasBinding(name)
	}
	_, ok := r.bindings[name]
	return ok
}

// GetBindingValue resolves name by walking the outer chain starting at
// r. Reading an uninitialized let/const binding throws the TDZ
// ReferenceError (spec §4.5, testable property 5).
func GetBindingValue(r *Record, name string) (value.Value, error) {
	for cur := r; cur != nil; cur = cur.outer {
		if cur.objectBacked != nil {
			if cur.objectBacked.HasBinding(name) {
				return cur.objectBacked.GetBinding(name)
			}
			continue
		}
		b, ok := cur.bindings[name]
		if !ok {
			continue
		}
		if b.status == StatusUninitialized {
			return value.Undefined, ErrUninitializedBinding
		}
		return b.value, nil
	}
	return value.Undefined, ErrUnresolvable
}

// SetMutableBinding assigns name by walking the outer chain. Assigning
// to an immutable binding is a TypeError condition the VM surfaces as
// such; this layer reports it as ErrImmutableBinding. There is no strict
// flag here: whether an unresolved binding creates a new global (sloppy
// mode) is decided by callers, since only the global record can host it.
func SetMutableBinding(r *Record, name string, v value.Value) error {
	for cur := r; cur != nil; cur = cur.outer {
		if cur.objectBacked != nil {
			if cur.objectBacked.HasBinding(name) {
				return cur.objectBacked.SetBinding(name, v)
			}
			continue
		}
		b, ok := cur.bindings[name]
		if !ok {
			continue
		}
		if b.status == StatusUninitialized {
			return ErrUninitializedBinding
		}
		if !b.mutable {
			return ErrImmutableBinding
		}
		b.value = v
		return nil
	}
	return ErrUnresolvable
}

// DeleteBinding removes a deletable binding from this record only (not
// the chain), per the `delete` operator's semantics on identifiers
// (always false/no-op for lexical declarations, which are never
// deletable).
func (r *Record) DeleteBinding(name string) bool {
	if r.objectBacked != nil {
		return r.objectBacked.DeleteBinding(name)
	}
	b, ok := r.bindings[name]
	if !ok {
		return true
	}
	if !b.deletable {
		return false
	}
	delete(r.bindings, name)
	return true
}

// This returns the function environment's `this` binding, walking
// outward through arrow-function (lexical) environments to find the
// nearest environment that actually owns one.
func This(r *Record) (value.Value, error) {
	for cur := r; cur != nil; cur = cur.outer {
		if !cur.isFunction {
			continue
		}
		switch cur.thisStatus {
		case ThisUninitialized:
			return value.Undefined, ErrUninitializedBinding
		case ThisLexical:
			continue // arrow function: defer to the next function environment out
		case ThisInitialized:
			return cur.thisValue, nil
		}
	}
	return value.Undefined, nil
}

// BindThis initializes a derived-class constructor's `this` binding
// after super() returns.
func BindThis(r *Record, v value.Value) error {
	if !r.isFunction {
		return fmt.Errorf("environment: BindThis on non-function environment")
	}
	if r.thisStatus == ThisInitialized {
		return fmt.Errorf("environment: this already initialized")
	}
	r.thisValue = v
	r.thisStatus = ThisInitialized
	return nil
}

// NewTarget returns the nearest enclosing function environment's
// new.target value.
func NewTarget(r *Record) value.Value {
	for cur := r; cur != nil; cur = cur.outer {
		if cur.isFunction && cur.hasNewTarget {
			return cur.newTarget
		}
		if cur.isFunction && cur.thisStatus != ThisLexical {
			return value.Undefined
		}
	}
	return value.Undefined
}

// SetNewTarget records new.target on a function environment at call
// time.
func (r *Record) SetNewTarget(v value.Value) {
	r.hasNewTarget = true
	r.newTarget = v
}
