package vm

import (
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/value"
)

// promiseStatus is a Promise's internal [[PromiseState]] (spec §4.10).
type promiseStatus uint8

const (
	promisePending promiseStatus = iota
	promiseFulfilled
	promiseRejected
)

// PromiseState is the host payload (Object.Host) backing a Promise
// object: settlement state plus any reaction callbacks registered while
// still pending (spec §4.10 PromiseReaction records, simplified to a
// single plain-Go-closure form since this engine never exposes
// [[PromiseReactions]] directly to JS).
type PromiseState struct {
	status           promiseStatus
	result           value.Value
	fulfillReactions []func(value.Value)
	rejectReactions  []func(value.Value)
}

// newPromiseObject creates a pending Promise object.
func (m *Machine) newPromiseObject() *object.Object {
	obj := object.New(m.Shapes.RootFor(m.PromiseProto))
	obj.SetClassName("Promise")
	obj.SetHost(&PromiseState{status: promisePending})
	return m.Own(obj)
}

func promiseState(o *object.Object) (*PromiseState, bool) {
	ps, ok := o.Host().(*PromiseState)
	return ps, ok
}

// isThenable reports whether v is an object exposing a callable "then",
// the duck-typed test the Promise resolution procedure uses (spec §4.10
// "Thenable").
func isThenable(v value.Value) (*object.Object, bool) {
	obj, ok := object.Wrap(v)
	if !ok {
		return nil, false
	}
	thenVal, err := obj.Get(object.Key("then"), v)
	if err != nil {
		return nil, false
	}
	thenFn, ok := object.Wrap(thenVal)
	if !ok || !thenFn.IsCallable() {
		return nil, false
	}
	return obj, true
}

// resolvePromise implements the [[Resolve]] capability: if v is itself a
// thenable, chains through its "then" method (scheduled as a job, so a
// promise never settles synchronously with its resolution value);
// otherwise fulfills immediately.
func (m *Machine) resolvePromise(p *object.Object, v value.Value) {
	if thenable, ok := isThenable(v); ok {
		m.Jobs.Enqueue(func() error {
			resolveFn := m.newNativeFunction("", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
				m.resolvePromise(p, argAt(args, 0))
				return value.Undefined, nil
			})
			rejectFn := m.newNativeFunction("", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
				m.rejectPromise(p, argAt(args, 0))
				return value.Undefined, nil
			})
			_, err := callMethod(thenable, "then", []value.Value{value.FromObject(resolveFn), value.FromObject(rejectFn)})
			if err != nil {
				m.rejectPromise(p, m.errToValue(err))
			}
			return nil
		})
		return
	}
	m.fulfillPromise(p, v)
}

func (m *Machine) fulfillPromise(p *object.Object, v value.Value) {
	ps, ok := promiseState(p)
	if !ok || ps.status != promisePending {
		return
	}
	ps.status = promiseFulfilled
	ps.result = v
	reactions := ps.fulfillReactions
	ps.fulfillReactions, ps.rejectReactions = nil, nil
	for _, r := range reactions {
		r := r
		m.Jobs.Enqueue(func() error { r(v); return nil })
	}
}

func (m *Machine) rejectPromise(p *object.Object, reason value.Value) {
	ps, ok := promiseState(p)
	if !ok || ps.status != promisePending {
		return
	}
	ps.status = promiseRejected
	ps.result = reason
	reactions := ps.rejectReactions
	ps.fulfillReactions, ps.rejectReactions = nil, nil
	for _, r := range reactions {
		r := r
		m.Jobs.Enqueue(func() error { r(reason); return nil })
	}
}

// promiseThen implements Promise.prototype.then: builds a derived
// promise settled by whichever of onFulfilled/onRejected is callable
// (a missing handler passes the value/reason through unchanged), and
// either registers the reaction for later or schedules it immediately
// if p is already settled (always as a job, spec §4.10 "reactions are
// always scheduled, never run synchronously").
func (m *Machine) promiseThen(p *object.Object, onFulfilled, onRejected value.Value) *object.Object {
	result := m.newPromiseObject()
	ps, ok := promiseState(p)
	if !ok {
		return result
	}

	fulfillReaction := func(v value.Value) {
		if fn, ok := object.Wrap(onFulfilled); ok && fn.IsCallable() {
			rv, err := fn.Call(value.Undefined, []value.Value{v})
			if err != nil {
				m.rejectPromise(result, m.errToValue(err))
				return
			}
			m.resolvePromise(result, rv)
			return
		}
		m.resolvePromise(result, v)
	}
	rejectReaction := func(reason value.Value) {
		if fn, ok := object.Wrap(onRejected); ok && fn.IsCallable() {
			rv, err := fn.Call(value.Undefined, []value.Value{reason})
			if err != nil {
				m.rejectPromise(result, m.errToValue(err))
				return
			}
			m.resolvePromise(result, rv)
			return
		}
		m.rejectPromise(result, reason)
	}

	switch ps.status {
	case promisePending:
		ps.fulfillReactions = append(ps.fulfillReactions, fulfillReaction)
		ps.rejectReactions = append(ps.rejectReactions, rejectReaction)
	case promiseFulfilled:
		v := ps.result
		m.Jobs.Enqueue(func() error { fulfillReaction(v); return nil })
	case promiseRejected:
		v := ps.result
		m.Jobs.Enqueue(func() error { rejectReaction(v); return nil })
	}
	return result
}

// callAsync drives an async function's body synchronously up to its
// first await/return/throw (spec §4.10 "AsyncFunctionStart"), returning
// a Promise immediately; further progress happens as await's inner
// promise settles and reschedules stepAsync as a job.
func (m *Machine) callAsync(cl *Closure, this value.Value, args []value.Value) (value.Value, error) {
	f, err := m.prepareCall(cl, this, args, nil, thisBound)
	if err != nil {
		return value.Undefined, err
	}
	p := m.newPromiseObject()
	m.stepAsync(f, p)
	return value.FromObject(p), nil
}

// stepAsync runs f until it returns, throws, or awaits, wiring whichever
// happened into p.
func (m *Machine) stepAsync(f *Frame, p *object.Object) {
	val, oc, payload, err := m.run(f)
	if err != nil {
		m.rejectPromise(p, m.errToValue(err))
		return
	}
	switch oc {
	case completionReturn:
		m.resolvePromise(p, val)
	case completionThrow:
		m.rejectPromise(p, payload)
	case completionAwait:
		onFulfilled := func(v value.Value) {
			f.resumeVal = v
			f.resumeErr = nil
			m.stepAsync(f, p)
		}
		onRejected := func(reason value.Value) {
			f.resumeVal = value.Undefined
			f.resumeErr = Throw(reason)
			m.stepAsync(f, p)
		}
		m.awaitValue(val, onFulfilled, onRejected)
	default:
		m.rejectPromise(p, value.StrFromGo("yield outside of a generator function"))
	}
}

// awaitValue implements the `await` operand coercion (spec §4.10
// "Await"): wraps a non-promise operand as an already-resolved promise
// so the continuation always runs as a scheduled job, never inline.
func (m *Machine) awaitValue(v value.Value, onFulfilled, onRejected func(value.Value)) {
	p := m.newPromiseObject()
	ps, _ := promiseState(p)
	ps.fulfillReactions = append(ps.fulfillReactions, onFulfilled)
	ps.rejectReactions = append(ps.rejectReactions, onRejected)
	m.resolvePromise(p, v)
}
