// Package engine is the embedding API (spec §6): the one package a host
// program imports to run JavaScript. It wraps internal/realm.Context with
// a narrow, stable surface the way the teacher's internal/provider.
// LanguageProvider interface gives a host a small set of methods instead
// of its tree-sitter internals — callers never reach into internal/vm,
// internal/compiler, or internal/object directly.
package engine

import (
	"github.com/oxhq/jsengine/internal/environment"
	"github.com/oxhq/jsengine/internal/jserr"
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/realm"
	"github.com/oxhq/jsengine/internal/value"
	"github.com/oxhq/jsengine/internal/vm"
)

// Value is the host-facing alias for an engine value; hosts pass and
// receive these without needing to import internal/value themselves.
type Value = value.Value

// Options configures a new Engine; see realm.Options for field docs.
type Options = realm.Options

// DefaultOptions returns the engine's built-in configuration defaults.
func DefaultOptions() Options { return realm.DefaultOptions() }

// LoadOptions loads Options the way a host CLI would: an optional YAML
// file overlaid with JSENGINE_* environment variables.
func LoadOptions(optionsFile string) (Options, error) { return realm.LoadOptions(optionsFile) }

// Engine is one embeddable JavaScript context (spec §4.11 Context, scoped
// down to the operations a host actually needs).
type Engine struct {
	ctx *realm.Context
}

// New builds an Engine from opts.
func New(opts Options) (*Engine, error) {
	ctx, err := realm.New(opts)
	if err != nil {
		return nil, err
	}
	return &Engine{ctx: ctx}, nil
}

// Eval compiles and runs source as a top-level script, returning its
// completion value. Compilation is served from the compiled-code cache
// when one is configured (spec §4.13).
func (e *Engine) Eval(source string) (Value, error) {
	v, err := e.ctx.EvalScript(source)
	return v, wrapError(err)
}

// EvalDynamic runs source the way a hosted eval() builtin would: always
// compiled fresh, never touching the compiled-code cache.
func (e *Engine) EvalDynamic(source string) (Value, error) {
	v, err := e.ctx.EvalString(source)
	return v, wrapError(err)
}

// RunModule resolves specifier against the configured module root and
// evaluates it as the entry module (spec §4.12).
func (e *Engine) RunModule(specifier string) (Value, error) {
	v, err := e.ctx.RunModule(specifier)
	return v, wrapError(err)
}

// RunJobs drains the microtask/job queue (promise reactions, module
// evaluation jobs) until empty (spec §4.10).
func (e *Engine) RunJobs() error {
	return wrapError(e.ctx.RunJobs())
}

// RegisterFunction installs a native Go function as a global binding
// named name, callable from JS as name(...args). length is the function's
// reported `.length` (spec §3 NativeFunction).
func (e *Engine) RegisterFunction(name string, length int, fn func(this Value, args []Value) (Value, error)) {
	m := e.ctx.Active().Machine
	nf := m.NewNativeFunction(name, length, fn)
	m.GlobalObject.DefineOwnProperty(object.Key(name), value.FromObject(nf), object.DataAttributes(true, false, true))
}

// Global returns the value currently bound to name in the global
// environment. If name is unbound it returns Undefined together with a
// non-nil *Error whose HasValue is false.
func (e *Engine) Global(name string) (Value, error) {
	v, err := environment.GetBindingValue(e.ctx.Active().GlobalEnv, name)
	if err != nil {
		return value.Undefined, wrapError(err)
	}
	return v, nil
}

// Close releases resources the Engine opened (the compiled-code cache
// database connection, if one was configured).
func (e *Engine) Close() error {
	return e.ctx.Close()
}

// Error is the host-facing error type (spec §7): every error Eval/
// RunModule/RunJobs can return, whether a parse/compile failure, a thrown
// JS exception, or a native Go error crossing the boundary, normalizes to
// this shape so a host never needs a type switch over internal error
// types.
type Error = jserr.JsError

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if v, ok := vm.ThrownValue(err); ok {
		return jserr.FromValue(v, nameOf, messageOf)
	}
	return jserr.Wrap(jserr.CodeNative, err.Error(), err)
}

func nameOf(v Value) (string, bool)    { return propString(v, "name") }
func messageOf(v Value) (string, bool) { return propString(v, "message") }

func propString(v Value, key string) (string, bool) {
	obj, ok := object.Wrap(v)
	if !ok {
		return "", false
	}
	pv, err := obj.Get(object.Key(key), v)
	if err != nil {
		return "", false
	}
	s, err := object.ToString(pv)
	if err != nil {
		return "", false
	}
	return s.String(), true
}
