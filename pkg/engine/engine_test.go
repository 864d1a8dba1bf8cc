package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/jsengine/internal/value"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.ModuleRoot = t.TempDir()
	opts.Cancellable = false
	e, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })
	return e
}

func TestEvalReturnsCompletionValue(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.Eval("2 + 3 * 4;")
	require.NoError(t, err)
	assert.Equal(t, float64(14), v.AsFloat64())
}

func TestEvalDynamicBypassesCache(t *testing.T) {
	opts := DefaultOptions()
	opts.ModuleRoot = t.TempDir()
	opts.Cancellable = false
	opts.CacheEnabled = true
	opts.CacheDSN = filepath.Join(t.TempDir(), "cache.db")
	e, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })

	v, err := e.EvalDynamic("10 + 32;")
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsFloat64())
}

func TestRegisterFunctionCallableFromScript(t *testing.T) {
	e := newTestEngine(t)

	var seenArgs []Value
	e.RegisterFunction("double", 1, func(this Value, args []Value) (Value, error) {
		seenArgs = args
		return value.Float(args[0].AsFloat64() * 2), nil
	})

	_, err := e.Eval("var result = double(21);")
	require.NoError(t, err)

	v, err := e.Global("result")
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsFloat64())
	require.Len(t, seenArgs, 1)
}

func TestGlobalReadsScriptDeclaredBinding(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Eval("var greeting = 'hello';")
	require.NoError(t, err)

	v, err := e.Global("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", v.AsString().String())
}

func TestGlobalUnboundNameReturnsUndefined(t *testing.T) {
	e := newTestEngine(t)
	v, err := e.Global("neverDeclared")
	require.Error(t, err)
	assert.True(t, v.IsUndefined())

	var jsErr *Error
	require.ErrorAs(t, err, &jsErr)
	assert.False(t, jsErr.HasValue)
}

func TestRunModuleLoadsEntry(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.js"), []byte("var answer = 6 * 7;"), 0o644))

	opts := DefaultOptions()
	opts.ModuleRoot = root
	opts.Cancellable = false
	e, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, e.Close()) })

	_, err = e.RunModule("./main.js")
	require.NoError(t, err)

	v, err := e.Global("answer")
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsFloat64())
}

func TestRunJobsDrainsPromiseReactions(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Eval(`
var seen = 0;
new Promise(function (resolve) { resolve(19); }).then(function (v) { seen = v + 1; });
`)
	require.NoError(t, err)
	require.NoError(t, e.RunJobs())

	v, err := e.Global("seen")
	require.NoError(t, err)
	assert.Equal(t, float64(20), v.AsFloat64())
}

func TestEvalThrownExceptionNormalizesToJsError(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Eval("throw new TypeError('bad value');")
	require.Error(t, err)

	var jsErr *Error
	require.ErrorAs(t, err, &jsErr)
	assert.Equal(t, "ERR_TYPE", string(jsErr.Code))
	assert.Contains(t, jsErr.Message, "bad value")
	assert.True(t, jsErr.HasValue)
}

func TestEvalSyntaxErrorNormalizesToJsError(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Eval("var = ;")
	require.Error(t, err)

	var jsErr *Error
	require.ErrorAs(t, err, &jsErr)
	assert.False(t, jsErr.HasValue)
}
