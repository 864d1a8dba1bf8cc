package realm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	opts := DefaultOptions()
	opts.ModuleRoot = t.TempDir()
	opts.Cancellable = false
	ctx, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctx.Close()) })
	return ctx
}

func TestEvalScriptReturnsCompletionValue(t *testing.T) {
	ctx := newTestContext(t)
	v, err := ctx.EvalScript("1 + 2 * 3;")
	require.NoError(t, err)
	assert.Equal(t, float64(7), v.AsFloat64())
}

func TestEvalScriptSharesGlobalStateAcrossCalls(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.EvalScript("var counter = 0;")
	require.NoError(t, err)
	_, err = ctx.EvalScript("counter = counter + 1;")
	require.NoError(t, err)
	v, err := ctx.EvalScript("counter;")
	require.NoError(t, err)
	assert.Equal(t, float64(1), v.AsFloat64())
}

func TestEvalStringBypassesCache(t *testing.T) {
	opts := DefaultOptions()
	opts.ModuleRoot = t.TempDir()
	opts.Cancellable = false
	opts.CacheEnabled = true
	opts.CacheDSN = filepath.Join(t.TempDir(), "cache.db")
	ctx, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctx.Close()) })

	v, err := ctx.EvalString("40 + 2;")
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsFloat64())

	count, err := ctx.Cache.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestEvalScriptPopulatesCacheWhenEnabled(t *testing.T) {
	opts := DefaultOptions()
	opts.ModuleRoot = t.TempDir()
	opts.Cancellable = false
	opts.CacheEnabled = true
	opts.CacheDSN = filepath.Join(t.TempDir(), "cache.db")
	ctx, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctx.Close()) })

	_, err = ctx.EvalScript("1 + 1;")
	require.NoError(t, err)

	count, err := ctx.Cache.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRunModuleLoadsEntryFromModuleRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.js"), []byte("var result = 21 * 2;"), 0o644))

	opts := DefaultOptions()
	opts.ModuleRoot = root
	opts.Cancellable = false
	ctx, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctx.Close()) })

	_, err = ctx.RunModule("./main.js")
	require.NoError(t, err)

	v, err := ctx.EvalScript("result;")
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsFloat64())
}

func TestRunJobsDrainsPromiseReactions(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.EvalScript(`
var seen = 0;
new Promise(function (resolve) { resolve(41); }).then(function (v) { seen = v + 1; });
`)
	require.NoError(t, err)
	require.NoError(t, ctx.RunJobs())

	v, err := ctx.EvalScript("seen;")
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsFloat64())
}
