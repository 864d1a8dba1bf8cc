package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/jsengine/internal/compiler"
	"github.com/oxhq/jsengine/internal/gc"
	"github.com/oxhq/jsengine/internal/job"
	"github.com/oxhq/jsengine/internal/object"
	"github.com/oxhq/jsengine/internal/parser"
	"github.com/oxhq/jsengine/internal/value"
)

// testQueue adapts internal/job.Queue to the Machine.Jobs interface, mirroring
// the adapter internal/realm installs in production.
type testQueue struct{ q job.Queue }

func (t *testQueue) Enqueue(run func() error) {
	t.q.Enqueue(job.New("test job", run))
}

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m := New(gc.New(1 << 20))
	m.Jobs = &testQueue{}
	m.Bootstrap()
	return m
}

func runSource(t *testing.T, m *Machine, src string) value.Value {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	cb, err := compiler.CompileProgram(prog)
	require.NoError(t, err)
	env := m.NewGlobalEnvironment()
	v, err := m.RunProgram(cb, env)
	require.NoError(t, err)
	return v
}

func drain(t *testing.T, m *Machine) {
	t.Helper()
	require.NoError(t, m.Jobs.(*testQueue).q.Drain())
}

func TestEndToEndArithmetic(t *testing.T) {
	m := newTestMachine(t)
	v := runSource(t, m, "1 + 2 * 3")
	assert.Equal(t, float64(7), v.AsFloat64())
}

func TestEndToEndFibonacci(t *testing.T) {
	m := newTestMachine(t)
	v := runSource(t, m, "function f(n){return n<2?n:f(n-1)+f(n-2)} f(10)")
	assert.Equal(t, float64(55), v.AsFloat64())
}

func TestEndToEndClosureCapture(t *testing.T) {
	m := newTestMachine(t)
	v := runSource(t, m, "let a=[]; for(let i=0;i<3;i++) a.push(()=>i); a.map(f=>f())")
	arr, ok := object.Wrap(v)
	require.True(t, ok)
	require.Equal(t, 3, arr.Length())
	assert.Equal(t, float64(0), arr.Element(0).AsFloat64())
	assert.Equal(t, float64(1), arr.Element(1).AsFloat64())
	assert.Equal(t, float64(2), arr.Element(2).AsFloat64())
}

func TestEndToEndTryCatchFinally(t *testing.T) {
	m := newTestMachine(t)
	v := runSource(t, m, "try{throw 1}catch(e){var x=e}finally{x+=10} x")
	assert.Equal(t, float64(11), v.AsFloat64())
}

func TestEndToEndAsyncAwait(t *testing.T) {
	m := newTestMachine(t)
	prog, err := parser.Parse("async function g(){return 1} g().then(v=>v+1)")
	require.NoError(t, err)
	cb, err := compiler.CompileProgram(prog)
	require.NoError(t, err)
	env := m.NewGlobalEnvironment()
	result, err := m.RunProgram(cb, env)
	require.NoError(t, err)

	p, ok := object.Wrap(result)
	require.True(t, ok)

	var settled value.Value
	var rejected bool
	onFulfilled := m.newNativeFunction("", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		settled = argAt(args, 0)
		return value.Undefined, nil
	})
	onRejected := m.newNativeFunction("", 1, func(_ value.Value, args []value.Value) (value.Value, error) {
		rejected = true
		return value.Undefined, nil
	})
	m.promiseThen(p, value.FromObject(onFulfilled), value.FromObject(onRejected))

	drain(t, m)
	require.False(t, rejected)
	assert.Equal(t, float64(2), settled.AsFloat64())
}

func TestEndToEndGeneratorSpread(t *testing.T) {
	m := newTestMachine(t)
	v := runSource(t, m, "function* g(){yield 1; yield 2} [...g()]")
	arr, ok := object.Wrap(v)
	require.True(t, ok)
	require.Equal(t, 2, arr.Length())
	assert.Equal(t, float64(1), arr.Element(0).AsFloat64())
	assert.Equal(t, float64(2), arr.Element(1).AsFloat64())
}

func TestStrictEqualityReflexivity(t *testing.T) {
	m := newTestMachine(t)
	assert.True(t, runSource(t, m, "1 === 1").AsBool())
	assert.True(t, runSource(t, m, "(0/0) === (0/0)").AsBool() == false)
	assert.True(t, runSource(t, m, "1/0 === 1/0").AsBool())
	assert.True(t, runSource(t, m, "0 === -0").AsBool())
}

func TestTemporalDeadZone(t *testing.T) {
	m := newTestMachine(t)
	prog, err := parser.Parse("x; let x = 1;")
	require.NoError(t, err)
	cb, err := compiler.CompileProgram(prog)
	require.NoError(t, err)
	env := m.NewGlobalEnvironment()
	_, err = m.RunProgram(cb, env)
	require.Error(t, err)
	v, ok := ThrownValue(err)
	require.True(t, ok)
	obj, ok := object.Wrap(v)
	require.True(t, ok)
	name, _ := obj.Get(object.Key("name"), v)
	assert.Equal(t, "ReferenceError", name.AsString().String())
}

func TestIteratorClosingOnBreak(t *testing.T) {
	m := newTestMachine(t)
	closed := false
	m.GlobalObject.DefineOwnProperty(object.Key("mark"), value.FromObject(m.newNativeFunction("mark", 0, func(_ value.Value, _ []value.Value) (value.Value, error) {
		closed = true
		return value.Undefined, nil
	})), object.DataAttributes(true, false, true))

	src := `
	const iter = {
		next() { return { value: 1, done: false } },
		return() { mark(); return { value: undefined, done: true } },
	};
	for (const v of iter) { break }
	`
	runSource(t, m, src)
	assert.True(t, closed)
}

func TestGeneratorProtocolAfterReturn(t *testing.T) {
	m := newTestMachine(t)
	v := runSource(t, m, `
	function* g(){ yield 1 }
	const it = g();
	it.next();
	const r = it.next();
	[r.value, r.done]
	`)
	arr, ok := object.Wrap(v)
	require.True(t, ok)
	assert.True(t, arr.Element(0).IsUndefined())
	assert.True(t, arr.Element(1).AsBool())
}

func TestShapeSharing(t *testing.T) {
	m := newTestMachine(t)
	v := runSource(t, m, `
	function make(v){ const o = {}; o.x = v; return o }
	const a = make(1), b = make(2);
	a.hasOwnProperty("x") && b.hasOwnProperty("x")
	`)
	assert.True(t, v.AsBool())
}
