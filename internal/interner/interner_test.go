package interner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternIdempotent(t *testing.T) {
	in := New()
	a := in.Intern("foo")
	b := in.Intern("foo")
	assert.Equal(t, a, b)
}

func TestInternDistinctStrings(t *testing.T) {
	in := New()
	a := in.Intern("foo")
	b := in.Intern("bar")
	assert.NotEqual(t, a, b)
}

func TestInternNonZero(t *testing.T) {
	in := New()
	sym := in.Intern("anything")
	assert.NotEqual(t, invalidSymbol, sym)
}

func TestResolveRoundTrip(t *testing.T) {
	in := New()
	sym := in.Intern("hello world")
	assert.Equal(t, "hello world", in.Resolve(sym))
}

func TestLookupMissing(t *testing.T) {
	in := New()
	_, ok := in.Lookup("never-interned")
	assert.False(t, ok)
}

func TestCommonStringsPreseeded(t *testing.T) {
	in := New()
	sym, ok := in.Lookup("prototype")
	require.True(t, ok)
	assert.Equal(t, "prototype", in.Resolve(sym))
}

func TestInternMonotonicallyIncreasing(t *testing.T) {
	in := New()
	first := in.Intern("zzz-unique-1")
	second := in.Intern("zzz-unique-2")
	assert.Greater(t, uint32(second), uint32(first))
}
