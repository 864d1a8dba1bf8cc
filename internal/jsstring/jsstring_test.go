package jsstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLatin1Fast(t *testing.T) {
	s := New("hello")
	assert.Equal(t, kindLatin1, s.kind)
	assert.Equal(t, 5, s.Length())
}

func TestNewUCS2ForAstral(t *testing.T) {
	s := New("h😀llo")
	assert.Equal(t, kindUCS2, s.kind)
	assert.Equal(t, "h😀llo", s.String())
}

func TestConcatPreservesOperands(t *testing.T) {
	a := New("foo")
	b := New("bar")
	c := a.Concat(b)
	assert.Equal(t, "foobar", c.String())
	assert.Equal(t, "foo", a.String())
	assert.Equal(t, "bar", b.String())
}

func TestEqualByValue(t *testing.T) {
	a := New("same")
	b := New("same")
	assert.True(t, a.Equal(b))
	assert.NotSame(t, a, b)
}

func TestEqualDifferentLength(t *testing.T) {
	assert.False(t, New("a").Equal(New("ab")))
}

func TestEmptyConcatShortCircuits(t *testing.T) {
	s := New("x")
	assert.Same(t, s, Empty.Concat(s))
	assert.Same(t, s, s.Concat(Empty))
}

func TestStaticPoolIdentity(t *testing.T) {
	a := Static("prototype")
	b := Static("prototype")
	assert.Same(t, a, b)
}

func TestCharAt(t *testing.T) {
	s := New("abc")
	assert.Equal(t, uint16('b'), s.CharAt(1))
}
