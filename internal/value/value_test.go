package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberChoosesIntegerForExactInts(t *testing.T) {
	v := Number(42)
	assert.Equal(t, KindInteger, v.Kind())
	assert.Equal(t, int32(42), v.AsInt32())
}

func TestNumberChoosesRationalForNaN(t *testing.T) {
	v := Number(math.NaN())
	assert.Equal(t, KindRational, v.Kind())
	assert.True(t, math.IsNaN(v.AsFloat64()))
}

func TestNumberChoosesRationalForNegativeZero(t *testing.T) {
	v := Number(math.Copysign(0, -1))
	assert.Equal(t, KindRational, v.Kind())
}

func TestNumberChoosesRationalForNonInteger(t *testing.T) {
	v := Number(3.5)
	assert.Equal(t, KindRational, v.Kind())
}

func TestStrictEqualsReflexiveExceptNaN(t *testing.T) {
	assert.True(t, StrictEquals(Int(1), Int(1)))
	assert.True(t, StrictEquals(StrFromGo("a"), StrFromGo("a")))
	nan := Float(math.NaN())
	assert.False(t, StrictEquals(nan, nan))
}

func TestStrictEqualsPlusMinusZero(t *testing.T) {
	pos := Float(0)
	neg := Float(math.Copysign(0, -1))
	assert.True(t, StrictEquals(pos, neg))
}

func TestSameValueDistinguishesZeroes(t *testing.T) {
	pos := Float(0)
	neg := Float(math.Copysign(0, -1))
	assert.False(t, SameValue(pos, neg))
}

func TestSameValueNaNEqualsItself(t *testing.T) {
	nan := Float(math.NaN())
	assert.True(t, SameValue(nan, nan))
}

func TestSameValueZeroTreatsZeroesEqual(t *testing.T) {
	pos := Float(0)
	neg := Float(math.Copysign(0, -1))
	assert.True(t, SameValueZero(pos, neg))
}

func TestToBooleanPerKind(t *testing.T) {
	assert.False(t, Undefined.ToBoolean())
	assert.False(t, Null.ToBoolean())
	assert.False(t, Int(0).ToBoolean())
	assert.True(t, Int(1).ToBoolean())
	assert.False(t, StrFromGo("").ToBoolean())
	assert.True(t, StrFromGo("x").ToBoolean())
	assert.False(t, Float(math.NaN()).ToBoolean())
}
