package object

import (
	"testing"

	"github.com/oxhq/jsengine/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeSharingForIdenticalInsertionSequences(t *testing.T) {
	table := NewShapeTable()
	root := table.RootFor(nil)

	a := New(root)
	b := New(root)

	a.DefineOwnProperty(Key("x"), value.Int(1), DataAttributes(true, true, true))
	a.DefineOwnProperty(Key("y"), value.Int(2), DataAttributes(true, true, true))

	b.DefineOwnProperty(Key("x"), value.Int(10), DataAttributes(true, true, true))
	b.DefineOwnProperty(Key("y"), value.Int(20), DataAttributes(true, true, true))

	assert.Same(t, a.shape, b.shape, "objects built from the same (key,attrs) sequence off the same root must share a shape")
}

func TestShapeDivergesOnDifferentAttributes(t *testing.T) {
	table := NewShapeTable()
	root := table.RootFor(nil)

	a := New(root)
	b := New(root)
	a.DefineOwnProperty(Key("x"), value.Int(1), DataAttributes(true, true, true))
	b.DefineOwnProperty(Key("x"), value.Int(1), DataAttributes(false, true, true))

	assert.NotSame(t, a.shape, b.shape)
}

func TestGetSetRoundTrip(t *testing.T) {
	table := NewShapeTable()
	o := New(table.RootFor(nil))
	ok, err := o.Set(Key("a"), value.Int(5), ToValue(o))
	require.NoError(t, err)
	require.True(t, ok)

	v, err := o.Get(Key("a"), ToValue(o))
	require.NoError(t, err)
	assert.Equal(t, int32(5), v.AsInt32())
}

func TestGetWalksPrototypeChain(t *testing.T) {
	table := NewShapeTable()
	proto := New(table.RootFor(nil))
	proto.DefineOwnProperty(Key("inherited"), value.Int(7), DataAttributes(true, true, true))

	child := New(table.RootFor(proto))
	v, err := child.Get(Key("inherited"), ToValue(child))
	require.NoError(t, err)
	assert.Equal(t, int32(7), v.AsInt32())
}

func TestDeleteDetachesToDictionaryMode(t *testing.T) {
	table := NewShapeTable()
	o := New(table.RootFor(nil))
	o.DefineOwnProperty(Key("a"), value.Int(1), DataAttributes(true, true, true))
	o.DefineOwnProperty(Key("b"), value.Int(2), DataAttributes(true, true, true))

	ok := o.Delete(Key("a"))
	require.True(t, ok)
	assert.True(t, o.shape.IsUnique())

	_, found := o.GetOwnProperty(Key("a"))
	assert.False(t, found)
	v, _ := o.Get(Key("b"), ToValue(o))
	assert.Equal(t, int32(2), v.AsInt32())
}

func TestNonConfigurableDeleteFails(t *testing.T) {
	table := NewShapeTable()
	o := New(table.RootFor(nil))
	o.DefineOwnProperty(Key("a"), value.Int(1), DataAttributes(true, true, false))
	assert.False(t, o.Delete(Key("a")))
}

func TestNonExtensibleRejectsNewProperty(t *testing.T) {
	table := NewShapeTable()
	o := New(table.RootFor(nil))
	o.PreventExtensions()
	ok, err := o.Set(Key("x"), value.Int(1), ToValue(o))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArrayElementsAndLength(t *testing.T) {
	table := NewShapeTable()
	arr := NewArray(table.RootFor(nil))
	arr.Push(value.Int(1))
	arr.Push(value.Int(2))
	assert.Equal(t, 2, arr.Length())

	lenVal, err := arr.Get(Key("length"), ToValue(arr))
	require.NoError(t, err)
	assert.Equal(t, int32(2), lenVal.AsInt32())

	v, err := arr.Get(Key("0"), ToValue(arr))
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.AsInt32())
}

func TestSetPrototypeOfRejectsCycle(t *testing.T) {
	table := NewShapeTable()
	a := New(table.RootFor(nil))
	b := New(table.RootFor(a))
	assert.False(t, b.SetPrototypeOf(b))
	assert.False(t, a.SetPrototypeOf(b) && b.SetPrototypeOf(a))
}

func TestStrictEqualsUsesObjectIdentity(t *testing.T) {
	table := NewShapeTable()
	a := New(table.RootFor(nil))
	b := New(table.RootFor(nil))
	assert.True(t, value.StrictEquals(ToValue(a), ToValue(a)))
	assert.False(t, value.StrictEquals(ToValue(a), ToValue(b)))
}

func TestToNumberFromString(t *testing.T) {
	v, err := ToNumber(value.StrFromGo("42"))
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsFloat64())
}

func TestToStringFromNumber(t *testing.T) {
	s, err := ToString(value.Int(7))
	require.NoError(t, err)
	assert.Equal(t, "7", s.String())
}
