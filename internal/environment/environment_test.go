package environment

import (
	"testing"

	"github.com/oxhq/jsengine/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTDZReadBeforeInitThrows(t *testing.T) {
	r := NewDeclarative(nil)
	require.NoError(t, r.CreateMutableBinding("x", false))

	_, err := GetBindingValue(r, "x")
	assert.ErrorIs(t, err, ErrUninitializedBinding)
}

func TestTDZClearsAfterInitialize(t *testing.T) {
	r := NewDeclarative(nil)
	require.NoError(t, r.CreateMutableBinding("x", false))
	require.NoError(t, r.InitializeBinding("x", value.Int(1)))

	v, err := GetBindingValue(r, "x")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.AsInt32())
}

func TestLookupWalksOuterChain(t *testing.T) {
	outer := NewDeclarative(nil)
	require.NoError(t, outer.CreateMutableBinding("a", false))
	require.NoError(t, outer.InitializeBinding("a", value.Int(9)))

	inner := NewDeclarative(outer)
	v, err := GetBindingValue(inner, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(9), v.AsInt32())
}

func TestUnresolvedBindingError(t *testing.T) {
	r := NewDeclarative(nil)
	_, err := GetBindingValue(r, "nope")
	assert.ErrorIs(t, err, ErrUnresolvable)
}

func TestImmutableBindingRejectsAssignment(t *testing.T) {
	r := NewDeclarative(nil)
	require.NoError(t, r.CreateImmutableBinding("c"))
	require.NoError(t, r.InitializeBinding("c", value.Int(1)))

	err := SetMutableBinding(r, "c", value.Int(2))
	assert.ErrorIs(t, err, ErrImmutableBinding)
}

func TestDeleteBindingRespectsDeletableFlag(t *testing.T) {
	r := NewDeclarative(nil)
	require.NoError(t, r.CreateMutableBinding("x", false))
	require.NoError(t, r.InitializeBinding("x", value.Int(1)))
	assert.False(t, r.DeleteBinding("x"))

	require.NoError(t, r.CreateMutableBinding("y", true))
	require.NoError(t, r.InitializeBinding("y", value.Int(1)))
	assert.True(t, r.DeleteBinding("y"))
}

func TestArrowFunctionDefersThisToOuterFunctionEnv(t *testing.T) {
	fnEnv := NewFunction(nil, ThisInitialized, value.StrFromGo("outer-this"))
	arrowEnv := NewFunction(fnEnv, ThisLexical, value.Undefined)

	v, err := This(arrowEnv)
	require.NoError(t, err)
	assert.Equal(t, "outer-this", v.AsString().String())
}

func TestDerivedConstructorThisUninitializedBeforeSuper(t *testing.T) {
	fnEnv := NewFunction(nil, ThisUninitialized, value.Undefined)
	_, err := This(fnEnv)
	assert.ErrorIs(t, err, ErrUninitializedBinding)

	require.NoError(t, BindThis(fnEnv, value.Int(1)))
	v, err := This(fnEnv)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.AsInt32())
}

func TestPoisonPropagatesToInnerEnvironments(t *testing.T) {
	outer := NewDeclarative(nil)
	inner := NewDeclarative(outer)
	assert.False(t, inner.Poisoned())
	outer.Poison()
	assert.True(t, inner.Poisoned())
}
