package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// node is a minimal Allocation used to build object graphs in tests.
type node struct {
	children  []*Handle
	finalized *bool
}

func (n *node) Trace(t *Tracer) {
	for _, c := range n.children {
		t.Mark(c)
	}
}

func (n *node) Finalize() {
	if n.finalized != nil {
		*n.finalized = true
	}
}

func newNode(h *Heap) (*node, *Handle) {
	n := &node{}
	return n, h.Alloc(n)
}

func TestRootSurvivesCollection(t *testing.T) {
	h := New(1000)
	_, handle := newNode(h)
	require.Equal(t, 1, h.Len())
	h.ForceCollect()
	assert.Equal(t, 1, h.Len())
	_ = handle
}

func TestUnreachableIsCollected(t *testing.T) {
	h := New(1000)
	var finalized bool
	n := &node{finalized: &finalized}
	handle := h.Alloc(n)
	handle.Drop()
	h.ForceCollect()
	assert.Equal(t, 0, h.Len())
	assert.True(t, finalized)
}

func TestReferenceCycleWithNoRootIsCollected(t *testing.T) {
	h := New(1000)
	var aFin, bFin bool
	a := &node{finalized: &aFin}
	aHandle := h.Alloc(a)
	b := &node{finalized: &bFin}
	bHandle := h.Alloc(b)

	// a -> b -> a, a cycle.
	a.children = []*Handle{bHandle.Clone()}
	b.children = []*Handle{aHandle.Clone()}

	// Drop both external roots; only the cycle's internal references remain.
	aHandle.Drop()
	bHandle.Drop()

	h.ForceCollect()
	assert.Equal(t, 0, h.Len())
	assert.True(t, aFin)
	assert.True(t, bFin)
}

func TestReachableFromRootSurvives(t *testing.T) {
	h := New(1000)
	child, childHandle := newNode(h)
	_ = child
	parent := &node{children: []*Handle{childHandle.Clone()}}
	parentHandle := h.Alloc(parent)
	childHandle.Drop() // only reachable via parent now

	h.ForceCollect()
	assert.Equal(t, 2, h.Len())
	_ = parentHandle
}

func TestWeakUpgradeFailsAfterCollection(t *testing.T) {
	h := New(1000)
	n := &node{}
	handle := h.Alloc(n)
	weak := handle.Downgrade()
	handle.Drop()
	h.ForceCollect()

	_, ok := weak.Upgrade()
	assert.False(t, ok)
}

func TestWeakUpgradeSucceedsWhileAlive(t *testing.T) {
	h := New(1000)
	n := &node{}
	handle := h.Alloc(n)
	weak := handle.Downgrade()

	upgraded, ok := weak.Upgrade()
	require.True(t, ok)
	assert.Same(t, n, upgraded.Object())
}

func TestEphemeronValueCollectedWhenKeyDies(t *testing.T) {
	h := New(1000)
	var valFin bool
	key := &node{}
	keyHandle := h.Alloc(key)

	val := &node{finalized: &valFin}
	valHandle := h.Alloc(val)
	valHandle.Drop() // only reachable through the ephemeron

	h.AddEphemeron(keyHandle, func(tr *Tracer) {
		tr.Mark(valHandle)
	})

	keyHandle.Drop() // key now also unreachable
	h.ForceCollect()

	assert.True(t, valFin, "ephemeron value should be collected once its key is unreachable")
}

func TestEphemeronValueSurvivesWhileKeyReachable(t *testing.T) {
	h := New(1000)
	key := &node{}
	keyHandle := h.Alloc(key)

	val := &node{}
	valHandle := h.Alloc(val)
	valHandle.Drop()

	h.AddEphemeron(keyHandle, func(tr *Tracer) {
		tr.Mark(valHandle)
	})

	h.ForceCollect()
	assert.Equal(t, 2, h.Len(), "key (rooted) and value (via ephemeron) should both survive")
}

func TestMaybeCollectRespectsThreshold(t *testing.T) {
	h := New(2)
	h.Alloc(&node{})
	stats := h.MaybeCollect()
	assert.Equal(t, Stats{}, stats, "should not collect below threshold")

	h.Alloc(&node{})
	stats = h.MaybeCollect()
	assert.NotEqual(t, Stats{}, stats, "should collect once threshold reached")
}
