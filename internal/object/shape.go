package object

import "sync"

// Shape is a node in a persistent property-layout tree (spec §3 Shape,
// §4.4 Shape transitions). Two objects built by inserting the same
// sequence of (key, attributes) pairs against the same prototype end up
// pointing at the same Shape, which is what makes property access on
// monomorphic object shapes fast and is the subject of testable
// property 4.
type Shape struct {
	parent      *Shape
	key         PropertyKey
	attrs       Attributes
	slot        int // -1 for the root shape; otherwise the storage index this node's property occupies
	proto       *Object
	mu          sync.Mutex
	transitions map[transitionKey]*Shape
	unique      bool // dictionary-mode marker, see Object.materializeDictionary
}

// NewRootShape creates a fresh root shape for the given prototype. A
// realm should cache one root shape per distinct prototype object (see
// ShapeTable) so that sibling objects sharing a prototype also share
// shape transitions.
func NewRootShape(proto *Object) *Shape {
	return &Shape{slot: -1, proto: proto, transitions: make(map[transitionKey]*Shape)}
}

// Prototype returns the prototype recorded at this shape's root.
func (s *Shape) Prototype() *Object { return s.proto }

// SlotCount returns how many storage slots a shape with this layout
// requires.
func (s *Shape) SlotCount() int { return s.slot + 1 }

// IsUnique reports whether this shape is a "dictionary" shape: one that
// has been detached from the transition tree because a property was
// deleted or reconfigured on some object using it (spec §4.4).
func (s *Shape) IsUnique() bool { return s.unique }

// Transition returns the child shape for inserting key with attrs,
// allocating one if this is the first time that (key, attrs) pair has
// been added from this shape.
func (s *Shape) Transition(key PropertyKey, attrs Attributes) *Shape {
	tk := transitionKey{key: key.comparable(), attrs: attrs}
	s.mu.Lock()
	defer s.mu.Unlock()
	if child, ok := s.transitions[tk]; ok {
		return child
	}
	child := &Shape{
		parent:      s,
		key:         key,
		attrs:       attrs,
		slot:        s.slot + 1,
		proto:       s.proto,
		transitions: make(map[transitionKey]*Shape),
	}
	s.transitions[tk] = child
	return child
}

// Find walks this shape's chain of insertions (not the prototype chain)
// looking for key, returning the owning shape node and true if present.
func (s *Shape) Find(key PropertyKey) (*Shape, bool) {
	for cur := s; cur != nil && cur.slot >= 0; cur = cur.parent {
		if cur.key.Equal(key) {
			return cur, true
		}
	}
	return nil, false
}

// uniqueShape builds a detached dictionary-mode shape carrying the same
// prototype, used once an object's properties no longer form a clean
// insertion tree (after delete or attribute reconfiguration).
func uniqueShape(proto *Object) *Shape {
	return &Shape{slot: -1, proto: proto, unique: true, transitions: make(map[transitionKey]*Shape)}
}

// ShapeTable caches one root Shape per prototype object so that objects
// sharing a prototype also share the root of their transition tree, as
// the spec requires ("the root shape per realm anchors the tree").
type ShapeTable struct {
	mu    sync.Mutex
	roots map[*Object]*Shape
}

// NewShapeTable creates an empty ShapeTable; a Realm owns one.
func NewShapeTable() *ShapeTable {
	return &ShapeTable{roots: make(map[*Object]*Shape)}
}

// RootFor returns the shared root shape for proto, creating one on
// first use.
func (t *ShapeTable) RootFor(proto *Object) *Shape {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.roots[proto]; ok {
		return s
	}
	s := NewRootShape(proto)
	t.roots[proto] = s
	return s
}
