// Package object implements the managed object model: shape-based
// property storage, the prototype chain, and the internal-methods
// dispatch that gives ordinary objects, arrays, and function objects
// their different behaviour without inheritance (spec §4.4, §9
// "Polymorphic object behaviour").
package object

import (
	"fmt"

	"github.com/oxhq/jsengine/internal/gc"
	"github.com/oxhq/jsengine/internal/value"
)

func init() {
	value.RegisterObjectComparator(func(a, b any) bool {
		oa, _ := a.(*Object)
		ob, _ := b.(*Object)
		return oa == ob
	})
}

// Kind discriminates the special object kinds referenced by spec §3 and
// §9 ("ordinary, array, proxy, bound function, typed array, module
// namespace"). The core implements ordinary, array, and function kinds
// directly and tags error and promise objects; there are no separate
// Proxy/TypedArray/Module-namespace kinds, and any other special object
// uses KindOther.
type Kind uint8

const (
	KindOrdinary Kind = iota
	KindArray
	KindFunction
	KindError
	KindPromise
	KindOther
)

// Callable is implemented by whatever backs a function object's [[Call]]
// internal method: a VM closure, a generator driver, or a host native
// function. Kept as an interface here (rather than a concrete closure
// type) so package object never needs to import internal/vm or
// internal/compiler.
type Callable interface {
	Call(this value.Value, args []value.Value) (value.Value, error)
}

// Constructable is implemented by function objects usable with `new`.
type Constructable interface {
	Construct(args []value.Value, newTarget *Object) (*Object, error)
}

// PropertyCell is the dictionary-mode storage cell for one property:
// used once an object's shape has been detached from the shared
// transition tree (spec §4.4 delete/reconfigure).
type PropertyCell struct {
	Value  value.Value
	Attrs  Attributes
	Getter Callable
	Setter Callable
}

// Object is one heap allocation in the managed object model (spec §3
// Object).
type Object struct {
	shape      *Shape
	storage    []value.Value
	accessors  map[int]*PropertyCell // slot -> getter/setter, for accessor properties in shape mode
	dict       map[comparable]*PropertyCell
	dictOrder  []comparable // insertion order, for deterministic OwnPropertyKeys in dictionary mode
	elements   []value.Value // dense indexed storage for array-kind objects
	kind       Kind
	extensible bool
	call       Callable
	construct  Constructable
	class      string // diagnostic class name (e.g. "Array", "Function"), for Object.prototype.toString-style reporting
	host       any    // opaque slot for the owning layer (vm closure, native fn, promise state, ...)
}

// New creates an ordinary, extensible object with the given root shape
// (normally obtained from a ShapeTable keyed on the desired prototype).
func New(root *Shape) *Object {
	return &Object{shape: root, extensible: true, kind: KindOrdinary}
}

// NewArray creates an extensible array-kind object.
func NewArray(root *Shape) *Object {
	o := New(root)
	o.kind = KindArray
	return o
}

// NewFunction creates a function-kind object backed by call (and
// optionally construct).
func NewFunction(root *Shape, call Callable, construct Constructable) *Object {
	o := New(root)
	o.kind = KindFunction
	o.call = call
	o.construct = construct
	return o
}

// Kind reports this object's special kind.
func (o *Object) Kind() Kind { return o.kind }

// SetClassName records a diagnostic class name.
func (o *Object) SetClassName(name string) { o.class = name }

// ClassName returns the diagnostic class name, defaulting to "Object".
func (o *Object) ClassName() string {
	if o.class == "" {
		return "Object"
	}
	return o.class
}

// Host returns the opaque host-owned payload (e.g. a promise's internal
// state, a Date's time value) a specialised object kind attaches.
func (o *Object) Host() any      { return o.host }
func (o *Object) SetHost(h any)  { o.host = h }

// Trace implements gc.Allocation: an object's outgoing references are
// its prototype, its property values, its indexed elements, and its
// accessor function objects. The caller (whoever owns the gc.Handle for
// this Object) is responsible for wiring object handles through a
// tracer-friendly wrapper; see internal/vm for how CodeBlocks/closures
// register their owned objects. Objects that only ever hold Values (not
// raw Handles) trace by asking the heap to resolve each Value's object
// payload, which is why Trace here takes a resolver rather than marking
// Handles directly.
func (o *Object) Trace(mark func(value.Value)) {
	if p := o.Prototype(); p != nil {
		mark(value.FromObject(p))
	}
	markFn := func(c Callable) {
		if fn, ok := c.(*Object); ok {
			mark(value.FromObject(fn))
		}
	}
	for _, v := range o.storage {
		mark(v)
	}
	for _, v := range o.elements {
		mark(v)
	}
	for _, cell := range o.accessors {
		markFn(cell.Getter)
		markFn(cell.Setter)
	}
	if o.dict != nil {
		for _, cell := range o.dict {
			mark(cell.Value)
			markFn(cell.Getter)
			markFn(cell.Setter)
		}
	}
}

// IsExtensible reports whether new properties may be added.
func (o *Object) IsExtensible() bool { return o.extensible }

// PreventExtensions flips the extensible flag off (spec §4.4
// Extensibility and integrity). Already-present properties are
// unaffected.
func (o *Object) PreventExtensions() bool {
	o.extensible = false
	return true
}

// Prototype returns the object's prototype, or nil for the null
// prototype.
func (o *Object) Prototype() *Object { return o.shape.Prototype() }

// SetPrototypeOf changes the object's prototype. Per spec this
// transitions to a shape with the new prototype; implemented here by
// moving the object into a fresh unique (dictionary) shape carrying all
// of its current own properties, which is always correct (if not always
// maximally shape-shared) and rejects prototype cycles.
func (o *Object) SetPrototypeOf(proto *Object) bool {
	for p := proto; p != nil; p = p.Prototype() {
		if p == o {
			return false
		}
	}
	o.materializeDictionary()
	o.shape = &Shape{slot: -1, proto: proto, unique: true, transitions: make(map[transitionKey]*Shape)}
	return true
}

// GetOwnProperty implements the ordinary [[GetOwnProperty]] internal
// method (spec §4.4).
func (o *Object) GetOwnProperty(key PropertyKey) (PropertyCell, bool) {
	if o.kind == KindArray {
		if idx, ok := arrayIndex(key); ok && idx < len(o.elements) {
			return PropertyCell{Value: o.elements[idx], Attrs: DataAttributes(true, true, true)}, true
		}
		if key.String() == "length" {
			return PropertyCell{Value: value.Number(float64(len(o.elements))), Attrs: DataAttributes(true, false, false)}, true
		}
	}
	if o.dict != nil {
		if cell, ok := o.dict[key.comparable()]; ok {
			return *cell, true
		}
		return PropertyCell{}, false
	}
	shapeNode, ok := o.shape.Find(key)
	if !ok {
		return PropertyCell{}, false
	}
	if shapeNode.attrs.IsAccessor {
		if acc, ok := o.accessors[shapeNode.slot]; ok {
			return *acc, true
		}
		return PropertyCell{Attrs: shapeNode.attrs}, true
	}
	return PropertyCell{Value: o.storage[shapeNode.slot], Attrs: shapeNode.attrs}, true
}

// HasOwnProperty reports whether key is an own property.
func (o *Object) HasOwnProperty(key PropertyKey) bool {
	_, ok := o.GetOwnProperty(key)
	return ok
}

// Get implements the ordinary [[Get]] internal method: own property
// lookup, falling back to the prototype chain, with accessor dispatch.
func (o *Object) Get(key PropertyKey, receiver value.Value) (value.Value, error) {
	cell, ok := o.GetOwnProperty(key)
	if !ok {
		proto := o.Prototype()
		if proto == nil {
			return value.Undefined, nil
		}
		return proto.Get(key, receiver)
	}
	if cell.Attrs.IsAccessor {
		if cell.Getter == nil {
			return value.Undefined, nil
		}
		return cell.Getter.Call(receiver, nil)
	}
	return cell.Value, nil
}

// Set implements the ordinary [[Set]] internal method. It takes no strict
// flag: a failed write (non-writable / non-extensible target) returns
// (false, nil), and the caller decides whether that throws or is
// silently ignored.
func (o *Object) Set(key PropertyKey, v value.Value, receiver value.Value) (bool, error) {
	cell, ok := o.GetOwnProperty(key)
	if ok {
		if cell.Attrs.IsAccessor {
			if cell.Setter == nil {
				return false, nil
			}
			_, err := cell.Setter.Call(receiver, []value.Value{v})
			return err == nil, err
		}
		if !cell.Attrs.Writable {
			return false, nil
		}
		return o.defineDataOwn(key, v, cell.Attrs, true)
	}
	if proto := o.Prototype(); proto != nil {
		if protoCell, found := proto.GetOwnProperty(key); found {
			if protoCell.Attrs.IsAccessor {
				if protoCell.Setter == nil {
					return false, nil
				}
				_, err := protoCell.Setter.Call(receiver, []value.Value{v})
				return err == nil, err
			}
			if !protoCell.Attrs.Writable {
				return false, nil
			}
		}
	}
	if !o.extensible {
		return false, nil
	}
	return o.defineDataOwn(key, v, DataAttributes(true, true, true), true)
}

// DefineOwnProperty implements [[DefineOwnProperty]] for a plain data
// property with explicit attributes (used by object/array literals,
// Object.defineProperty, and class field installation).
func (o *Object) DefineOwnProperty(key PropertyKey, v value.Value, attrs Attributes) bool {
	ok, _ := o.defineDataOwn(key, v, attrs, false)
	return ok
}

// DefineAccessorProperty installs an accessor property.
func (o *Object) DefineAccessorProperty(key PropertyKey, getter, setter Callable, enumerable, configurable bool) bool {
	attrs := Attributes{IsAccessor: true, Enumerable: enumerable, Configurable: configurable}
	if o.kind == KindArray {
		if _, ok := arrayIndex(key); ok {
			return false // arrays don't support accessor elements in this model
		}
	}
	if o.dict != nil {
		c := o.dict[key.comparable()]
		if c == nil {
			if !o.extensible {
				return false
			}
			c = &PropertyCell{}
			o.dict[key.comparable()] = c
			o.dictOrder = append(o.dictOrder, key.comparable())
		}
		c.Attrs = attrs
		c.Getter, c.Setter = getter, setter
		return true
	}
	existing, found := o.shape.Find(key)
	if found {
		o.materializeDictionary()
		return o.DefineAccessorProperty(key, getter, setter, enumerable, configurable)
	}
	if !o.extensible {
		return false
	}
	child := o.shape.Transition(key, attrs)
	o.shape = child
	for len(o.storage) < child.SlotCount() {
		o.storage = append(o.storage, value.Undefined)
	}
	if o.accessors == nil {
		o.accessors = make(map[int]*PropertyCell)
	}
	o.accessors[child.slot] = &PropertyCell{Attrs: attrs, Getter: getter, Setter: setter}
	_ = existing
	return true
}

func (o *Object) defineDataOwn(key PropertyKey, v value.Value, attrs Attributes, isAssignment bool) (bool, error) {
	if o.kind == KindArray {
		if idx, ok := arrayIndex(key); ok {
			for len(o.elements) <= idx {
				o.elements = append(o.elements, value.Undefined)
			}
			o.elements[idx] = v
			return true, nil
		}
		if key.String() == "length" {
			n := int(v.AsFloat64())
			if n < len(o.elements) {
				o.elements = o.elements[:n]
			} else {
				for len(o.elements) < n {
					o.elements = append(o.elements, value.Undefined)
				}
			}
			return true, nil
		}
	}
	if o.dict != nil {
		c := o.dict[key.comparable()]
		if c == nil {
			if !isAssignment && !o.extensible {
				return false, nil
			}
			c = &PropertyCell{}
			o.dict[key.comparable()] = c
			o.dictOrder = append(o.dictOrder, key.comparable())
		}
		c.Value = v
		c.Attrs = attrs
		return true, nil
	}
	node, found := o.shape.Find(key)
	if found {
		if !isAssignment && node.attrs != attrs {
			// Reconfiguring attributes on an existing property detaches
			// this object from the shared transition tree (spec §4.4).
			o.materializeDictionary()
			return o.defineDataOwn(key, v, attrs, isAssignment)
		}
		o.storage[node.slot] = v
		return true, nil
	}
	child := o.shape.Transition(key, attrs)
	o.shape = child
	for len(o.storage) < child.SlotCount() {
		o.storage = append(o.storage, value.Undefined)
	}
	o.storage[child.slot] = v
	return true, nil
}

// Delete implements [[Delete]]. Deleting always detaches the object
// from the shared shape-transition tree into dictionary mode (spec
// §4.4: "On delete ... convert to a unique (dictionary) shape").
func (o *Object) Delete(key PropertyKey) bool {
	if o.kind == KindArray {
		if idx, ok := arrayIndex(key); ok && idx < len(o.elements) {
			o.elements[idx] = value.Undefined
			return true
		}
	}
	cell, ok := o.GetOwnProperty(key)
	if !ok {
		return true // deleting a non-existent property succeeds
	}
	if !cell.Attrs.Configurable {
		return false
	}
	o.materializeDictionary()
	delete(o.dict, key.comparable())
	for i, k := range o.dictOrder {
		if k == key.comparable() {
			o.dictOrder = append(o.dictOrder[:i], o.dictOrder[i+1:]...)
			break
		}
	}
	return true
}

// materializeDictionary copies this object's own properties out of
// shape-slot storage into the dictionary map and marks its shape
// unique, so future inserts/deletes no longer touch the shared
// transition tree.
func (o *Object) materializeDictionary() {
	if o.dict != nil {
		return
	}
	o.dict = make(map[comparable]*PropertyCell)
	type ordered struct {
		key  PropertyKey
		cell PropertyCell
	}
	var all []ordered
	for cur := o.shape; cur != nil && cur.slot >= 0; cur = cur.parent {
		cell := PropertyCell{Attrs: cur.attrs}
		if cur.attrs.IsAccessor {
			if acc, ok := o.accessors[cur.slot]; ok {
				cell.Getter, cell.Setter = acc.Getter, acc.Setter
			}
		} else {
			cell.Value = o.storage[cur.slot]
		}
		all = append(all, ordered{key: cur.key, cell: cell})
	}
	for i := len(all) - 1; i >= 0; i-- {
		c := all[i].cell
		o.dict[all[i].key.comparable()] = &c
		o.dictOrder = append(o.dictOrder, all[i].key.comparable())
	}
	o.shape = uniqueShape(o.shape.Prototype())
	o.storage = nil
	o.accessors = nil
}

// OwnPropertyKeys implements a simplified [[OwnPropertyKeys]]: for an
// array-kind object, its element indices ascending and then "length"
// come first; all other keys follow in insertion order, taken from the
// shape chain (or dictOrder once materialized). String and symbol keys
// are interleaved as inserted, and integer-like keys of non-array
// objects are not moved ahead of other strings.
func (o *Object) OwnPropertyKeys() []PropertyKey {
	var keys []PropertyKey
	if o.kind == KindArray {
		for i := range o.elements {
			keys = append(keys, intKey(i))
		}
		keys = append(keys, Key("length"))
	}
	if o.dict != nil {
		for _, c := range o.dictOrder {
			keys = append(keys, keyFromComparable(c))
		}
		return keys
	}
	var chain []PropertyKey
	for cur := o.shape; cur != nil && cur.slot >= 0; cur = cur.parent {
		chain = append(chain, cur.key)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		keys = append(keys, chain[i])
	}
	return keys
}

func keyFromComparable(c comparable) PropertyKey {
	if c.sk {
		return PropertyKey{sym: c.sym, isSymbol: true}
	}
	return Key(c.s)
}

func arrayIndex(key PropertyKey) (int, bool) {
	if key.isSymbol {
		return 0, false
	}
	s := key.String()
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if s != "0" && s[0] == '0' {
		return 0, false
	}
	return n, true
}

func intKey(i int) PropertyKey {
	return Key(fmt.Sprintf("%d", i))
}

// Length returns the number of dense elements for an array-kind object.
func (o *Object) Length() int { return len(o.elements) }

// Element returns the i'th dense element of an array-kind object.
func (o *Object) Element(i int) value.Value {
	if i < 0 || i >= len(o.elements) {
		return value.Undefined
	}
	return o.elements[i]
}

// Push appends to an array-kind object's dense storage.
func (o *Object) Push(v value.Value) {
	o.elements = append(o.elements, v)
}

// Elements exposes the dense storage slice directly, for iteration and
// built-in method bodies outside the core's scope (spec §1: "the full
// standard library ... [is] out of scope; their shapes ... are part of
// the core").
func (o *Object) Elements() []value.Value { return o.elements }

// IsCallable reports whether [[Call]] is present.
func (o *Object) IsCallable() bool { return o.call != nil }

// IsConstructor reports whether [[Construct]] is present.
func (o *Object) IsConstructor() bool { return o.construct != nil }

// Call invokes [[Call]]. Callers must check IsCallable first or be
// ready to handle the ErrNotCallable below.
func (o *Object) Call(this value.Value, args []value.Value) (value.Value, error) {
	if o.call == nil {
		return value.Undefined, ErrNotCallable
	}
	return o.call.Call(this, args)
}

// Construct invokes [[Construct]].
func (o *Object) Construct(args []value.Value, newTarget *Object) (*Object, error) {
	if o.construct == nil {
		return nil, ErrNotConstructor
	}
	return o.construct.Construct(args, newTarget)
}

// ErrNotCallable and ErrNotConstructor are the sentinel Go errors the VM
// translates into a thrown TypeError at the call site.
var (
	ErrNotCallable    = fmt.Errorf("object is not callable")
	ErrNotConstructor = fmt.Errorf("object is not a constructor")
)

// Wrap returns v as an *Object, or (nil, false) if v does not hold one.
func Wrap(v value.Value) (*Object, bool) {
	if !v.IsObject() {
		return nil, false
	}
	o, ok := v.AsObject().(*Object)
	return o, ok
}

// ToValue wraps o as a value.Value of kind Object.
func ToValue(o *Object) value.Value {
	return value.FromObject(o)
}

var _ gc.Allocation = (*traceAdapter)(nil)

// traceAdapter lets an *Object be registered directly with a gc.Heap:
// heap.Alloc expects a gc.Allocation (Trace(*gc.Tracer)/Finalize()), but
// Object.Trace reports Values rather than gc.Handles since an Object
// doesn't know which Handle backs a Value it holds — that mapping lives
// in whichever package allocates objects on the heap (internal/vm/
// internal/realm), which is why they wrap Objects with an adapter that
// closes over a Value->Handle resolver before calling heap.Alloc.
type traceAdapter struct {
	obj      *Object
	resolve  func(value.Value) *gc.Handle
	finalize func(*Object)
}

// NewHeapAllocation builds a gc.Allocation for obj given a resolver that
// maps a Value back to the gc.Handle that roots its underlying Object
// (or nil for non-object Values, which Trace simply skips).
func NewHeapAllocation(obj *Object, resolve func(value.Value) *gc.Handle, finalize func(*Object)) gc.Allocation {
	return &traceAdapter{obj: obj, resolve: resolve, finalize: finalize}
}

func (a *traceAdapter) Trace(tracer *gc.Tracer) {
	a.obj.Trace(func(v value.Value) {
		if h := a.resolve(v); h != nil {
			tracer.Mark(h)
		}
	})
}

func (a *traceAdapter) Finalize() {
	if a.finalize != nil {
		a.finalize(a.obj)
	}
}
