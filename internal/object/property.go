package object

import "github.com/oxhq/jsengine/internal/jsstring"

// PropertyKey is either a string key or a symbol key (spec §4.3
// ToPropertyKey). Symbols are compared by identity (any comparable
// handle, typically an *object.Object wrapping a well-known or
// user-created Symbol).
type PropertyKey struct {
	str      *jsstring.String
	sym      any
	isSymbol bool
}

// Key builds a string PropertyKey.
func Key(s string) PropertyKey { return PropertyKey{str: jsstring.New(s)} }

// StringKey builds a PropertyKey from an existing *jsstring.String,
// avoiding a re-encode when the caller already has one (e.g. a Value
// already unwrapped via AsString).
func StringKey(s *jsstring.String) PropertyKey { return PropertyKey{str: s} }

// SymbolKey builds a symbol PropertyKey.
func SymbolKey(sym any) PropertyKey { return PropertyKey{sym: sym, isSymbol: true} }

// IsSymbol reports whether this key is a symbol key.
func (k PropertyKey) IsSymbol() bool { return k.isSymbol }

// String returns the underlying string for a string key. Callers must
// check !IsSymbol() first.
func (k PropertyKey) String() string {
	if k.str == nil {
		return ""
	}
	return k.str.String()
}

// Equal compares two PropertyKeys for use as map keys and shape
// transition lookups.
func (k PropertyKey) Equal(o PropertyKey) bool {
	if k.isSymbol != o.isSymbol {
		return false
	}
	if k.isSymbol {
		return k.sym == o.sym
	}
	if k.str == nil || o.str == nil {
		return k.str == o.str
	}
	return k.str.Equal(o.str)
}

// comparable is a cheap, hashable projection of PropertyKey suitable as
// a Go map key (shape transition tables, dictionary-mode storage).
type comparable struct {
	s   string
	sym any
	sk  bool
}

func (k PropertyKey) comparable() comparable {
	if k.isSymbol {
		return comparable{sym: k.sym, sk: true}
	}
	return comparable{s: k.String()}
}

// Attributes holds a property's writable/enumerable/configurable bits
// plus whether it is a data or accessor property (spec §3
// PropertyDescriptor).
type Attributes struct {
	Writable     bool
	Enumerable   bool
	Configurable bool
	IsAccessor   bool
}

// DataAttributes is a convenience constructor for the common
// writable+enumerable+configurable data property shape.
func DataAttributes(writable, enumerable, configurable bool) Attributes {
	return Attributes{Writable: writable, Enumerable: enumerable, Configurable: configurable}
}

// transitionKey is a shape transition table key: a property key plus the
// attributes it was added with (spec §4.4: transitions are keyed on
// (key, attributes)).
type transitionKey struct {
	key   comparable
	attrs Attributes
}
