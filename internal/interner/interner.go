// Package interner deduplicates identifier and string symbols into small
// integer handles so the rest of the engine can compare and hash names in
// O(1) instead of carrying string copies through every AST node and shape
// transition.
package interner

import "sync"

// Symbol is a non-zero handle identifying a unique string in an Interner's
// lifetime. Two symbols compare equal iff the underlying strings were
// byte-equal at intern time.
type Symbol uint32

// invalidSymbol is never handed out by Intern; it lets zero-value Symbol
// fields in structs mean "absent" unambiguously.
const invalidSymbol Symbol = 0

// Interner maps strings to Symbols and back. The zero value is not usable;
// construct with New. Safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	strings []string
	ids     map[string]Symbol
}

// New creates an Interner pre-seeded with the common ECMAScript keywords
// and property names, so those names get low, stable Symbols at startup.
func New() *Interner {
	in := &Interner{
		ids: make(map[string]Symbol, len(commonStrings)*2),
	}
	in.strings = append(in.strings, "") // index 0 unused, keeps Symbol non-zero
	for _, s := range commonStrings {
		in.intern(s)
	}
	return in
}

// Intern returns the existing Symbol for s, allocating a new one if this is
// the first time s has been seen. Idempotent: repeated calls with the same
// string return the same Symbol.
func (in *Interner) Intern(s string) Symbol {
	in.mu.RLock()
	if sym, ok := in.ids[s]; ok {
		in.mu.RUnlock()
		return sym
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	return in.intern(s)
}

// intern must be called with mu held for writing.
func (in *Interner) intern(s string) Symbol {
	if sym, ok := in.ids[s]; ok {
		return sym
	}
	sym := Symbol(len(in.strings))
	in.strings = append(in.strings, s)
	in.ids[s] = sym
	return sym
}

// Resolve returns the string a Symbol was interned from. Panics on an
// out-of-range Symbol (for example one from a different Interner), which
// indicates a bug rather than recoverable user input. The zero Symbol
// resolves to the empty string.
func (in *Interner) Resolve(sym Symbol) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.strings[sym]
}

// Lookup reports whether s has already been interned, without allocating a
// new Symbol if not.
func (in *Interner) Lookup(s string) (Symbol, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	sym, ok := in.ids[s]
	return sym, ok
}

// commonStrings is the compile-time set of keywords and frequently-accessed
// property names resolved to low, stable symbol handles.
var commonStrings = []string{
	"prototype", "constructor", "length", "name", "message", "value",
	"done", "next", "return", "throw", "this", "arguments", "undefined",
	"null", "true", "false", "function", "class", "var", "let", "const",
	"Symbol.iterator", "Symbol.asyncIterator",
}
