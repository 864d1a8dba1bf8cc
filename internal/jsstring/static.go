package jsstring

import "sync"

// pool holds the common static strings every realm shares, resolved once
// so repeated lookups (e.g. "prototype", "constructor") return the exact
// same *String pointer and therefore compare via Equal's s == other fast
// path in O(1) instead of walking code units.
var (
	poolMu sync.Mutex
	pool   = map[string]*String{}
)

// commonStaticNames is a subset of interner.commonStrings: the names the
// engine itself references constantly during property lookup.
var commonStaticNames = []string{
	"prototype", "constructor", "length", "name", "message", "value",
	"done", "next", "return", "throw", "this", "arguments", "undefined",
}

func init() {
	for _, name := range commonStaticNames {
		pool[name] = New(name)
	}
}

// Static returns the canonical *String for one of the engine's common
// property names, falling back to New for anything not in the pool.
func Static(name string) *String {
	poolMu.Lock()
	s, ok := pool[name]
	poolMu.Unlock()
	if ok {
		return s
	}
	return New(name)
}
