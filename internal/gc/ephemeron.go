package gc

// Ephemeron models a (weak key -> value) pair, the primitive WeakMap and
// WeakRef-with-finalizer caches are built from (spec §3 Ephemeron). The
// key is held weakly; traceValue is invoked to mark the value's own
// outgoing references, but only once the collector has proven the key
// itself reachable — so a value reachable only through its own
// ephemeron's key does not keep that key alive.
type Ephemeron struct {
	key        *entry
	traceValue func(*Tracer)
	resolved   bool
}

// AddEphemeron registers an ephemeron on the heap. key is the weak key;
// traceValue should call tracer.Mark on every Handle the value directly
// holds. traceValue is only invoked during collection, and only after
// key has been marked reachable by some other root.
func (h *Heap) AddEphemeron(key *Handle, traceValue func(*Tracer)) *Ephemeron {
	h.mu.Lock()
	defer h.mu.Unlock()
	eph := &Ephemeron{key: key.e, traceValue: traceValue}
	h.ephemeral = append(h.ephemeral, eph)
	return eph
}

// KeyAlive reports whether this ephemeron's key is still live, without
// forcing a collection.
func (e *Ephemeron) KeyAlive() bool {
	return e.key != nil && !e.key.collected
}
