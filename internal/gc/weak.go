package gc

// Weak is a non-owning reference to a heap allocation: it never
// contributes to the allocation's root count, so holding a Weak alone
// does not keep the target alive. Double-dropping (there is nothing to
// drop) and upgrading after collection are both no-ops/failures rather
// than panics (spec §4.2 Failure modes).
type Weak struct {
	e *entry
}

// Upgrade returns a new rooted Handle to the target, or (nil, false) if
// the target has already been collected.
func (w *Weak) Upgrade() (*Handle, bool) {
	if w == nil || w.e == nil || w.e.collected {
		return nil, false
	}
	w.e.roots++
	return &Handle{e: w.e}, true
}

// Alive reports whether the target has not yet been collected, without
// creating a new root.
func (w *Weak) Alive() bool {
	return w != nil && w.e != nil && !w.e.collected
}
