package gc

// traceMode selects what a Tracer does when Mark is called: count a
// non-root discovery, or actually flip the mark bit and enqueue for
// further tracing.
type traceMode uint8

const (
	traceModeNonRoot traceMode = iota
	traceModeMark
)

// Tracer is passed to Allocation.Trace implementations. They call Mark
// once per outgoing Handle; the Tracer itself decides (based on which
// collection phase it belongs to) whether that's a non-root count bump
// or a real reachability mark.
type Tracer struct {
	mode     traceMode
	worklist *[]*entry
}

// Mark records h as reachable from the allocation currently being
// traced. During the non-root counting pass this only increments a
// counter; during the mark pass it flips the entry's mark bit (once)
// and schedules it for its own Trace call.
func (t *Tracer) Mark(h *Handle) {
	if h == nil || h.e == nil {
		return
	}
	switch t.mode {
	case traceModeNonRoot:
		h.e.nonRootMarks++
	case traceModeMark:
		if !h.e.marked {
			h.e.marked = true
			*t.worklist = append(*t.worklist, h.e)
		}
	}
}

// MarkWeak accepts a Weak reference from an Allocation's Trace and does
// nothing with it: weak references are neither counted in the non-root
// pass nor marked, so they never keep anything alive. It exists only for
// symmetry with Mark.
func (t *Tracer) MarkWeak(w *Weak) {
	_ = w // weak references are never traced; they do not keep targets alive
}
