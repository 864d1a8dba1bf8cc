// Package gc implements the engine's tracing, non-moving mark-sweep
// collector (spec §4.2). Liveness uses the root-counted tracing scheme:
// every heap allocation carries an explicit root count (incremented by
// Handle.Clone, decremented by Handle.Drop, mirroring a Gc<T> smart
// pointer); a collection cycle first counts, for every allocation, how
// many times it is discovered as a *non-root* (i.e. as a child of some
// other allocation's Trace), then treats an allocation as a genuine root
// only if its root count exceeds that discovered count. This lets the
// collector reclaim reference cycles that have no external root, without
// requiring a separate cycle detector.
package gc

import (
	"fmt"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
)

// Allocation is implemented by every type the heap manages: GC objects,
// environments, code blocks, generator frames, jobs.
type Allocation interface {
	// Trace invokes tracer.Mark (or the internal non-root counting pass)
	// on every Handle this allocation directly references.
	Trace(tracer *Tracer)
	// Finalize runs once, after an allocation is determined unreachable
	// but before it is dropped from the heap. It must not resurrect the
	// object (spec §3 Lifecycle).
	Finalize()
}

// entry is the heap's bookkeeping record for one allocation. Never
// exposed directly; callers hold a *Handle.
type entry struct {
	obj          Allocation
	roots        int32
	nonRootMarks int
	marked       bool
	collected    bool
}

// Stats summarizes the outcome of a collection cycle.
type Stats struct {
	Live      int
	Collected int
	BytesHint int // a rough size hint for logging only, not exact
}

// Heap owns every allocation reachable from a single Context (spec §4.11:
// "GC is per-context"). The zero value is not usable; construct with New.
type Heap struct {
	mu        sync.Mutex
	entries   map[*entry]struct{}
	ephemeral []*Ephemeron
	allocated int
	threshold int
	verbose   bool
}

// New creates an empty Heap. threshold is the number of allocations
// between automatic collections (spec §4.2 Trigger policy); a threshold
// of 0 selects a reasonable default.
func New(threshold int) *Heap {
	if threshold <= 0 {
		threshold = 4096
	}
	return &Heap{
		entries:   make(map[*entry]struct{}),
		threshold: threshold,
		verbose:   os.Getenv("JSENGINE_GC_VERBOSE") != "",
	}
}

// Handle is a rooted reference to a heap allocation, analogous to the
// spec's Gc<T>. Root counting is explicit in Go (there is no Drop
// trait): callers that store a Handle somewhere long-lived should Clone
// it, and release it with Drop when that storage goes away. Handles
// obtained from Heap.Alloc or Clone start with one root.
type Handle struct {
	e *entry
}

// Alloc registers obj with the heap and returns a rooted Handle to it
// with one root. Alloc only advances the allocation counter; it never
// collects. Collection against the threshold happens in MaybeCollect.
func (h *Heap) Alloc(obj Allocation) *Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := &entry{obj: obj, roots: 1}
	h.entries[e] = struct{}{}
	h.allocated++
	return &Handle{e: e}
}

// MaybeCollect runs a collection if the allocation counter has crossed
// the configured threshold. Safe to call at any VM safe point; a no-op
// otherwise.
func (h *Heap) MaybeCollect() Stats {
	h.mu.Lock()
	over := h.allocated >= h.threshold
	h.mu.Unlock()
	if !over {
		return Stats{}
	}
	return h.Collect()
}

// ForceCollect runs a collection unconditionally (spec §4.2: explicit
// force_collect, and realm teardown).
func (h *Heap) ForceCollect() Stats {
	return h.Collect()
}

// Object returns the allocation a Handle refers to. Panics if the
// allocation has already been collected, which indicates a use-after-
// drop bug in the caller (a live root should never have been swept).
func (g *Handle) Object() Allocation {
	if g.e.collected {
		panic("gc: use of Handle after its allocation was collected")
	}
	return g.e.obj
}

// Clone increments the root count and returns a new Handle sharing the
// same underlying allocation. Mirrors Gc<T>::clone.
func (g *Handle) Clone() *Handle {
	g.e.roots++
	return &Handle{e: g.e}
}

// Drop decrements the root count. It does not immediately free the
// allocation — that happens at the next collection that finds the
// allocation unreachable. Calling Drop more than Clone+initial Alloc
// warrants is a caller bug; unlike Weak.Upgrade failures this is not
// treated as a recoverable no-op since it would desynchronize the count.
func (g *Handle) Drop() {
	g.e.roots--
}

// Downgrade produces a Weak reference that does not keep the allocation
// alive on its own.
func (g *Handle) Downgrade() *Weak {
	return &Weak{e: g.e}
}

// Collect runs one full mark-sweep cycle and returns its stats.
func (h *Heap) Collect() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	for e := range h.entries {
		e.nonRootMarks = 0
		e.marked = false
	}

	// Phase 1: trace_non_roots — discover, for every allocation, how many
	// times some other allocation's Trace reaches it as a child.
	nonRootTracer := &Tracer{mode: traceModeNonRoot}
	for e := range h.entries {
		e.obj.Trace(nonRootTracer)
	}

	// Phase 2: an allocation is a true root iff its explicit root count
	// exceeds the discovered non-root count (spec §4.2 Rooting).
	var worklist []*entry
	for e := range h.entries {
		if e.roots > int32(e.nonRootMarks) {
			e.marked = true
			worklist = append(worklist, e)
		}
	}
	markTracer := &Tracer{mode: traceModeMark, worklist: &worklist}
	for len(worklist) > 0 {
		e := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		e.obj.Trace(markTracer)
	}

	// Phase 3: ephemeron fixed point (spec §4.2 Ephemerons). A value is
	// marked iff its key has been marked; marking a value may mark new
	// keys transitively, so iterate to a fixed point.
	for {
		changed := false
		for _, eph := range h.ephemeral {
			if eph.resolved || eph.key == nil || !eph.key.marked {
				continue
			}
			eph.resolved = true
			changed = true
			if eph.traceValue != nil {
				eph.traceValue(markTracer)
			}
		}
		for len(worklist) > 0 {
			e := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			e.obj.Trace(markTracer)
		}
		if !changed {
			break
		}
	}

	// Phase 4: sweep.
	collected := 0
	live := make([]*Ephemeron, 0, len(h.ephemeral))
	for e := range h.entries {
		if !e.marked {
			e.obj.Finalize()
			e.collected = true
			delete(h.entries, e)
			collected++
		}
	}
	for _, eph := range h.ephemeral {
		if eph.key == nil || !eph.key.collected {
			eph.resolved = false
			live = append(live, eph)
		}
	}
	h.ephemeral = live
	h.allocated = 0

	stats := Stats{Live: len(h.entries), Collected: collected}
	if h.verbose {
		fmt.Fprintf(os.Stderr, "gc: collected %s allocations, %s live\n",
			humanize.Comma(int64(stats.Collected)), humanize.Comma(int64(stats.Live)))
	}
	return stats
}

// Len reports the number of live allocations, for tests and diagnostics.
func (h *Heap) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
