// Package hostsignal implements cooperative cancellation (spec §5): "a
// host may stop calling run_jobs" or "raise a host-defined error by
// injecting a throw at a safe point." There is no preemptive
// cancellation — a Canceller only flips an atomic flag; the VM dispatch
// loop consults it at its safe point (a loop back-edge) and turns a set
// flag into a thrown error at the next checkpoint, never
// mid-instruction. The OS-specific half of this package (WatchInterrupt,
// split unix/windows the way the teacher splits process liveness
// checking in core/process_unix.go and core/process_windows.go) wires a
// platform Ctrl+C/Ctrl+Break notification into that same flag.
package hostsignal

import "sync/atomic"

// Canceller is the flag a long-running eval consults at safe points.
// The zero value is ready to use.
type Canceller struct {
	flag atomic.Bool
}

// New builds a fresh, not-yet-cancelled Canceller.
func New() *Canceller {
	return &Canceller{}
}

// Cancel requests that the next safe point abort execution. Safe to call
// from a signal handler goroutine or any other goroutine; Cancelled and
// Check only ever read the flag from the VM's single thread.
func (c *Canceller) Cancel() {
	c.flag.Store(true)
}

// Reset clears a pending cancellation, e.g. before starting a fresh
// top-level eval on a Canceller the host intends to reuse.
func (c *Canceller) Reset() {
	c.flag.Store(false)
}

// Cancelled reports whether Cancel has been called since the last Reset.
func (c *Canceller) Cancelled() bool {
	return c.flag.Load()
}

// CancelledError is the sentinel error a VM safe point returns once
// Cancelled reports true; the VM's unwind path (internal/vm) lifts it
// into a thrown JS error the same way any other host-native error is
// lifted (spec §7 "Native" error kind).
type CancelledError struct{}

func (CancelledError) Error() string { return "execution cancelled by host" }

// Check returns CancelledError if c has been cancelled, nil otherwise.
// The VM's dispatch loop calls this at loop back-edges (backward jumps)
// instead of testing Cancelled directly; calls and other instructions do
// not check it.
func (c *Canceller) Check() error {
	if c.Cancelled() {
		return CancelledError{}
	}
	return nil
}
