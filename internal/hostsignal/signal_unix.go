//go:build !windows

package hostsignal

import (
	"os"
	"os/signal"
	"syscall"
)

// WatchInterrupt installs a SIGINT/SIGTERM handler that calls c.Cancel()
// on delivery and returns a stop function that removes the handler.
// Grounded on the teacher's OS-specific process-liveness split
// (core/process_unix.go uses syscall directly rather than a generic
// cross-platform shim); this package makes the same choice for signal
// delivery, which syscall.SIGTERM only exists under the non-windows
// build tag.
func WatchInterrupt(c *Canceller) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			c.Cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
