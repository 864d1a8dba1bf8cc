//go:build windows

package hostsignal

import "golang.org/x/sys/windows"

// WatchInterrupt installs a console control handler (CTRL_C_EVENT /
// CTRL_BREAK_EVENT) that calls c.Cancel() and returns a stop function
// that removes it. Mirrors the teacher's Windows-specific kernel32 DLL
// wiring in core/process_windows.go, but through golang.org/x/sys/windows
// rather than hand-rolled syscall.NewLazyDLL calls, since x/sys already
// exposes SetConsoleCtrlHandler as a typed wrapper.
func WatchInterrupt(c *Canceller) (stop func()) {
	handler := func(ctrlType uint32) bool {
		switch ctrlType {
		case windows.CTRL_C_EVENT, windows.CTRL_BREAK_EVENT:
			c.Cancel()
			return true
		default:
			return false
		}
	}
	_ = windows.SetConsoleCtrlHandler(handler, true)
	return func() {
		_ = windows.SetConsoleCtrlHandler(handler, false)
	}
}
