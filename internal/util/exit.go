package util

import (
	"os/exec"
	"syscall"
)

// signalExitCode reports a signal death as the negated signal number
// (-11 for SIGSEGV, -9 for SIGKILL), or -1 when no signal is known.
func signalExitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return -1
}
