//go:build !windows

package browser

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the browser in its own process group so a group kill
// reaches its renderer and GPU children too.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate requests graceful shutdown.
func terminate(proc *os.Process) error {
	return proc.Signal(syscall.SIGTERM)
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	// Best-effort cleanup; the caller's shutdown path provides the fallback.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// pidAlive reports whether a process with the given pid exists.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// exitSignals are the host-termination signals the crash hook watches.
var exitSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// raiseSignal re-raises sig with its default disposition after the hook has
// drained the registry, so the host still dies from the original signal.
func raiseSignal(sig os.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		os.Exit(1)
	}
	_ = syscall.Kill(os.Getpid(), s)
}
