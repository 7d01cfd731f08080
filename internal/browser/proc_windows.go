//go:build windows

package browser

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// setProcessGroup is a no-op on Windows; taskkill /T handles the tree.
func setProcessGroup(*exec.Cmd) {}

// terminate has no graceful signal on Windows; kill outright and let the
// shutdown path's wait observe the exit.
func terminate(proc *os.Process) error {
	return proc.Kill()
}

// KillProcessGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillProcessGroup(pid int) {
	// Best-effort cleanup; the caller's shutdown path provides the fallback.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}

// pidAlive reports whether a process with the given pid exists, via tasklist.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH", "/FO", "CSV").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), strconv.Itoa(pid))
}

// exitSignals are the host-termination signals the crash hook watches.
var exitSignals = []os.Signal{os.Interrupt}

// raiseSignal cannot restore default dispositions on Windows; exit directly.
func raiseSignal(os.Signal) {
	os.Exit(1)
}
