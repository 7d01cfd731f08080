package browser

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// The crash-safety registry is process-wide bookkeeping of every supervised
// browser. Entries are added at launch and removed at normal Stop; a signal
// handler drains whatever is left if the host program is killed, so no
// orphaned browser (or owned temp profile) survives abnormal shutdown.
//
// The registry is a plain concurrent map with no cross-entry invariants.

// registryEntry is metadata derived from a Process at registration time.
type registryEntry struct {
	pid             int
	registeredAt    time.Time
	aliveAtRegister bool
}

var (
	// registry maps *Process -> registryEntry.
	registry sync.Map

	// terminating is set by the exit hook before it drains the registry.
	// Normal unregistration checks it first and leaves the table alone
	// during the exit window.
	terminating atomic.Bool

	hookOnce sync.Once
)

// registerProcess adds p to the registry and makes sure the exit hook is
// installed. O(1), safe under concurrent use.
func registerProcess(p *Process) {
	registry.Store(p, registryEntry{
		pid:             p.pid,
		registeredAt:    time.Now(),
		aliveAtRegister: p.Alive(),
	})
	installExitHook()
}

// unregisterProcess removes p. Skipped while the host is terminating: the
// exit hook owns the table then, and racing it buys nothing.
func unregisterProcess(p *Process) {
	if terminating.Load() {
		return
	}
	registry.Delete(p)
}

// ActiveCount returns the number of registered processes.
func ActiveCount() int {
	n := 0
	registry.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// HealthCheck drops entries whose OS process died without proper
// unregistration and returns how many were removed. Diagnostic; correctness
// does not depend on it.
func HealthCheck() int {
	removed := 0
	registry.Range(func(key, _ any) bool {
		p := key.(*Process)
		if !pidAlive(p.pid) {
			registry.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// CleanupAll force-kills every live registered process, removes owned
// profile directories, and clears the table. Emergency use only; normal
// shutdown goes through Process.Stop.
func CleanupAll() int {
	killed := 0
	registry.Range(func(key, _ any) bool {
		p := key.(*Process)
		if pidAlive(p.pid) {
			p.logger.Warn("force killing orphaned browser", zap.Int("pid", p.pid))
			KillProcessGroup(p.pid)
			killed++
		}
		p.removeOwnedDir()
		registry.Delete(key)
		return true
	})
	return killed
}

// installExitHook installs, once per host process, a signal handler that
// marks the host terminating, drains the registry, and re-raises the signal
// with its default disposition.
func installExitHook() {
	hookOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, exitSignals...)
		go func() {
			sig := <-ch
			terminating.Store(true)
			CleanupAll()
			signal.Stop(ch)
			raiseSignal(sig)
		}()
	})
}
