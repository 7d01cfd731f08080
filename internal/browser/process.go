package browser

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
)

// devtoolsLineRE matches the endpoint announcement the browser prints on its
// standard error stream shortly after startup:
//
//	DevTools listening on ws://127.0.0.1:9222/devtools/browser/<uuid>
//
// This line is the sole handshake mechanism for endpoint discovery.
var devtoolsLineRE = regexp.MustCompile(`^DevTools listening on (ws://\S+)`)

// stderrScanBufferSize bounds a single scanned output line.
const stderrScanBufferSize = 256 * 1024

// forceKillGrace is how long Stop waits for the process to reap after SIGKILL.
const forceKillGrace = 2 * time.Second

// Launcher turns a LaunchConfig into running Processes. A closed Launcher
// rejects further launches; processes it already launched are unaffected.
type Launcher struct {
	cfg    LaunchConfig
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewLauncher validates cfg and returns a Launcher. A nil logger disables
// logging.
func NewLauncher(cfg LaunchConfig, logger *zap.Logger) (*Launcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{cfg: cfg, logger: logger}, nil
}

// Close marks the launcher closed. Idempotent. Does not touch processes the
// launcher already started; those are owned by their callers.
func (l *Launcher) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

// Process is one supervised browser subprocess: the OS process handle, its
// resolved DevTools endpoint, and its user-data directory. Exclusively owned
// by the caller of Launch until Stop.
type Process struct {
	cmd             *exec.Cmd
	pid             int
	wsURL           string
	userDataDir     string
	ownsUserDataDir bool
	shutdownTimeout time.Duration
	logger          *zap.Logger

	// waitCh closes when the OS process has been reaped.
	waitCh  chan struct{}
	waitErr error

	dirOnce sync.Once

	mu      sync.Mutex
	stopped bool
}

// Launch starts a browser process and blocks until its DevTools endpoint is
// known, the startup timeout elapses, or ctx is cancelled.
//
// The returned Process is registered with the crash-safety registry before
// Launch returns.
func (l *Launcher) Launch(ctx context.Context) (*Process, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrLauncherClosed
	}
	l.mu.Unlock()

	exe := l.cfg.ExecPath
	if exe == "" {
		var err error
		if exe, err = FindExecutable(); err != nil {
			return nil, err
		}
	}

	userDataDir := l.cfg.UserDataDir
	ownsDir := false
	if userDataDir == "" {
		dir, err := os.MkdirTemp("", "chromepdf-profile-")
		if err != nil {
			return nil, fmt.Errorf("creating user data dir: %w", err)
		}
		userDataDir, ownsDir = dir, true
	}

	cmd := exec.Command(exe, l.cfg.args(userDataDir)...) // #nosec G204 -- exe comes from discovery or validated config
	setProcessGroup(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		removeDirIfOwned(userDataDir, ownsDir, l.logger)
		return nil, fmt.Errorf("attaching stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		removeDirIfOwned(userDataDir, ownsDir, l.logger)
		return nil, fmt.Errorf("starting %s: %w", exe, err)
	}

	p := &Process{
		cmd:             cmd,
		pid:             cmd.Process.Pid,
		userDataDir:     userDataDir,
		ownsUserDataDir: ownsDir,
		shutdownTimeout: l.cfg.ShutdownTimeout,
		logger:          l.logger.With(zap.Int("pid", cmd.Process.Pid)),
		waitCh:          make(chan struct{}),
	}

	wsCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 4096), stderrScanBufferSize)
		for scanner.Scan() {
			line := scanner.Text()
			if m := devtoolsLineRE.FindStringSubmatch(line); m != nil {
				select {
				case wsCh <- m[1]:
				default:
				}
				continue
			}
			p.logger.Debug("browser output", zap.String("line", line))
		}
		// Stderr EOF means the process is exiting; reap it.
		p.waitErr = cmd.Wait()
		close(p.waitCh)
	}()

	select {
	case ws := <-wsCh:
		p.wsURL = ws
	case <-p.waitCh:
		p.destroy()
		return nil, fmt.Errorf("%w: browser exited before announcing its endpoint: %v", ErrStartupTimeout, p.waitErr)
	case <-time.After(l.cfg.StartupTimeout):
		p.destroy()
		return nil, fmt.Errorf("%w: no announcement within %s", ErrStartupTimeout, l.cfg.StartupTimeout)
	case <-ctx.Done():
		p.destroy()
		return nil, ctx.Err()
	}

	registerProcess(p)
	p.logger.Debug("browser launched", zap.String("endpoint", p.wsURL))
	return p, nil
}

// WSURL returns the DevTools endpoint learned during launch.
func (p *Process) WSURL() string { return p.wsURL }

// PID returns the OS process id.
func (p *Process) PID() int { return p.pid }

// UserDataDir returns the profile directory in use.
func (p *Process) UserDataDir() string { return p.userDataDir }

// Alive reports whether the OS process is still running.
func (p *Process) Alive() bool {
	if p.waitCh != nil {
		select {
		case <-p.waitCh:
			return false
		default:
		}
	}
	return pidAlive(p.pid)
}

// Stop shuts the process down: graceful termination bounded by the shutdown
// timeout, then a process-group force kill, then best-effort removal of the
// owned user-data directory. Idempotent; repeat calls are no-ops. Cleanup
// failures are logged, never propagated.
func (p *Process) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	unregisterProcess(p)

	if p.Alive() {
		if err := terminate(p.cmd.Process); err != nil {
			p.logger.Debug("graceful termination request failed", zap.Error(err))
		}
		select {
		case <-p.waitCh:
		case <-time.After(p.shutdownTimeout):
			p.logger.Warn("browser ignored graceful shutdown, force killing")
			KillProcessGroup(p.pid)
			select {
			case <-p.waitCh:
			case <-time.After(forceKillGrace):
				// Best-effort shutdown completes regardless.
				p.logger.Error("browser still alive after force kill")
			}
		}
	}

	p.removeOwnedDir()
	p.logger.Debug("browser stopped")
	return nil
}

// destroy is the cleanup path for a process that never became usable:
// kill the whole group and drop the owned directory.
func (p *Process) destroy() {
	KillProcessGroup(p.pid)
	select {
	case <-p.waitCh:
	case <-time.After(forceKillGrace):
	}
	p.removeOwnedDir()
}

// removeOwnedDir deletes the owned user-data directory exactly once, across
// Stop and the crash hook.
func (p *Process) removeOwnedDir() {
	p.dirOnce.Do(func() {
		removeDirIfOwned(p.userDataDir, p.ownsUserDataDir, p.logger)
	})
}

func removeDirIfOwned(dir string, owned bool, logger *zap.Logger) {
	if !owned || dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("removing user data dir", zap.String("dir", dir), zap.Error(err))
	}
}
