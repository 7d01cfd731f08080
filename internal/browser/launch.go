package browser

import (
	"fmt"
	"os"
	"time"
)

// Default timeouts for process supervision.
const (
	DefaultStartupTimeout  = 20 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// LaunchConfig describes how to start a browser process.
// Immutable once handed to NewLauncher; validated there.
type LaunchConfig struct {
	// ExecPath is an explicit browser binary. Empty means discover one
	// via FindExecutable.
	ExecPath string

	// Headless runs the browser without a display. On by default.
	Headless bool

	// DebugPort is the DevTools port. 0 lets the browser pick a free port,
	// which is then learned from the endpoint announcement.
	DebugPort int

	// UserDataDir is the profile directory. Empty means the launcher creates
	// an owned temporary directory and deletes it on shutdown.
	UserDataDir string

	// DisableGPU adds --disable-gpu. On by default; rendering to PDF needs
	// no GPU compositing.
	DisableGPU bool

	// NoSandbox and DisableDevShm are Docker-oriented toggles, only added
	// when explicitly requested.
	NoSandbox     bool
	DisableDevShm bool

	// ExtraFlags are appended after all defaults so callers can override them.
	ExtraFlags []string

	// StartupTimeout bounds the wait for the DevTools endpoint announcement.
	StartupTimeout time.Duration

	// ShutdownTimeout bounds the graceful-termination wait before force kill.
	ShutdownTimeout time.Duration
}

// DefaultLaunchConfig returns a config suitable for server-side rendering.
func DefaultLaunchConfig() LaunchConfig {
	return LaunchConfig{
		Headless:        true,
		DisableGPU:      true,
		StartupTimeout:  DefaultStartupTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate checks timeouts and the explicit executable path, if any.
func (c LaunchConfig) Validate() error {
	if c.StartupTimeout <= 0 {
		return fmt.Errorf("%w: startup timeout %s", ErrInvalidTimeout, c.StartupTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout %s", ErrInvalidTimeout, c.ShutdownTimeout)
	}
	if c.ExecPath != "" {
		info, err := os.Stat(c.ExecPath)
		if err != nil || !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s", ErrExecutableNotFound, c.ExecPath)
		}
	}
	return nil
}

// stabilityFlags disable every background Chrome feature that could interfere
// with deterministic rendering: updaters, sync, translation, throttling,
// first-run dialogs. --remote-allow-origins is required since Chrome 111,
// which rejects DevTools connections from non-default origins.
var stabilityFlags = []string{
	"--remote-allow-origins=*",
	"--disable-background-networking",
	"--disable-background-timer-throttling",
	"--disable-backgrounding-occluded-windows",
	"--disable-breakpad",
	"--disable-client-side-phishing-detection",
	"--disable-component-extensions-with-background-pages",
	"--disable-component-update",
	"--disable-default-apps",
	"--disable-extensions",
	"--disable-features=site-per-process,Translate,OptimizationHints,MediaRouter",
	"--disable-hang-monitor",
	"--disable-infobars",
	"--disable-ipc-flooding-protection",
	"--disable-notifications",
	"--disable-popup-blocking",
	"--disable-prompt-on-repost",
	"--disable-renderer-backgrounding",
	"--disable-search-engine-choice-screen",
	"--disable-session-crashed-bubble",
	"--disable-sync",
	"--disable-translate",
	"--enable-automation",
	"--force-color-profile=srgb",
	"--hide-scrollbars",
	"--metrics-recording-only",
	"--mute-audio",
	"--no-default-browser-check",
	"--no-first-run",
	"--password-store=basic",
	"--use-mock-keychain",
}

// args composes the full command line. Order matters only in that ExtraFlags
// come last, so callers can override any default.
func (c LaunchConfig) args(userDataDir string) []string {
	args := make([]string, 0, len(stabilityFlags)+len(c.ExtraFlags)+8)
	args = append(args, stabilityFlags...)

	if c.Headless {
		args = append(args, "--headless=new")
	}
	if c.DisableGPU {
		args = append(args, "--disable-gpu")
	}

	args = append(args, fmt.Sprintf("--remote-debugging-port=%d", c.DebugPort))
	args = append(args, "--user-data-dir="+userDataDir)

	if c.NoSandbox {
		args = append(args, "--no-sandbox")
	}
	if c.DisableDevShm {
		args = append(args, "--disable-dev-shm-usage")
	}

	args = append(args, c.ExtraFlags...)
	return args
}
