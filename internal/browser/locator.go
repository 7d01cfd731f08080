// Package browser launches and supervises headless Chrome/Chromium processes
// for DevTools-driven PDF rendering. It owns executable discovery, flag
// composition, endpoint discovery from the process's startup output, and the
// process-wide crash-safety registry that prevents orphaned browsers.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel errors for browser supervision.
var (
	ErrExecutableNotFound = errors.New("no usable Chrome or Chromium executable found")
	ErrStartupTimeout     = errors.New("browser did not announce its DevTools endpoint in time")
	ErrLauncherClosed     = errors.New("launcher is closed")
	ErrInvalidTimeout     = errors.New("timeout must be positive")
)

// binEnvVar overrides executable discovery, mirroring how containerized
// deployments pin a pre-installed browser.
const binEnvVar = "CHROMEPDF_CHROME_BIN"

// versionProbeTimeout bounds the optional --version validation run.
const versionProbeTimeout = 10 * time.Second

// productTokens are the filename fragments accepted as a browser binary.
var productTokens = []string{"chrome", "chromium", "headless-shell", "headless_shell", "msedge", "edge", "brave"}

// FindExecutable searches for a usable browser binary.
//
// Search order: the CHROMEPDF_CHROME_BIN environment variable, the
// platform's well-known install locations, a PATH lookup, and finally the
// platform registry where one exists (Windows App Paths). Candidates must
// exist, be regular files, be executable on non-Windows platforms, and carry
// a recognized product token in their filename.
func FindExecutable() (string, error) {
	if bin := os.Getenv(binEnvVar); bin != "" && isUsableExecutable(bin) {
		return bin, nil
	}

	for _, candidate := range executableCandidates() {
		if isUsableExecutable(candidate) {
			return candidate, nil
		}
	}

	for _, name := range lookupNames {
		if path, err := exec.LookPath(name); err == nil && isUsableExecutable(path) {
			return path, nil
		}
	}

	if path := registryLookup(); path != "" && isUsableExecutable(path) {
		return path, nil
	}

	return "", ErrExecutableNotFound
}

// VerifyExecutable runs the candidate with --version as a stronger check than
// stat-based discovery. The probe is bounded by a timeout; CommandContext
// guarantees the probe process is killed when the deadline fires.
func VerifyExecutable(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- path comes from discovery or explicit config
	if err != nil {
		return fmt.Errorf("%w: version probe of %s failed: %v", ErrExecutableNotFound, path, err)
	}
	if !hasProductToken(string(out)) {
		return fmt.Errorf("%w: %s reported unrecognized version %q", ErrExecutableNotFound, path, strings.TrimSpace(string(out)))
	}
	return nil
}

// isUsableExecutable reports whether path points at an acceptable browser binary.
func isUsableExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if !hasProductToken(filepath.Base(path)) {
		return false
	}
	return isExecutable(info)
}

// hasProductToken reports whether s contains a recognized browser product name.
func hasProductToken(s string) bool {
	lower := strings.ToLower(s)
	for _, token := range productTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
