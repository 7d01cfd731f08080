package chromepdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avezou/go-chromepdf/internal/browser"
	"github.com/avezou/go-chromepdf/internal/cdp"
	"github.com/avezou/go-chromepdf/internal/fileutil"
)

// pdfMagic is the header every well-formed PDF starts with.
var pdfMagic = []byte("%PDF-")

// controlSession is the slice of the CDP session the renderer drives.
// Narrowed to an interface so the facade is testable without a browser.
type controlSession interface {
	waitSession
	Navigate(ctx context.Context, url string) error
	PrintToPDF(ctx context.Context, params *cdp.PrintParams) ([]byte, error)
	Close() error
}

// Compile-time interface check
var _ controlSession = (*cdp.Session)(nil)

// Renderer owns exactly one supervised browser process and its control
// session, created lazily on first use. It exposes navigate, readiness
// waits, and page rendering as one serialized unit: a Renderer is safe for
// concurrent callers, but their browser interactions never interleave.
type Renderer struct {
	id     string
	logger *zap.Logger

	// mu serializes every operation and guards lazy initialization, so
	// concurrent first calls cannot race into a double launch.
	mu       sync.Mutex
	launcher *browser.Launcher
	proc     *browser.Process
	session  controlSession
	closed   bool

	// tempCleanup removes the temp file backing the last HTML navigation.
	tempCleanup func()

	// connect is the initialization step; replaced in tests.
	connect func(ctx context.Context) (*browser.Process, controlSession, error)
}

// NewRenderer creates a Renderer. No browser is launched until the first
// operation. A nil logger disables logging.
func NewRenderer(launch LaunchOptions, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	r := &Renderer{
		id:     id,
		logger: logger.With(zap.String("renderer", id[:8])),
	}
	cfg := launch.launchConfig()
	r.connect = func(ctx context.Context) (*browser.Process, controlSession, error) {
		return r.launchAndConnect(ctx, cfg)
	}
	return r
}

// launchAndConnect spawns the browser and opens its control session. On any
// failure the partially-built resources are torn down before the error
// propagates, leaving the renderer uninitialized so a later call can retry.
func (r *Renderer) launchAndConnect(ctx context.Context, cfg browser.LaunchConfig) (*browser.Process, controlSession, error) {
	if r.launcher == nil {
		l, err := browser.NewLauncher(cfg, r.logger)
		if err != nil {
			return nil, nil, err
		}
		r.launcher = l
	}

	proc, err := r.launcher.Launch(ctx)
	if err != nil {
		return nil, nil, err
	}

	session, err := cdp.Connect(ctx, proc.WSURL(), r.logger)
	if err != nil {
		_ = proc.Stop()
		return nil, nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.logger.Debug("renderer initialized", zap.Int("pid", proc.PID()))
	return proc, session, nil
}

// ensureSessionLocked performs lazy initialization. Callers hold r.mu; the
// session recheck under the lock is what makes concurrent first use safe.
func (r *Renderer) ensureSessionLocked(ctx context.Context) error {
	if r.closed {
		return ErrRendererClosed
	}
	if r.session != nil {
		return nil
	}
	proc, session, err := r.connect(ctx)
	if err != nil {
		return err
	}
	r.proc, r.session = proc, session
	return nil
}

// isNavigable reports whether s is a navigation target rather than raw HTML.
func isNavigable(s string) bool {
	for _, prefix := range []string{"http://", "https://", "file://", "data:", "about:"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// Navigate loads a URL, or raw HTML staged through an owned temporary file.
// A navigation failure leaves the browser and session open for retry.
func (r *Renderer) Navigate(ctx context.Context, contentOrURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSessionLocked(ctx); err != nil {
		return err
	}

	r.dropTempLocked()

	target := contentOrURL
	if !isNavigable(contentOrURL) {
		path, cleanup, err := writeTempHTML(contentOrURL)
		if err != nil {
			return err
		}
		r.tempCleanup = cleanup
		target = "file://" + path
	}

	if err := r.session.Navigate(ctx, target); err != nil {
		return fmt.Errorf("navigating: %w", err)
	}
	return nil
}

// AwaitReady blocks until the current page satisfies spec, the timeout
// elapses, or ctx is cancelled. A timeout never tears down the session; the
// renderer stays usable.
func (r *Renderer) AwaitReady(ctx context.Context, spec WaitSpec, timeout time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSessionLocked(ctx); err != nil {
		return err
	}
	if err := spec.validate(); err != nil {
		return err
	}
	return spec.await(ctx, r.session, timeout, r.logger)
}

// Render prints the current page to PDF.
func (r *Renderer) Render(ctx context.Context, opts *PrintOptions) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureSessionLocked(ctx); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	pdf, err := r.session.PrintToPDF(ctx, opts.printParams())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, fmt.Errorf("%w: malformed output (%d bytes)", ErrRender, len(pdf))
	}
	return pdf, nil
}

// Close tears down the session, then the browser process. Idempotent;
// operations after Close fail fast with ErrRendererClosed without touching
// any resource.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.dropTempLocked()

	if r.session != nil {
		if err := r.session.Close(); err != nil {
			r.logger.Debug("closing control session", zap.Error(err))
		}
		r.session = nil
	}
	if r.proc != nil {
		if err := r.proc.Stop(); err != nil {
			r.logger.Debug("stopping browser", zap.Error(err))
		}
		r.proc = nil
	}
	if r.launcher != nil {
		r.launcher.Close()
	}
	return nil
}

// dropTempLocked removes the temp file from the previous HTML navigation.
func (r *Renderer) dropTempLocked() {
	if r.tempCleanup != nil {
		r.tempCleanup()
		r.tempCleanup = nil
	}
}

// writeTempHTML stages raw HTML in a temporary file for file:// navigation.
func writeTempHTML(content string) (path string, cleanup func(), err error) {
	return fileutil.WriteTempFile(content, "html")
}
