package chromepdf

import (
	"errors"

	"github.com/avezou/go-chromepdf/internal/browser"
)

// Sentinel errors for library operations.
var (
	// ErrExecutableNotFound means no usable Chrome/Chromium binary was found
	// on the host and none was configured.
	ErrExecutableNotFound = browser.ErrExecutableNotFound

	// ErrStartupTimeout means the browser process never announced its
	// DevTools endpoint within the startup timeout.
	ErrStartupTimeout = browser.ErrStartupTimeout

	// ErrBrowserConnect means the control channel to a running browser
	// could not be opened.
	ErrBrowserConnect = errors.New("failed to connect to browser")

	// ErrWaitTimeout means a readiness condition was not satisfied within
	// its timeout. The error message carries the condition's description.
	ErrWaitTimeout = errors.New("wait condition not satisfied")

	// ErrRender means the render operation failed or produced malformed
	// output.
	ErrRender = errors.New("PDF generation failed")

	// ErrRendererClosed means an operation was attempted on a closed
	// renderer.
	ErrRendererClosed = errors.New("renderer is closed")

	// Input validation errors.
	ErrEmptyInput       = errors.New("input must provide HTML content or a URL")
	ErrConflictingInput = errors.New("input cannot provide both HTML content and a URL")
	ErrInvalidURL       = errors.New("unsupported URL scheme")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
	ErrInvalidScale       = errors.New("invalid scale")

	// Footer validation errors.
	ErrInvalidFooterPosition = errors.New("invalid footer position")

	// Wait configuration validation errors.
	ErrInvalidWaitSpec = errors.New("invalid wait spec")
)
