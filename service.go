package chromepdf

import (
	"context"
	"fmt"
	"time"
)

// Input contains conversion parameters.
type Input struct {
	HTML string    // Raw HTML content (exclusive with URL)
	URL  string    // Page to render (exclusive with HTML)
	Wait *WaitSpec // Extra readiness condition after the load event (optional)

	// WaitTimeout bounds the Wait condition on its own. Zero means the
	// remainder of the conversion timeout.
	WaitTimeout time.Duration

	Print *PrintOptions // Print parameters (optional, nil = defaults)
}

// Service converts HTML content or URLs to PDF using one supervised
// headless browser. The browser is launched lazily on the first Convert,
// not at construction. A Service is safe for concurrent use; conversions
// serialize on the underlying renderer.
type Service struct {
	cfg      serviceConfig
	renderer *Renderer
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithLaunchOptions).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(s)
	}

	// Create renderer if not injected (e.g., by tests)
	if s.renderer == nil {
		s.renderer = NewRenderer(s.cfg.launch, s.cfg.logger)
	}

	return s
}

// Convert renders the input to PDF bytes. The context is used for
// cancellation; the configured timeout bounds the whole conversion.
func (s *Service) Convert(ctx context.Context, input Input) ([]byte, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout)
	defer cancel()

	target := input.URL
	if target == "" {
		target = input.HTML
	}
	if err := s.renderer.Navigate(ctx, target); err != nil {
		return nil, err
	}

	if input.Wait != nil {
		deadline, _ := ctx.Deadline()
		waitTimeout := time.Until(deadline)
		if input.WaitTimeout > 0 && input.WaitTimeout < waitTimeout {
			waitTimeout = input.WaitTimeout
		}
		if err := s.renderer.AwaitReady(ctx, *input.Wait, waitTimeout); err != nil {
			return nil, err
		}
	}

	return s.renderer.Render(ctx, input.Print)
}

// validateInput checks the input invariants before touching the browser.
func validateInput(input Input) error {
	if input.HTML == "" && input.URL == "" {
		return ErrEmptyInput
	}
	if input.HTML != "" && input.URL != "" {
		return ErrConflictingInput
	}
	if input.Wait != nil {
		if err := input.Wait.validate(); err != nil {
			return err
		}
	}
	if err := input.Print.Validate(); err != nil {
		return err
	}
	if input.URL != "" && !isNavigable(input.URL) {
		return fmt.Errorf("%w: %q", ErrInvalidURL, input.URL)
	}
	return nil
}

// Close releases the browser. Idempotent; conversions after Close fail with
// ErrRendererClosed.
func (s *Service) Close() error {
	return s.renderer.Close()
}
