package chromepdf

import (
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avezou/go-chromepdf/internal/browser"
	"github.com/avezou/go-chromepdf/internal/cdp"
)

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// marginBottomWithFooter leaves room for the footer template.
const marginBottomWithFooter = 0.75

// paperDimensions maps page sizes to width x height in inches (portrait).
var paperDimensions = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// defaultFooterFontFamily styles Chrome's native footer template.
const defaultFooterFontFamily = `-apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif`

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns page settings with default values.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeLetter,
		Orientation: OrientationPortrait,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
// Does not mutate - uses case-insensitive comparison.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if _, ok := paperDimensions[strings.ToLower(p.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}

	return nil
}

// Footer configures the PDF footer.
type Footer struct {
	Position       string // "left", "center", "right" (default: "right")
	ShowPageNumber bool
	Date           string
	Status         string
	Text           string
}

// Validate checks that footer settings are valid.
// Returns nil if f is nil (nil means no footer).
func (f *Footer) Validate() error {
	if f == nil {
		return nil
	}
	switch strings.ToLower(f.Position) {
	case "", "left", "center", "right":
		return nil
	default:
		return fmt.Errorf("%w: %q (must be left, center, or right)", ErrInvalidFooterPosition, f.Position)
	}
}

// PrintOptions holds options for PDF generation.
type PrintOptions struct {
	Page       *PageSettings // nil = defaults (letter, portrait, 0.5in margins)
	Footer     *Footer       // nil = no footer
	Scale      float64       // 0 = 1.0; valid range 0.1 to 2.0
	PageRanges string        // e.g. "1-3,5"; empty = all pages
}

// Validate checks that print options are valid.
// Returns nil if o is nil (nil means all defaults).
func (o *PrintOptions) Validate() error {
	if o == nil {
		return nil
	}
	if err := o.Page.Validate(); err != nil {
		return err
	}
	if err := o.Footer.Validate(); err != nil {
		return err
	}
	if o.Scale != 0 && (o.Scale < 0.1 || o.Scale > 2.0) {
		return fmt.Errorf("%w: %.2f (must be between 0.1 and 2.0)", ErrInvalidScale, o.Scale)
	}
	return nil
}

// printParams builds the protocol parameters for Page.printToPDF.
func (o *PrintOptions) printParams() *cdp.PrintParams {
	page := DefaultPageSettings()
	var footer *Footer
	scale := 0.0
	ranges := ""
	if o != nil {
		if o.Page != nil {
			page = o.Page
		}
		footer = o.Footer
		scale = o.Scale
		ranges = o.PageRanges
	}

	dims := paperDimensions[strings.ToLower(page.Size)]
	landscape := strings.EqualFold(page.Orientation, OrientationLandscape)

	marginBottom := page.Margin
	if footer != nil && marginBottom < marginBottomWithFooter {
		marginBottom = marginBottomWithFooter
	}

	params := &cdp.PrintParams{
		Landscape:       landscape,
		PrintBackground: true,
		PaperWidth:      floatPtr(dims[0]),
		PaperHeight:     floatPtr(dims[1]),
		MarginTop:       floatPtr(page.Margin),
		MarginBottom:    floatPtr(marginBottom),
		MarginLeft:      floatPtr(page.Margin),
		MarginRight:     floatPtr(page.Margin),
		PageRanges:      ranges,
	}
	if scale != 0 {
		params.Scale = floatPtr(scale)
	}

	if footer != nil {
		params.DisplayHeaderFooter = true
		params.HeaderTemplate = "<span></span>" // Empty header
		params.FooterTemplate = buildFooterTemplate(footer)
	}

	return params
}

// buildFooterTemplate generates an HTML template for Chrome's native footer.
// Supports pageNumber, totalPages placeholders via CSS classes.
func buildFooterTemplate(data *Footer) string {
	if data == nil {
		return "<span></span>"
	}

	var parts []string

	if data.ShowPageNumber {
		parts = append(parts, `<span class="pageNumber"></span>/<span class="totalPages"></span>`)
	}
	if data.Date != "" {
		parts = append(parts, html.EscapeString(data.Date))
	}
	if data.Status != "" {
		parts = append(parts, html.EscapeString(data.Status))
	}
	if data.Text != "" {
		parts = append(parts, html.EscapeString(data.Text))
	}

	if len(parts) == 0 {
		return "<span></span>"
	}

	content := strings.Join(parts, " - ")

	// Position: left, center, or right (default)
	textAlign := "right"
	switch data.Position {
	case "left":
		textAlign = "left"
	case "center":
		textAlign = "center"
	}

	return fmt.Sprintf(`<div style="font-size: 10px; font-family: %s; color: #aaa; width: 100%%; text-align: %s; padding: 0 0.5in;">%s</div>`, defaultFooterFontFamily, textAlign, content)
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// LaunchOptions controls how the headless browser process is started.
// The zero value launches a discovered binary headless with an owned
// temporary profile on an auto-assigned debug port.
type LaunchOptions struct {
	// ExecPath pins the browser binary. Empty means discover one.
	ExecPath string

	// Headful disables headless mode, for local debugging.
	Headful bool

	// DebugPort fixes the DevTools port. 0 = auto-assign.
	DebugPort int

	// UserDataDir uses an existing profile directory instead of an owned
	// temporary one. Caller keeps ownership; it is never deleted.
	UserDataDir string

	// NoSandbox and DisableDevShm are required in most Docker images.
	NoSandbox     bool
	DisableDevShm bool

	// EnableGPU keeps GPU compositing on. Off by default.
	EnableGPU bool

	// ExtraFlags are appended last so they can override defaults.
	ExtraFlags []string

	// StartupTimeout and ShutdownTimeout override the supervision defaults
	// when positive.
	StartupTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// launchConfig maps the public options onto the supervisor's config.
func (o LaunchOptions) launchConfig() browser.LaunchConfig {
	cfg := browser.DefaultLaunchConfig()
	cfg.ExecPath = o.ExecPath
	cfg.Headless = !o.Headful
	cfg.DebugPort = o.DebugPort
	cfg.UserDataDir = o.UserDataDir
	cfg.NoSandbox = o.NoSandbox
	cfg.DisableDevShm = o.DisableDevShm
	cfg.DisableGPU = !o.EnableGPU
	cfg.ExtraFlags = o.ExtraFlags
	if o.StartupTimeout > 0 {
		cfg.StartupTimeout = o.StartupTimeout
	}
	if o.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = o.ShutdownTimeout
	}
	return cfg
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout time.Duration
	launch  LaunchOptions
	logger  *zap.Logger
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the per-conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("chromepdf: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithLaunchOptions sets the browser launch configuration.
func WithLaunchOptions(o LaunchOptions) Option {
	return func(s *Service) {
		s.cfg.launch = o
	}
}

// WithLogger attaches a zap logger. The default discards all output;
// swallowed cleanup and polling errors are only visible through this.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.cfg.logger = logger
	}
}
