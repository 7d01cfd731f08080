package chromepdf

// Notes:
// - Validation tests cover PageSettings, Footer, and PrintOptions bounds
// - printParams tests verify the exact protocol parameters sent to the
//   browser, including the footer margin floor and landscape mapping
// - buildFooterTemplate tests check HTML escaping and placeholder spans

import (
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// PageSettings
// ---------------------------------------------------------------------------

func TestPageSettingsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    *PageSettings
		wantErr error
	}{
		{
			name:    "nil means defaults",
			page:    nil,
			wantErr: nil,
		},
		{
			name:    "defaults are valid",
			page:    DefaultPageSettings(),
			wantErr: nil,
		},
		{
			name:    "a4 landscape",
			page:    &PageSettings{Size: PageSizeA4, Orientation: OrientationLandscape, Margin: 1.0},
			wantErr: nil,
		},
		{
			name:    "case insensitive size",
			page:    &PageSettings{Size: "Letter", Orientation: "Portrait", Margin: 0.5},
			wantErr: nil,
		},
		{
			name:    "unknown size",
			page:    &PageSettings{Size: "tabloid", Orientation: OrientationPortrait, Margin: 0.5},
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "unknown orientation",
			page:    &PageSettings{Size: PageSizeLetter, Orientation: "sideways", Margin: 0.5},
			wantErr: ErrInvalidOrientation,
		},
		{
			name:    "margin below minimum",
			page:    &PageSettings{Size: PageSizeLetter, Orientation: OrientationPortrait, Margin: 0.1},
			wantErr: ErrInvalidMargin,
		},
		{
			name:    "margin above maximum",
			page:    &PageSettings{Size: PageSizeLetter, Orientation: OrientationPortrait, Margin: 3.5},
			wantErr: ErrInvalidMargin,
		},
		{
			name:    "margin at bounds",
			page:    &PageSettings{Size: PageSizeLegal, Orientation: OrientationPortrait, Margin: MinMargin},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.page.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Footer
// ---------------------------------------------------------------------------

func TestFooterValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		footer  *Footer
		wantErr error
	}{
		{name: "nil means no footer", footer: nil, wantErr: nil},
		{name: "empty position defaults right", footer: &Footer{}, wantErr: nil},
		{name: "left", footer: &Footer{Position: "left"}, wantErr: nil},
		{name: "center", footer: &Footer{Position: "center"}, wantErr: nil},
		{name: "right", footer: &Footer{Position: "right"}, wantErr: nil},
		{name: "case insensitive", footer: &Footer{Position: "Center"}, wantErr: nil},
		{name: "invalid position", footer: &Footer{Position: "top"}, wantErr: ErrInvalidFooterPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.footer.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// PrintOptions
// ---------------------------------------------------------------------------

func TestPrintOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    *PrintOptions
		wantErr error
	}{
		{name: "nil means defaults", opts: nil, wantErr: nil},
		{name: "zero value", opts: &PrintOptions{}, wantErr: nil},
		{name: "zero scale means 1.0", opts: &PrintOptions{Scale: 0}, wantErr: nil},
		{name: "scale at lower bound", opts: &PrintOptions{Scale: 0.1}, wantErr: nil},
		{name: "scale at upper bound", opts: &PrintOptions{Scale: 2.0}, wantErr: nil},
		{name: "scale too small", opts: &PrintOptions{Scale: 0.05}, wantErr: ErrInvalidScale},
		{name: "scale too large", opts: &PrintOptions{Scale: 2.5}, wantErr: ErrInvalidScale},
		{
			name:    "invalid nested page",
			opts:    &PrintOptions{Page: &PageSettings{Size: "nope", Orientation: OrientationPortrait, Margin: 0.5}},
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "invalid nested footer",
			opts:    &PrintOptions{Footer: &Footer{Position: "bottom"}},
			wantErr: ErrInvalidFooterPosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrintParamsDefaults(t *testing.T) {
	t.Parallel()

	var opts *PrintOptions
	params := opts.printParams()

	if params.Landscape {
		t.Error("default orientation should be portrait")
	}
	if !params.PrintBackground {
		t.Error("backgrounds should print by default")
	}
	if got := *params.PaperWidth; got != 8.5 {
		t.Errorf("PaperWidth = %v, want 8.5", got)
	}
	if got := *params.PaperHeight; got != 11.0 {
		t.Errorf("PaperHeight = %v, want 11", got)
	}
	if got := *params.MarginTop; got != DefaultMargin {
		t.Errorf("MarginTop = %v, want %v", got, DefaultMargin)
	}
	if params.Scale != nil {
		t.Error("zero scale should omit the Scale parameter")
	}
	if params.DisplayHeaderFooter {
		t.Error("no footer should leave DisplayHeaderFooter off")
	}
}

func TestPrintParamsLandscapeA4(t *testing.T) {
	t.Parallel()

	opts := &PrintOptions{
		Page: &PageSettings{Size: PageSizeA4, Orientation: OrientationLandscape, Margin: 1.0},
	}
	params := opts.printParams()

	if !params.Landscape {
		t.Error("expected landscape")
	}
	// Paper dimensions stay portrait-relative; Landscape flips at render time.
	if got := *params.PaperWidth; got != 8.27 {
		t.Errorf("PaperWidth = %v, want 8.27", got)
	}
	if got := *params.PaperHeight; got != 11.69 {
		t.Errorf("PaperHeight = %v, want 11.69", got)
	}
	if got := *params.MarginLeft; got != 1.0 {
		t.Errorf("MarginLeft = %v, want 1.0", got)
	}
}

func TestPrintParamsFooterMarginFloor(t *testing.T) {
	t.Parallel()

	opts := &PrintOptions{
		Page:   &PageSettings{Size: PageSizeLetter, Orientation: OrientationPortrait, Margin: 0.5},
		Footer: &Footer{ShowPageNumber: true},
	}
	params := opts.printParams()

	if !params.DisplayHeaderFooter {
		t.Error("footer should enable DisplayHeaderFooter")
	}
	if params.HeaderTemplate != "<span></span>" {
		t.Errorf("HeaderTemplate = %q, want empty span", params.HeaderTemplate)
	}
	if got := *params.MarginBottom; got != marginBottomWithFooter {
		t.Errorf("MarginBottom = %v, want %v (footer floor)", got, marginBottomWithFooter)
	}
	if got := *params.MarginTop; got != 0.5 {
		t.Errorf("MarginTop = %v, want 0.5 (unchanged)", got)
	}
}

func TestPrintParamsFooterLargeMarginKept(t *testing.T) {
	t.Parallel()

	opts := &PrintOptions{
		Page:   &PageSettings{Size: PageSizeLetter, Orientation: OrientationPortrait, Margin: 1.5},
		Footer: &Footer{Text: "confidential"},
	}
	params := opts.printParams()

	if got := *params.MarginBottom; got != 1.5 {
		t.Errorf("MarginBottom = %v, want 1.5 (already above floor)", got)
	}
}

func TestPrintParamsScaleAndRanges(t *testing.T) {
	t.Parallel()

	opts := &PrintOptions{Scale: 0.8, PageRanges: "1-3,5"}
	params := opts.printParams()

	if params.Scale == nil || *params.Scale != 0.8 {
		t.Errorf("Scale = %v, want 0.8", params.Scale)
	}
	if params.PageRanges != "1-3,5" {
		t.Errorf("PageRanges = %q, want 1-3,5", params.PageRanges)
	}
}

// ---------------------------------------------------------------------------
// Footer Template
// ---------------------------------------------------------------------------

func TestBuildFooterTemplate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		footer      *Footer
		contains    []string
		notContains []string
	}{
		{
			name:     "nil footer",
			footer:   nil,
			contains: []string{"<span></span>"},
		},
		{
			name:     "empty footer",
			footer:   &Footer{},
			contains: []string{"<span></span>"},
		},
		{
			name:   "page numbers",
			footer: &Footer{ShowPageNumber: true},
			contains: []string{
				`<span class="pageNumber"></span>`,
				`<span class="totalPages"></span>`,
				"text-align: right",
			},
		},
		{
			name:     "all fields joined with separator",
			footer:   &Footer{ShowPageNumber: true, Date: "2026-01-15", Status: "DRAFT", Text: "internal"},
			contains: []string{"2026-01-15 - DRAFT - internal"},
		},
		{
			name:     "left position",
			footer:   &Footer{Text: "x", Position: "left"},
			contains: []string{"text-align: left"},
		},
		{
			name:     "center position",
			footer:   &Footer{Text: "x", Position: "center"},
			contains: []string{"text-align: center"},
		},
		{
			name:        "html escaped",
			footer:      &Footer{Text: `<script>alert("x")</script>`},
			contains:    []string{"&lt;script&gt;"},
			notContains: []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := buildFooterTemplate(tt.footer)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("template missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tt.notContains {
				if strings.Contains(got, bad) {
					t.Errorf("template should not contain %q:\n%s", bad, got)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

func TestWithTimeoutPanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) should panic")
		}
	}()
	WithTimeout(0)
}

func TestLaunchConfigMapping(t *testing.T) {
	t.Parallel()

	opts := LaunchOptions{
		ExecPath:      "/usr/bin/chromium",
		Headful:       true,
		DebugPort:     9222,
		NoSandbox:     true,
		DisableDevShm: true,
		EnableGPU:     true,
		ExtraFlags:    []string{"--lang=en-US"},
	}
	cfg := opts.launchConfig()

	if cfg.ExecPath != "/usr/bin/chromium" {
		t.Errorf("ExecPath = %q", cfg.ExecPath)
	}
	if cfg.Headless {
		t.Error("Headful should disable headless mode")
	}
	if cfg.DebugPort != 9222 {
		t.Errorf("DebugPort = %d, want 9222", cfg.DebugPort)
	}
	if !cfg.NoSandbox || !cfg.DisableDevShm {
		t.Error("docker flags should map through")
	}
	if cfg.DisableGPU {
		t.Error("EnableGPU should keep GPU compositing on")
	}
	if len(cfg.ExtraFlags) != 1 || cfg.ExtraFlags[0] != "--lang=en-US" {
		t.Errorf("ExtraFlags = %v", cfg.ExtraFlags)
	}
}

func TestLaunchConfigZeroValueDefaults(t *testing.T) {
	t.Parallel()

	cfg := LaunchOptions{}.launchConfig()

	if !cfg.Headless {
		t.Error("zero value should be headless")
	}
	if !cfg.DisableGPU {
		t.Error("zero value should disable GPU")
	}
	if cfg.StartupTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		t.Error("supervision timeouts should default to positive values")
	}
}
