package main

import (
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
)

// browserFlags holds browser launch flags.
type browserFlags struct {
	chromeBin     string
	noSandbox     bool
	disableDevShm bool
	userDataDir   string
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
	scale       float64
}

// footerFlags holds footer-related flags.
type footerFlags struct {
	enabled    bool
	position   string
	text       string
	date       string
	status     string
	pageNumber bool
}

// waitFlags holds readiness-wait flags.
type waitFlags struct {
	mode        string
	delay       time.Duration
	quiet       time.Duration
	maxInflight int
	selector    string
	visible     bool
	expression  string
	poll        time.Duration
	timeout     time.Duration
}

// cliFlags holds all parsed flags plus positional inputs.
type cliFlags struct {
	inputs  []string // positional: HTML files or URLs
	output  string
	config  string
	workers int
	timeout time.Duration
	verbose bool
	version bool

	browser browserFlags
	page    pageFlags
	footer  footerFlags
	wait    waitFlags
}

// parseFlags parses the command line. args[0] is the program name.
func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{}

	fs := flag.NewFlagSet("chromepdf", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: chromepdf [flags] <input.html | URL> [more inputs...]\n\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&f.output, "output", "o", "", "output PDF path (single input) or directory (batch)")
	fs.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fs.IntVarP(&f.workers, "workers", "w", 0, "browser instances for batch mode (0 = auto)")
	fs.DurationVar(&f.timeout, "timeout", 30*time.Second, "per-conversion timeout")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.StringVar(&f.browser.chromeBin, "chrome-bin", "", "Chrome/Chromium binary (default: discover)")
	fs.BoolVar(&f.browser.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (Docker/CI)")
	fs.BoolVar(&f.browser.disableDevShm, "disable-dev-shm", false, "avoid /dev/shm (Docker)")
	fs.StringVar(&f.browser.userDataDir, "user-data-dir", "", "existing profile directory")

	fs.StringVar(&f.page.size, "page-size", "letter", "page size: letter, a4, legal")
	fs.StringVar(&f.page.orientation, "orientation", "portrait", "orientation: portrait, landscape")
	fs.Float64Var(&f.page.margin, "margin", 0.5, "margin in inches")
	fs.Float64Var(&f.page.scale, "scale", 0, "render scale (0 = 1.0)")

	fs.BoolVar(&f.footer.enabled, "footer", false, "enable the page footer")
	fs.StringVar(&f.footer.position, "footer-position", "right", "footer position: left, center, right")
	fs.StringVar(&f.footer.text, "footer-text", "", "footer free-form text")
	fs.StringVar(&f.footer.date, "footer-date", "", "footer date")
	fs.StringVar(&f.footer.status, "footer-status", "", "footer status, e.g. DRAFT")
	fs.BoolVar(&f.footer.pageNumber, "footer-page-number", false, "show page numbers in the footer")

	fs.StringVar(&f.wait.mode, "wait", "load", "readiness: load, delay, network-idle, element, expression")
	fs.DurationVar(&f.wait.delay, "wait-delay", 0, "fixed delay for --wait=delay")
	fs.DurationVar(&f.wait.quiet, "wait-quiet", 0, "quiet period for --wait=network-idle (0 = default)")
	fs.IntVar(&f.wait.maxInflight, "wait-max-inflight", 0, "tolerated in-flight requests for --wait=network-idle")
	fs.StringVar(&f.wait.selector, "wait-selector", "", "CSS selector for --wait=element")
	fs.BoolVar(&f.wait.visible, "wait-visible", false, "require visibility for --wait=element")
	fs.StringVar(&f.wait.expression, "wait-expression", "", "JS expression for --wait=expression")
	fs.DurationVar(&f.wait.poll, "wait-poll", 0, "poll interval for polling waits (0 = default)")
	fs.DurationVar(&f.wait.timeout, "wait-timeout", 0, "readiness timeout (0 = conversion timeout)")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	f.inputs = fs.Args()
	return f, nil
}
