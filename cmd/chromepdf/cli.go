package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	chromepdf "github.com/avezou/go-chromepdf"
	"github.com/avezou/go-chromepdf/internal/config"
	"github.com/avezou/go-chromepdf/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput          = errors.New("usage: chromepdf [flags] <input.html | URL> [more inputs...]")
	ErrReadInput        = errors.New("failed to read input file")
	ErrInvalidExtension = errors.New("file must have .html or .htm extension")
	ErrInvalidWaitMode  = errors.New("invalid --wait mode")
	ErrBatchOutput      = errors.New("--output must be a directory in batch mode")
)

// run converts every input, fanning batch work across a service pool.
func run(flags *cliFlags, stdout, stderr io.Writer) error {
	if len(flags.inputs) == 0 {
		return ErrNoInput
	}

	var cfg *config.Config
	if flags.config != "" {
		loaded, err := config.Load(flags.config)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	input, err := buildBaseInput(flags, cfg)
	if err != nil {
		return err
	}
	opts := buildServiceOptions(flags, cfg)

	if len(flags.inputs) == 1 {
		svc := chromepdf.New(opts...)
		defer svc.Close()
		return convertOne(svc, flags.inputs[0], outputPath(flags.inputs[0], flags.output, cfg), input, stdout)
	}

	return runBatch(flags, cfg, input, opts, stdout, stderr)
}

// runBatch renders every input through a pool of browsers.
func runBatch(flags *cliFlags, cfg *config.Config, base chromepdf.Input, opts []chromepdf.Option, stdout, stderr io.Writer) error {
	if flags.output != "" {
		info, err := os.Stat(flags.output)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrBatchOutput, flags.output)
		}
	}

	pool := chromepdf.NewServicePool(chromepdf.ResolvePoolSize(flags.workers), opts...)
	defer pool.Close()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, in := range flags.inputs {
		wg.Add(1)
		go func(in string) {
			defer wg.Done()
			svc := pool.Acquire()
			defer pool.Release(svc)

			if err := convertOne(svc, in, outputPath(in, flags.output, cfg), base, stdout); err != nil {
				fmt.Fprintf(stderr, "%s: %v\n", in, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(in)
	}
	wg.Wait()
	return firstErr
}

// convertOne renders a single input to its output path.
func convertOne(svc *chromepdf.Service, in, out string, base chromepdf.Input, stdout io.Writer) error {
	input := base
	if fileutil.IsURL(in) {
		input.URL = in
	} else {
		content, err := readHTMLFile(in)
		if err != nil {
			return err
		}
		input.HTML = content
	}

	pdf, err := svc.Convert(context.Background(), input)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, pdf, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "Created %s\n", out)
	return nil
}

// buildBaseInput assembles the Input shared by every conversion, flags
// taking precedence over the config file.
func buildBaseInput(flags *cliFlags, cfg *config.Config) (chromepdf.Input, error) {
	input := chromepdf.Input{}

	page := &chromepdf.PageSettings{
		Size:        flags.page.size,
		Orientation: flags.page.orientation,
		Margin:      flags.page.margin,
	}
	scale := flags.page.scale
	if cfg != nil {
		if cfg.Page.Size != "" {
			page.Size = cfg.Page.Size
		}
		if cfg.Page.Orientation != "" {
			page.Orientation = cfg.Page.Orientation
		}
		if cfg.Page.Margin != 0 {
			page.Margin = cfg.Page.Margin
		}
		if scale == 0 {
			scale = cfg.Page.Scale
		}
	}

	popts := &chromepdf.PrintOptions{Page: page, Scale: scale}

	if flags.footer.enabled {
		popts.Footer = &chromepdf.Footer{
			Position:       flags.footer.position,
			ShowPageNumber: flags.footer.pageNumber,
			Date:           flags.footer.date,
			Status:         flags.footer.status,
			Text:           flags.footer.text,
		}
	} else if cfg != nil && cfg.Footer.Enabled {
		popts.Footer = &chromepdf.Footer{
			Position:       cfg.Footer.Position,
			ShowPageNumber: cfg.Footer.ShowPageNumber,
			Date:           cfg.Footer.Date,
			Status:         cfg.Footer.Status,
			Text:           cfg.Footer.Text,
		}
	}
	input.Print = popts

	wait, waitTimeout, err := buildWaitSpec(flags, cfg)
	if err != nil {
		return chromepdf.Input{}, err
	}
	input.Wait = wait
	input.WaitTimeout = waitTimeout
	return input, nil
}

// buildWaitSpec maps the --wait flags onto a WaitSpec. Mode "load" means no
// extra condition beyond the navigation's load event.
func buildWaitSpec(flags *cliFlags, cfg *config.Config) (*chromepdf.WaitSpec, time.Duration, error) {
	w := flags.wait
	if w.mode == "load" && cfg != nil && cfg.Wait.Mode != "" {
		w = waitFlagsFromConfig(cfg.Wait)
	}

	var spec chromepdf.WaitSpec
	switch w.mode {
	case "", "load":
		return nil, 0, nil
	case "delay":
		spec = chromepdf.WaitDelay(w.delay)
	case "network-idle":
		spec = chromepdf.WaitNetworkIdle(w.quiet, w.maxInflight)
	case "element":
		spec = chromepdf.WaitElement(w.selector, w.visible, w.poll)
	case "expression":
		spec = chromepdf.WaitExpression(w.expression, w.poll)
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidWaitMode, w.mode)
	}
	return &spec, w.timeout, nil
}

// waitFlagsFromConfig converts the YAML wait section to flag form.
func waitFlagsFromConfig(w config.WaitConfig) waitFlags {
	return waitFlags{
		mode:        w.Mode,
		delay:       time.Duration(w.DelayMs) * time.Millisecond,
		quiet:       time.Duration(w.QuietMs) * time.Millisecond,
		maxInflight: w.MaxInflight,
		selector:    w.Selector,
		visible:     w.VisibleOnly,
		expression:  w.Expression,
		poll:        time.Duration(w.PollMs) * time.Millisecond,
		timeout:     time.Duration(w.TimeoutMs) * time.Millisecond,
	}
}

// buildServiceOptions assembles service options from flags and config.
func buildServiceOptions(flags *cliFlags, cfg *config.Config) []chromepdf.Option {
	launch := chromepdf.LaunchOptions{
		ExecPath:      flags.browser.chromeBin,
		NoSandbox:     flags.browser.noSandbox,
		DisableDevShm: flags.browser.disableDevShm,
		UserDataDir:   flags.browser.userDataDir,
	}
	if cfg != nil {
		if launch.ExecPath == "" {
			launch.ExecPath = cfg.Browser.ExecPath
		}
		launch.NoSandbox = launch.NoSandbox || cfg.Browser.NoSandbox
		launch.DisableDevShm = launch.DisableDevShm || cfg.Browser.DisableDevShm
		if launch.UserDataDir == "" {
			launch.UserDataDir = cfg.Browser.UserDataDir
		}
		launch.ExtraFlags = cfg.Browser.ExtraFlags
		launch.StartupTimeout = time.Duration(cfg.Browser.StartupTimeoutMs) * time.Millisecond
		launch.ShutdownTimeout = time.Duration(cfg.Browser.ShutdownTimeoutMs) * time.Millisecond
	}

	opts := []chromepdf.Option{
		chromepdf.WithTimeout(flags.timeout),
		chromepdf.WithLaunchOptions(launch),
	}
	if flags.verbose {
		if logger, err := zap.NewDevelopment(); err == nil {
			opts = append(opts, chromepdf.WithLogger(logger))
		}
	}
	return opts
}

// outputPath decides where a conversion lands.
// Single input: --output wins, else input path with a .pdf extension.
// Batch: --output is a directory; else next to the input.
func outputPath(in, out string, cfg *config.Config) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if fileutil.IsURL(in) {
		base = sanitizeURLBase(in)
	}

	switch {
	case out == "":
		dir := filepath.Dir(in)
		if fileutil.IsURL(in) {
			dir = "."
		}
		if cfg != nil && cfg.Output.DefaultDir != "" {
			dir = cfg.Output.DefaultDir
		}
		return filepath.Join(dir, base+".pdf")
	default:
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			return filepath.Join(out, base+".pdf")
		}
		return out
	}
}

// sanitizeURLBase derives a filename from a URL.
func sanitizeURLBase(u string) string {
	u = strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
	u = strings.Trim(u, "/")
	replacer := strings.NewReplacer("/", "_", ":", "_", "?", "_", "&", "_", "=", "_", "#", "_")
	if u == "" {
		return "page"
	}
	return replacer.Replace(u)
}

// readHTMLFile validates the extension and reads the content.
func readHTMLFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".html" && ext != ".htm" {
		return "", fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	if !fileutil.FileExists(path) {
		return "", fmt.Errorf("%w: %s", ErrReadInput, path)
	}
	content, err := os.ReadFile(path) // #nosec G304 -- path is user-supplied CLI input
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return string(content), nil
}
