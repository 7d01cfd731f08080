// Package chromepdf renders HTML content and URLs to PDF by supervising a
// headless Chrome/Chromium process and driving it over the DevTools
// protocol.
//
// # Quick Start
//
// Create a service, convert, and close when done:
//
//	svc := chromepdf.New()
//	defer svc.Close()
//
//	pdf, err := svc.Convert(ctx, chromepdf.Input{
//	    HTML: "<h1>Hello</h1>",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.pdf", pdf, 0644)
//
// No browser is launched until the first conversion. The service finds a
// Chrome or Chromium binary in the platform's well-known install locations;
// set CHROMEPDF_CHROME_BIN or LaunchOptions.ExecPath to pin one.
//
// # Readiness Waits
//
// Pages that load content asynchronously need a readiness condition beyond
// the load event. Four interchangeable strategies are available:
//
//	chromepdf.WaitDelay(2 * time.Second)
//	chromepdf.WaitNetworkIdle(500*time.Millisecond, 0)
//	chromepdf.WaitElement("#chart-ready", true, 0)
//	chromepdf.WaitExpression("window.renderDone === true", 0)
//
// Attach one via Input.Wait, or drive the lower-level Renderer directly:
//
//	r := chromepdf.NewRenderer(chromepdf.LaunchOptions{}, nil)
//	defer r.Close()
//
//	err := r.Navigate(ctx, "https://example.com/report")
//	err = r.AwaitReady(ctx, chromepdf.WaitNetworkIdle(0, 0), 10*time.Second)
//	pdf, err := r.Render(ctx, nil)
//
// # Parallel Rendering
//
// For batch conversion, use ServicePool to manage multiple browsers:
//
//	pool := chromepdf.NewServicePool(4)
//	defer pool.Close()
//
//	svc := pool.Acquire()
//	defer pool.Release(svc)
//	pdf, err := svc.Convert(ctx, input)
//
// # Crash Safety
//
// Every launched browser is tracked in a process-wide registry. If the host
// program dies from SIGINT/SIGTERM without closing its services, a signal
// hook force-kills the remaining browsers and removes their temporary
// profiles before the signal is re-raised.
//
// # Docker
//
// Most container images need the sandbox disabled and /dev/shm workarounds:
//
//	chromepdf.WithLaunchOptions(chromepdf.LaunchOptions{
//	    NoSandbox:     true,
//	    DisableDevShm: true,
//	})
package chromepdf
