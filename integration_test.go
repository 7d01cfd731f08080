//go:build integration

package chromepdf

// Notes:
// - Integration tests drive a real Chrome/Chromium: run with -tags integration
//   on a machine with a discoverable browser
// - A shared ServicePool is initialized in TestMain and closed after all
//   tests complete; tests only Acquire/Release
// - Pool size is capped at 4 for CI environments to avoid resource exhaustion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"
)

// testTimeout is the standard timeout for integration test operations.
const testTimeout = 30 * time.Second

// testPool is the shared ServicePool for all integration tests.
var testPool *ServicePool

func TestMain(m *testing.M) {
	if _, err := FindChrome(); err != nil {
		fmt.Fprintln(os.Stderr, "skipping integration tests:", err)
		os.Exit(0)
	}

	poolSize := ResolvePoolSize(0)
	if poolSize > 4 {
		poolSize = 4
	}
	testPool = NewServicePool(poolSize)

	code := m.Run()

	testPool.Close()
	os.Exit(code)
}

// acquireService gets a service from the shared pool with automatic cleanup.
func acquireService(t *testing.T) *Service {
	t.Helper()
	svc := testPool.Acquire()
	t.Cleanup(func() { testPool.Release(svc) })
	return svc
}

func TestConvertHTML_Integration(t *testing.T) {
	svc := acquireService(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	pdf, err := svc.Convert(ctx, Input{HTML: "<h1>Integration</h1><p>Hello from Chrome.</p>"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Error("output does not have PDF magic bytes")
	}
	if len(pdf) < 1024 {
		t.Errorf("PDF suspiciously small: %d bytes", len(pdf))
	}
}

func TestConvertURL_Integration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><h1>Served Page</h1></body></html>")
	}))
	defer srv.Close()

	svc := acquireService(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	pdf, err := svc.Convert(ctx, Input{URL: srv.URL})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Error("output does not have PDF magic bytes")
	}
}

func TestConvertWithNetworkIdle_Integration(t *testing.T) {
	// The page fetches a slow sub-resource; network-idle must outwait it.
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div id="out">waiting</div>
<script>fetch("/slow").then(r => r.text()).then(t => document.getElementById("out").textContent = t)</script>
</body></html>`)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		fmt.Fprint(w, "done")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := acquireService(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	wait := WaitNetworkIdle(300*time.Millisecond, 0)
	pdf, err := svc.Convert(ctx, Input{URL: srv.URL, Wait: &wait})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Error("output does not have PDF magic bytes")
	}
}

func TestConvertWithElementWait_Integration(t *testing.T) {
	svc := acquireService(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	html := `<html><body>
<script>setTimeout(() => {
  const el = document.createElement("div");
  el.id = "late";
  el.textContent = "arrived";
  document.body.appendChild(el);
}, 300)</script>
</body></html>`

	wait := WaitElement("#late", true, 50*time.Millisecond)
	if _, err := svc.Convert(ctx, Input{HTML: html, Wait: &wait}); err != nil {
		t.Fatalf("Convert: %v", err)
	}
}

func TestConvertWithExpressionWait_Integration(t *testing.T) {
	svc := acquireService(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	html := `<html><body>
<script>setTimeout(() => { window.appReady = true }, 200)</script>
</body></html>`

	wait := WaitExpression("window.appReady === true", 50*time.Millisecond)
	if _, err := svc.Convert(ctx, Input{HTML: html, Wait: &wait}); err != nil {
		t.Fatalf("Convert: %v", err)
	}
}

func TestConvertWaitTimeout_Integration(t *testing.T) {
	svc := acquireService(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	wait := WaitElement("#never-appears", false, 50*time.Millisecond)
	_, err := svc.Convert(ctx, Input{
		HTML:        "<html><body>empty</body></html>",
		Wait:        &wait,
		WaitTimeout: 2 * time.Second,
	})
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("Convert = %v, want ErrWaitTimeout", err)
	}

	// The browser must survive the timeout and render the next conversion.
	if _, err := svc.Convert(ctx, Input{HTML: "<p>still alive</p>"}); err != nil {
		t.Fatalf("Convert after timeout: %v", err)
	}
}

func TestConvertWithFooter_Integration(t *testing.T) {
	svc := acquireService(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	pdf, err := svc.Convert(ctx, Input{
		HTML: "<h1>Footer Test</h1>",
		Print: &PrintOptions{
			Page:   &PageSettings{Size: PageSizeA4, Orientation: OrientationPortrait, Margin: 0.5},
			Footer: &Footer{ShowPageNumber: true, Status: "DRAFT", Position: "center"},
		},
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Error("output does not have PDF magic bytes")
	}
}

func TestParallelConversions_Integration(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			svc := testPool.Acquire()
			defer testPool.Release(svc)

			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()

			pdf, err := svc.Convert(ctx, Input{HTML: fmt.Sprintf("<h1>Document %d</h1>", n)})
			if err != nil {
				errs <- fmt.Errorf("doc %d: %w", n, err)
				return
			}
			if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
				errs <- fmt.Errorf("doc %d: not a PDF", n)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestRegistryEmptyAfterClose_Integration(t *testing.T) {
	svc := New()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	before := ActiveBrowserCount()
	if _, err := svc.Convert(ctx, Input{HTML: "<p>tracked</p>"}); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := ActiveBrowserCount(); got != before+1 {
		t.Errorf("ActiveBrowserCount() = %d, want %d", got, before+1)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := ActiveBrowserCount(); got != before {
		t.Errorf("ActiveBrowserCount() = %d after Close, want %d", got, before)
	}
}
