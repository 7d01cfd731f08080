package chromepdf

import "github.com/avezou/go-chromepdf/internal/browser"

// FindChrome locates a usable Chrome or Chromium binary the same way a
// Service does: the CHROMEPDF_CHROME_BIN environment variable, well-known
// install locations, PATH, and the platform registry. Useful for preflight
// checks before accepting work.
func FindChrome() (string, error) {
	return browser.FindExecutable()
}

// ActiveBrowserCount reports how many supervised browsers this process is
// currently tracking.
func ActiveBrowserCount() int {
	return browser.ActiveCount()
}

// HealthCheckBrowsers drops tracking entries whose OS process died without a
// proper shutdown and returns how many were removed. Diagnostic only.
func HealthCheckBrowsers() int {
	return browser.HealthCheck()
}

// CleanupAllBrowsers force-kills every tracked browser and removes their
// owned profile directories. Emergency use; normal shutdown goes through
// Service.Close or Renderer.Close.
func CleanupAllBrowsers() int {
	return browser.CleanupAll()
}
