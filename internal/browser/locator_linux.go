package browser

// executableCandidates lists well-known Linux install locations, distro
// packages first, containerized headless builds last.
func executableCandidates() []string {
	return []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/chrome",
		"/usr/bin/microsoft-edge",
		"/usr/bin/brave-browser",
		"/headless-shell/headless-shell",
		"/usr/bin/headless-shell",
	}
}

// lookupNames are tried against PATH after the well-known locations.
var lookupNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium-browser",
	"chromium",
	"headless-shell",
}
