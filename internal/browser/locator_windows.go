package browser

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// executableCandidates lists well-known Windows install locations, derived
// from the standard program-files environment variables.
func executableCandidates() []string {
	var candidates []string
	for _, root := range []string{
		os.Getenv("ProgramFiles"),
		os.Getenv("ProgramFiles(x86)"),
		os.Getenv("LocalAppData"),
	} {
		if root == "" {
			continue
		}
		candidates = append(candidates,
			filepath.Join(root, `Google\Chrome\Application\chrome.exe`),
			filepath.Join(root, `Chromium\Application\chrome.exe`),
			filepath.Join(root, `Microsoft\Edge\Application\msedge.exe`),
		)
	}
	return candidates
}

// lookupNames are tried against PATH after the well-known locations.
var lookupNames = []string{
	"chrome.exe",
	"chromium.exe",
	"msedge.exe",
}

// isExecutable always succeeds on Windows; there is no executable bit.
func isExecutable(os.FileInfo) bool {
	return true
}

// registryLookup queries the App Paths registry key for chrome.exe.
// Best-effort: any failure simply means "not found".
func registryLookup() string {
	out, err := exec.Command("reg", "query",
		`HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\App Paths\chrome.exe`, "/ve").Output()
	if err != nil {
		return ""
	}
	// Output lines look like: "    (Default)    REG_SZ    C:\...\chrome.exe"
	for _, line := range strings.Split(string(out), "\n") {
		if idx := strings.Index(line, "REG_SZ"); idx >= 0 {
			return strings.TrimSpace(line[idx+len("REG_SZ"):])
		}
	}
	return ""
}
