package browser

// executableCandidates lists well-known macOS install locations.
func executableCandidates() []string {
	return []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
	}
}

// lookupNames are tried against PATH after the well-known locations.
var lookupNames = []string{
	"google-chrome",
	"chromium",
}
