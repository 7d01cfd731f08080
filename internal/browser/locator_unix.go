//go:build !windows

package browser

import "os"

// isExecutable checks the executable bit; Windows has no equivalent.
func isExecutable(info os.FileInfo) bool {
	return info.Mode().Perm()&0o111 != 0
}

// registryLookup is a no-op outside Windows.
func registryLookup() string {
	return ""
}
