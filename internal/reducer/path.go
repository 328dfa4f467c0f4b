package reducer

import "path/filepath"

// NormalizePath resolves path against the working directory and follows
// symlinks. Paths that do not exist are returned cleaned and absolute.
func NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
