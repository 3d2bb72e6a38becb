package validate

import "os"

// exists reports whether path resolves to a present filesystem entry,
// following symlinks.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
