package util

import (
	"os"
)

// SaveTempArtifact writes content to a fresh temp file and returns its
// path. dir may be empty to use the system temp directory. The caller
// owns the file; pair with RemoveArtifacts unless artifacts are kept
// for debugging.
func SaveTempArtifact(dir, pattern, content string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// RemoveArtifacts deletes temp files, ignoring ones already gone.
// Returns the first unexpected error, after attempting every path.
func RemoveArtifacts(paths []string) error {
	var firstErr error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
