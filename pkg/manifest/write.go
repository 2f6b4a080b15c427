package manifest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

var statFileFunc = os.Stat

// generateTempSuffix creates a random suffix for temporary files
func generateTempSuffix() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Fallback to a simple suffix if random fails
		return ".tmp"
	}
	return "." + hex.EncodeToString(b) + ".tmp"
}

// writeFileAtomic writes content to a file atomically using a temporary file and rename.
// This prevents a concurrent reader from ever observing a partially written manifest.
// NOTE: This function checks if the target file is writable before attempting the atomic
// write, because rename() is a directory operation and may bypass file permissions on
// some operating systems.
func writeFileAtomic(path string, content []byte, mode os.FileMode) error {
	if info, err := statFileFunc(path); err == nil {
		if info.Mode().Perm()&0200 == 0 {
			return fmt.Errorf("file is read-only: %s", path)
		}
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	// Create temp file in the same directory to ensure atomic rename works
	tempPath := filepath.Join(dir, base+generateTempSuffix())

	if err := os.WriteFile(tempPath, content, mode); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// writeFilePreservingPermissions writes content to a file while preserving its
// original permission bits. If the file does not exist, defaultMode is used.
func writeFilePreservingPermissions(path string, content []byte, defaultMode os.FileMode) error {
	mode := defaultMode
	if info, err := statFileFunc(path); err == nil {
		mode = info.Mode().Perm()
	}

	return writeFileAtomic(path, content, mode)
}
