package update

import (
	"fmt"
	"os"
)

// replaceBinary installs tmpPath at destPath. A plain rename covers
// the common case on every OS: POSIX lets you rename over an open
// file, and Windows lets you rename a running executable to a new
// name (just not delete it). So when destPath is itself the running
// pvzloader binary and the direct rename is refused, fall back to
// moving destPath aside first and renaming tmpPath into the now-empty
// path — the same two-step self-replace Windows services use.
func replaceBinary(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}

	oldPath := destPath + ".old"
	_ = os.Remove(oldPath)
	if err := os.Rename(destPath, oldPath); err != nil {
		return fmt.Errorf("move aside %s: %w", destPath, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Rename(oldPath, destPath)
		return fmt.Errorf("install %s: %w", destPath, err)
	}
	_ = os.Remove(oldPath)
	return nil
}
