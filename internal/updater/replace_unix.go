//go:build !windows

package updater

import (
	"fmt"
	"os"
)

// replaceExecutable installs newPath at currentPath with a rename-based
// protocol: the running binary is renamed aside, the new one is moved
// into place, then the old one is removed. If the second rename fails the
// old binary is restored, so either the old or the new binary is always
// present at currentPath.
func replaceExecutable(newPath, currentPath string) error {
	oldPath := currentPath + ".old"

	if err := os.Rename(currentPath, oldPath); err != nil {
		return fmt.Errorf("%w: move current binary aside: %v", ErrSwap, err)
	}

	if err := os.Rename(newPath, currentPath); err != nil {
		if restoreErr := os.Rename(oldPath, currentPath); restoreErr != nil {
			return fmt.Errorf("%w: install failed (%v) and restore failed (%v); previous binary is at %s",
				ErrSwap, err, restoreErr, oldPath)
		}
		return fmt.Errorf("%w: install new binary: %v", ErrSwap, err)
	}

	// The unlinked inode stays alive for the running process.
	_ = os.Remove(oldPath)
	return nil
}
