//go:build windows

package updater

import (
	"fmt"
	"os"
)

// replaceExecutable installs newPath at currentPath. Windows refuses to
// unlink a running executable, so the old binary is renamed aside and
// left behind; it is cleaned up opportunistically on the next update.
func replaceExecutable(newPath, currentPath string) error {
	oldPath := currentPath + ".old"

	// Leftover from a previous update; safe to drop now that no process
	// runs it.
	_ = os.Remove(oldPath)

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

	return nil
}
