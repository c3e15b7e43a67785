package optimizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"optipix/internal/config"
	"optipix/internal/scanner"
)

// destinationPath computes where a task's output is written: the source
// path for in-place runs, otherwise the source's relative path mirrored
// under the output root. Intermediate directories are created. A relative
// path that would escape the output tree is rejected.
func destinationPath(task scanner.Task, cfg config.Run) (string, error) {
	if cfg.InPlace() {
		return task.Path, nil
	}

	rel := filepath.Clean(task.RelPath)
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("relative path %q escapes output root", task.RelPath)
	}

	dest := filepath.Join(cfg.OutputRoot, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	return dest, nil
}

// writeAtomic writes data to dest via a temp file in the same directory
// followed by a rename, so readers never observe a partial file.
func writeAtomic(dest string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, "optipix-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return replaceFile(tmp.Name(), dest)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
