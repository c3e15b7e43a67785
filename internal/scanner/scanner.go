// Package scanner discovers candidate image files under a root path.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"optipix/pkg/imgutil"
)

// Task describes one discovered file. Tasks are immutable after creation
// and each is handed to exactly one worker.
type Task struct {
	Path    string
	RelPath string
	Display string
	Format  imgutil.Format
}

// Warning records a directory entry that could not be read. Warnings do
// not abort the scan.
type Warning struct {
	Path string
	Err  error
}

// Walk traverses root and calls emit for every file whose extension is a
// supported image format. Non-recursive mode visits only direct children.
// Symbolic links are not followed. A missing or unreadable root is fatal;
// unreadable entries below it are collected as warnings.
//
// Re-invoking Walk re-walks the tree; nothing is cached.
func Walk(ctx context.Context, root string, recursive bool, emit func(Task) error) ([]Warning, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		format := imgutil.FormatForPath(absRoot)
		if format == imgutil.FormatUnknown {
			return nil, nil
		}
		task := Task{
			Path:    absRoot,
			RelPath: filepath.Base(absRoot),
			Display: filepath.Base(absRoot),
			Format:  format,
		}
		return nil, send(ctx, task, emit)
	}

	var warnings []Warning

	fsys := os.DirFS(absRoot)
	walkErr := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == "." {
				return fmt.Errorf("scan %s: %w", root, err)
			}
			warnings = append(warnings, Warning{Path: filepath.Join(absRoot, path), Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !recursive && path != "." {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		format := imgutil.FormatForPath(path)
		if format == imgutil.FormatUnknown {
			return nil
		}

		task := Task{
			Path:    filepath.Join(absRoot, path),
			RelPath: path,
			Display: path,
			Format:  format,
		}
		return send(ctx, task, emit)
	})
	if walkErr != nil {
		return warnings, walkErr
	}

	return warnings, nil
}

func send(ctx context.Context, task Task, emit func(Task) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return emit(task)
}
