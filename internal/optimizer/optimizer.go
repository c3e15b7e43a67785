// Package optimizer runs the optimization pipeline: it consumes scanner
// output, dispatches each file to a format-specific optimizer on a worker
// pool, applies the resize, backup and output policies, and aggregates
// per-file outcomes into a batch summary.
package optimizer

import (
	"fmt"

	"optipix/internal/config"
	"optipix/pkg/imgutil"
)

// formatOptimizer is the shared capability of the four format variants.
// Input bytes are never modified; the returned slice is a fresh encoding.
type formatOptimizer interface {
	Optimize(data []byte, cfg config.Run) ([]byte, error)
}

// optimizerFor resolves the handler for a detected format. The set of
// formats is closed; anything else is a dispatch bug.
func optimizerFor(format imgutil.Format) (formatOptimizer, error) {
	switch format {
	case imgutil.FormatJPEG:
		return jpegOptimizer{}, nil
	case imgutil.FormatPNG:
		return pngOptimizer{}, nil
	case imgutil.FormatWebP:
		return webpOptimizer{}, nil
	case imgutil.FormatSVG:
		return svgOptimizer{}, nil
	default:
		return nil, fmt.Errorf("no optimizer for format %q", format)
	}
}
