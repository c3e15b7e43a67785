package optimizer

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"optipix/internal/config"
)

// targetDimensions scales (w, h) so the longer edge equals maxEdge,
// preserving aspect ratio. Dimensions are rounded to the nearest integer
// and never drop below one pixel. Images already within the constraint
// are returned unchanged; there is no upscaling.
func targetDimensions(w, h, maxEdge int) (int, int) {
	if maxEdge <= 0 {
		return w, h
	}
	longer := w
	if h > w {
		longer = h
	}
	if longer <= maxEdge {
		return w, h
	}

	scale := float64(maxEdge) / float64(longer)
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// maybeResize downscales decoded raster pixels to the configured maximum
// edge using Lanczos resampling. It is a no-op when no constraint is set
// or the image already fits.
func maybeResize(img image.Image, cfg config.Run) image.Image {
	if cfg.MaxEdge <= 0 {
		return img
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	nw, nh := targetDimensions(w, h, cfg.MaxEdge)
	if nw == w && nh == h {
		return img
	}
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// needsResize reports whether maybeResize would change the image,
// without decoding pixels.
func needsResize(w, h int, cfg config.Run) bool {
	if cfg.MaxEdge <= 0 {
		return false
	}
	nw, nh := targetDimensions(w, h, cfg.MaxEdge)
	return nw != w || nh != h
}
