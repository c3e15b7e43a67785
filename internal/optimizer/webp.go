package optimizer

import (
	"bytes"
	"fmt"

	"github.com/kolesa-team/go-webp/encoder"
	libwebp "github.com/kolesa-team/go-webp/webp"
	xwebp "golang.org/x/image/webp"

	"optipix/internal/config"
)

// webpOptimizer re-encodes WebP files: lossy at the requested quality, or
// lossless when configured.
type webpOptimizer struct{}

func (webpOptimizer) Optimize(data []byte, cfg config.Run) ([]byte, error) {
	img, err := xwebp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode webp: %w", err)
	}
	img = maybeResize(img, cfg)

	var opts *encoder.Options
	if cfg.Lossless {
		opts, err = encoder.NewLosslessEncoderOptions(encoder.PresetDefault, 6)
	} else {
		opts, err = encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(cfg.Quality))
	}
	if err != nil {
		return nil, fmt.Errorf("webp encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := libwebp.Encode(&buf, img, opts); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
