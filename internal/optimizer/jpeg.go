package optimizer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"

	"optipix/internal/config"
)

// jpegOptimizer re-encodes JPEGs at the requested quality. In lossless
// mode it leaves the entropy-coded image data untouched and strips
// metadata segments instead, so pixels are preserved exactly. Lossless
// mode still honors a resize constraint: an image that must shrink is
// re-encoded at maximum quality, since downscaling requires a re-encode.
type jpegOptimizer struct{}

func (jpegOptimizer) Optimize(data []byte, cfg config.Run) ([]byte, error) {
	if cfg.Lossless {
		w, h, err := jpegDimensions(data)
		if err != nil {
			return nil, err
		}
		if !needsResize(w, h, cfg) {
			return stripJPEGMetadata(data)
		}
		return reencodeJPEG(data, cfg, 100)
	}
	return reencodeJPEG(data, cfg, cfg.Quality)
}

func reencodeJPEG(data []byte, cfg config.Run, quality int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}

	// The re-encode drops EXIF, so bake the orientation into the pixels
	// first or rotated photos come out sideways.
	img = applyOrientation(img, exifOrientation(data))
	img = maybeResize(img, cfg)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func jpegDimensions(data []byte) (int, int, error) {
	c, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode jpeg header: %w", err)
	}
	return c.Width, c.Height, nil
}

// exifOrientation returns the EXIF Orientation tag value, defaulting to 1
// (upright) when the tag or the whole EXIF block is absent.
func exifOrientation(data []byte) int {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 1
	}
	tags, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 1
	}
	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		if values, ok := tag.Value.([]uint16); ok && len(values) > 0 {
			return int(values[0])
		}
	}
	return 1
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegXmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegPhotoshop  = []byte("Photoshop 3.0\x00")
)

// stripJPEGMetadata walks the JPEG marker stream and drops metadata
// segments (EXIF, XMP, Photoshop resources, comments). Everything from
// the first SOS marker on is copied verbatim, so the compressed image
// data is byte-identical to the input's.
func stripJPEGMetadata(data []byte) ([]byte, error) {
	br := bufio.NewReader(bytes.NewReader(data))
	var out bytes.Buffer
	bw := bufio.NewWriter(&out)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return nil, err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return nil, errors.New("invalid JPEG SOI")
	}
	if _, err := bw.Write(soi); err != nil {
		return nil, err
	}

	for {
		markerPrefix, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		for markerPrefix != 0xff {
			markerPrefix, err = br.ReadByte()
			if err != nil {
				return nil, err
			}
		}

		marker, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		for marker == 0xff {
			marker, err = br.ReadByte()
			if err != nil {
				return nil, err
			}
		}

		if marker == 0xd9 { // EOI
			if _, err := bw.Write([]byte{0xff, 0xd9}); err != nil {
				return nil, err
			}
			break
		}

		if marker == 0xda { // SOS: entropy-coded data follows, copy through
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return nil, err
			}
			if _, err := io.Copy(bw, br); err != nil {
				return nil, err
			}
			break
		}

		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return nil, err
			}
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return nil, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return nil, errors.New("invalid JPEG segment length")
		}
		payload := make([]byte, segLen-2)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, err
		}

		if shouldDropJPEGSegment(marker, payload) {
			continue
		}

		if _, err := bw.Write([]byte{0xff, marker}); err != nil {
			return nil, err
		}
		if _, err := bw.Write(lenBuf); err != nil {
			return nil, err
		}
		if _, err := bw.Write(payload); err != nil {
			return nil, err
		}
	}

	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func shouldDropJPEGSegment(marker byte, payload []byte) bool {
	switch marker {
	case 0xfe: // COM
		return true
	case 0xe1:
		return bytes.HasPrefix(payload, jpegExifHeader) || bytes.HasPrefix(payload, jpegXmpHeader)
	case 0xed:
		return bytes.HasPrefix(payload, jpegPhotoshop)
	}
	return false
}
