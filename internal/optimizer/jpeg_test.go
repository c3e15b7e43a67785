package optimizer

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"testing"

	"optipix/internal/config"
)

// buildJPEG encodes a deterministic noisy image; noise keeps the high
// quality encoding large enough that lower qualities clearly shrink it.
func buildJPEG(t *testing.T, w, h, quality int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 0xff,
			})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(1))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0112)) // Orientation
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))      // SHORT
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(6))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	return tiff.Bytes()
}

// spliceExif inserts an APP1 Exif segment right after the SOI marker.
func spliceExif(t *testing.T, data []byte) []byte {
	t.Helper()

	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Fatal("fixture is not a JPEG")
	}

	payload := append([]byte("Exif\x00\x00"), buildExifTIFF()...)
	var seg bytes.Buffer
	seg.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&seg, binary.BigEndian, uint16(len(payload)+2))
	seg.Write(payload)

	out := append([]byte{}, data[:2]...)
	out = append(out, seg.Bytes()...)
	out = append(out, data[2:]...)
	return out
}

func TestStripJPEGMetadataDropsExif(t *testing.T) {
	plain := buildJPEG(t, 32, 32, 90)
	withExif := spliceExif(t, plain)

	stripped, err := stripJPEGMetadata(withExif)
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if len(stripped) >= len(withExif) {
		t.Fatalf("strip did not shrink: %d -> %d", len(withExif), len(stripped))
	}
	if bytes.Contains(stripped, []byte("Exif\x00\x00")) {
		t.Fatal("EXIF payload still present")
	}

	img, err := jpeg.Decode(bytes.NewReader(stripped))
	if err != nil {
		t.Fatalf("stripped jpeg no longer decodes: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("unexpected bounds after strip: %v", img.Bounds())
	}
}

func TestStripJPEGMetadataRejectsGarbage(t *testing.T) {
	if _, err := stripJPEGMetadata([]byte("not a jpeg at all")); err == nil {
		t.Fatal("expected error for non-JPEG input")
	}
}

func TestExifOrientation(t *testing.T) {
	plain := buildJPEG(t, 16, 16, 90)
	if got := exifOrientation(plain); got != 1 {
		t.Fatalf("no-EXIF orientation = %d, want 1", got)
	}
	if got := exifOrientation(spliceExif(t, plain)); got != 6 {
		t.Fatalf("orientation = %d, want 6", got)
	}
}

func TestJPEGQualityReencodeShrinks(t *testing.T) {
	original := buildJPEG(t, 64, 64, 100)

	out, err := jpegOptimizer{}.Optimize(original, config.Run{Quality: 30})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(out) >= len(original) {
		t.Fatalf("quality 30 re-encode should shrink: %d -> %d", len(original), len(out))
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("output no longer decodes: %v", err)
	}
}

func TestJPEGOptimizeAppliesOrientationAndResize(t *testing.T) {
	original := spliceExif(t, buildJPEG(t, 64, 32, 95))

	// Orientation 6 rotates 64x32 to 32x64; max edge 32 then halves it.
	out, err := jpegOptimizer{}.Optimize(original, config.Run{Quality: 80, MaxEdge: 32})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 32 {
		t.Fatalf("bounds = %v, want 16x32", img.Bounds())
	}
}

func TestJPEGLosslessKeepsEntropyData(t *testing.T) {
	original := spliceExif(t, buildJPEG(t, 32, 32, 90))

	out, err := jpegOptimizer{}.Optimize(original, config.Run{Quality: 85, Lossless: true})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(out) >= len(original) {
		t.Fatalf("lossless strip should shrink a file with EXIF: %d -> %d", len(original), len(out))
	}
	if bytes.Contains(out, []byte("Exif\x00\x00")) {
		t.Fatal("EXIF survived lossless pass")
	}
}
